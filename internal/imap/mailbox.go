package imap

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/firefart/dmarcxml2csv/internal/config"
	"github.com/firefart/dmarcxml2csv/internal/helper"
	"github.com/firefart/dmarcxml2csv/internal/source"

	// needed to handle other charsets too
	_ "github.com/emersion/go-message/charset"
)

// Mailbox is a source that returns the report attachments of all mails in
// the configured folder
type Mailbox struct {
	config config.Configuration
	logger *log.Logger
}

func NewMailbox(conf config.Configuration, logger *log.Logger) *Mailbox {
	return &Mailbox{
		config: conf,
		logger: logger,
	}
}

// Walk runs in batch sizes as some IMAP servers have pretty
// short timeouts and the imap library does not handle
// reconnects
func (m *Mailbox) Walk(ctx context.Context, fn func(source.Document) error) error {
	// without deleting, the next batch would return the same mails again
	offset := 0
	hasMore := true
	for hasMore {
		m.logger.Debugf("starting new imap loop with batch size of %d", m.config.BatchSize)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			var err error
			var processed int
			hasMore, processed, err = m.fetch(ctx, offset, fn)
			if err != nil {
				return err
			}
			if !m.config.DeleteProcessed {
				offset += processed
			}
		}
	}
	return nil
}

// Check logs in and makes sure the configured folder exists
func (m *Mailbox) Check(_ context.Context) error {
	c, err := m.connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Logout(); err != nil {
			m.logger.Errorf("Error on logout: %v", err)
		}
	}()

	folder := m.config.ImapConfig.Folder
	hasFolder, err := HasImapFolder(c, folder)
	if err != nil {
		return fmt.Errorf("could not check if folder %s exists: %w", folder, err)
	}
	if !hasFolder {
		return fmt.Errorf("imap folder %s not found in account", folder)
	}
	return nil
}

func (m *Mailbox) connect() (*client.Client, error) {
	imapConfig := m.config.ImapConfig
	c, err := Connect(imapConfig, m.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", imapConfig.Host, err)
	}
	m.logger.Debug("connected to imap server")

	// also log IMAP messages in debug mode
	if m.logger.GetLevel() <= log.DebugLevel {
		c.SetDebug(m.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}).Writer())
	}

	if err := c.Login(imapConfig.User, imapConfig.Pass); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("could not login: %w", err)
	}
	m.logger.Debug("successful login")
	return c, nil
}

func (m *Mailbox) fetch(ctx context.Context, offset int, fn func(source.Document) error) (bool, int, error) {
	c, err := m.connect()
	if err != nil {
		return false, 0, err
	}
	defer func() {
		if err := c.Logout(); err != nil {
			m.logger.Errorf("Error on logout: %v", err)
		}
	}()

	folder := m.config.ImapConfig.Folder
	hasFolder, err := HasImapFolder(c, folder)
	if err != nil {
		return false, 0, fmt.Errorf("could not check if folder %s exists: %w", folder, err)
	}
	if !hasFolder {
		return false, 0, fmt.Errorf("imap folder %s not found in account", folder)
	}

	readOnly := !m.config.DeleteProcessed
	mbox, err := c.Select(folder, readOnly)
	if err != nil {
		return false, 0, fmt.Errorf("could not select folder %s: %w", folder, err)
	}
	m.logger.Infof("Opened %s with %d messages (%d unread)", mbox.Name, mbox.Messages, mbox.Unseen)

	criteria := goimap.NewSearchCriteria()
	criteria.WithoutFlags = []string{goimap.DeletedFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		return false, 0, fmt.Errorf("could not search for mails: %w", err)
	}
	m.logger.Debugf("found %d mails without the DELETED flag", len(ids))

	batch, hasMore := nextBatch(ids, offset, m.config.BatchSize)
	if len(batch) == 0 {
		// no mails to process
		return false, 0, nil
	}

	seqset := new(goimap.SeqSet)
	seqset.AddNum(batch...)
	m.logger.Debugf("Fetching the following messages: %v", seqset.String())

	messages := make(chan *goimap.Message)
	done := make(chan error, 1)

	// Get the whole message body
	section := &goimap.BodySectionName{Peek: true}
	items := []goimap.FetchItem{
		section.FetchItem(),
		goimap.FetchEnvelope,
		goimap.FetchUid,
	}
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var walkErr error
	var toDelete []uint32
	for msg := range messages {
		// keep draining the channel so the fetch can finish
		if walkErr != nil {
			continue
		}
		subject := ""
		if msg.Envelope != nil {
			subject = msg.Envelope.Subject
		}
		m.logger.Infof("Processing email %s (UID %d)", subject, msg.Uid)
		docs, err := m.attachments(ctx, msg, section)
		if ctx.Err() != nil {
			walkErr = ctx.Err()
			continue
		}
		if err != nil {
			m.logger.Errorf("could not process message %d: %v", msg.Uid, err)
		}
		if len(docs) == 0 {
			m.logger.Infof("Message %s does not seem to be a valid dmarc report", subject)
		}
		for _, doc := range docs {
			if err := fn(doc); err != nil {
				walkErr = err
				break
			}
		}
		if walkErr != nil {
			continue
		}
		// always delete a processed message to clean up junk behind
		toDelete = append(toDelete, msg.Uid)
	}

	m.logger.Debug("waiting for fetch to finish")
	if err := <-done; err != nil {
		return false, 0, fmt.Errorf("error on fetch: %w", err)
	}
	if walkErr != nil {
		return false, 0, walkErr
	}
	// nothing gets deleted on a cancelled run
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}

	if m.config.DeleteProcessed {
		for _, uid := range toDelete {
			m.logger.Infof("Marking message UID %d as deleted", uid)
			if err := MarkMessageAsDeleted(c, uid); err != nil {
				m.logger.Errorf("could not set delete flag on message %d: %v", uid, err)
				continue
			}
		}

		m.logger.Info("Running expunge command (delete all marked messages)")
		if err := c.Expunge(nil); err != nil {
			return false, 0, fmt.Errorf("could not expunge: %w", err)
		}
	}

	m.logger.Infof("Processed %d emails", len(toDelete))
	return hasMore, len(batch), nil
}

// nextBatch returns at most size ids starting at offset and if there are ids
// left after this batch
func nextBatch(ids []uint32, offset, size int) ([]uint32, bool) {
	if offset >= len(ids) {
		return nil, false
	}
	ids = ids[offset:]
	if size <= 0 || size >= len(ids) {
		return ids, false
	}
	return ids[:size], true
}

// attachments returns all report files contained in a mail
func (m *Mailbox) attachments(ctx context.Context, msg *goimap.Message, section *goimap.BodySectionName) ([]source.Document, error) {
	r := msg.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("server didn't return message body")
	}
	m.logger.Debugf("body length %d", r.Len())
	return readAttachments(ctx, r, m.logger)
}

func readAttachments(ctx context.Context, r io.Reader, logger *log.Logger) ([]source.Document, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create reader: %w", err)
	}
	defer mr.Close()

	var docs []source.Document
	for {
		select {
		case <-ctx.Done():
			return docs, ctx.Err()
		default:
		}

		p, err := mr.NextPart()
		if err == io.EOF {
			return docs, nil
		} else if err != nil {
			return docs, fmt.Errorf("could not get next part: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return docs, fmt.Errorf("could not read inlineheader body: %w", err)
			}

			// sometimes the attachment is inlined so we check the magic bytes
			if !helper.IsSupportedArchive(b) {
				continue
			}
			logger.Info("found inline attachment")
			contentDisp, contentDispParams, err := h.ContentDisposition()
			if err != nil {
				return docs, fmt.Errorf("could not get contentdisposition: %w", err)
			}
			if contentDisp != "inline" {
				return docs, fmt.Errorf("content disposition is not inline")
			}
			filename, ok := contentDispParams["filename"]
			if !ok {
				return docs, fmt.Errorf("could not determine filename")
			}
			docs = append(docs, source.Document{Name: filename, Content: b})
		case *mail.AttachmentHeader:
			filename, err := h.Filename()
			if err != nil {
				return docs, fmt.Errorf("could not get attachment filename: %w", err)
			}
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return docs, fmt.Errorf("could not read attachment: %w", err)
			}
			logger.Infof("Got attachment: %s", filename)
			docs = append(docs, source.Document{Name: filename, Content: b})
		default:
			logger.Infof("No header type implemented: %v", p.Header)
		}
	}
}
