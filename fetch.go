package main

import (
	"fmt"
	"time"

	"github.com/firefart/dmarcxml2csv/internal/config"
	"github.com/firefart/dmarcxml2csv/internal/imap"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <output_file>",
		Short: "Convert the DMARC reports attached to the mails of an IMAP folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}
			configFile, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			// set some defaults
			defaults := config.Configuration{
				BatchSize: 30,
				ImapConfig: config.IMAPConfig{
					Folder: "INBOX",
					Timeout: config.Duration{
						Duration: 1 * time.Minute,
					},
				},
			}

			settings, err := config.GetConfig(defaults, configFile)
			if err != nil {
				return fmt.Errorf("could not read %s: %w", configFile, err)
			}

			logger := newLogger(cmd.OutOrStdout(), debug)
			return run(cmd.Context(), logger, imap.NewMailbox(*settings, logger), args[0], settings.Format)
		},
	}

	cmd.Flags().String("config", "", "Config File to use")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
