package main

import (
	"github.com/firefart/dmarcxml2csv/internal/output"
	"github.com/firefart/dmarcxml2csv/internal/source"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dmarcxml2csv <xml_folder> <output_file>",
		Short: "Convert DMARC aggregate reports into a single CSV file",
		Long: `dmarcxml2csv reads all DMARC aggregate reports (*.xml) in a folder and
writes one row per record and DKIM/SPF result pair into a single CSV or XLSX file.
Reports that can not be parsed are logged and skipped.`,
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// usage is only printed for invalid arguments
			cmd.SilenceUsage = true

			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			logger := newLogger(cmd.OutOrStdout(), debug)
			return run(cmd.Context(), logger, source.NewDirectory(args[0]), args[1], format)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "Print debug output")
	cmd.Flags().String("format", "", "Output format ("+output.FormatCSV+" or "+output.FormatXLSX+"), guessed from the output file name if empty")

	cmd.AddCommand(newFetchCmd())

	return cmd
}
