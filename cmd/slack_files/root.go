package main

import (
	"errors"
	"fmt"
	"time"

	"slack_files/internal/config"
	"slack_files/internal/console"
	"slack_files/internal/database"
	"slack_files/internal/files"
	"slack_files/internal/logger"
	"slack_files/internal/service"

	"github.com/spf13/cobra"
)

type flags struct {
	output      string
	timeout     time.Duration
	logDir      string
	logLevel    string
	ledger      string
	skipInvalid bool
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "slack_files <export_directory>",
		Short: "Download all files referenced by the messages of a Slack export",
		Long: `Downloads all files of messages of your Slack (workspace) JSON export.

Each channel directory is processed and a folder (default "files") is created
inside it holding the channel's attachments, named <id>_<name>. Files that
already exist are skipped, so the command can be re-run after an interruption.

An export directory that is literally named "failures" must be given as
./failures, otherwise the failures subcommand runs instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			if err := logger.Init(cfg.LogPath, logger.ParseLogLevel(cfg.LogLevel)); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Close()

			opts := service.Options{
				Storage:         files.NewFileStorage(cfg.OutputName),
				Downloader:      files.NewDownloader(cfg.HTTPTimeout),
				Console:         console.New(cmd.OutOrStdout()),
				SkipInvalidLogs: cfg.SkipInvalidLogs,
			}

			if cfg.LedgerPath != "" {
				db, err := database.New(cfg.LedgerPath)
				if err != nil {
					return fmt.Errorf("failed to open ledger: %w", err)
				}
				defer db.Close()
				opts.Ledger = db
			}

			return service.NewExporter(opts).Run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", config.DefaultOutputName, "name of downloads folder within channel (relative, may be nested)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", config.DefaultHTTPTimeout, "timeout for connecting, waiting for a response, or a transfer that stops sending data")
	cmd.Flags().StringVar(&f.logDir, "log-dir", "", "directory for slack_files.log (disabled when empty)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "INFO", "log level: DEBUG, INFO, WARN or ERROR")
	cmd.Flags().StringVar(&f.ledger, "ledger", "", "sqlite database recording downloads and failures")
	cmd.Flags().BoolVar(&f.skipInvalid, "skip-invalid", false, "skip message logs that are not a JSON array instead of stopping")

	cmd.AddCommand(newFailuresCmd())

	return cmd
}

// loadConfig reads the environment, applies the flags given on the command
// line and validates the result once.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg := config.Load()

	set := cmd.Flags().Changed
	if set("output") {
		cfg.OutputName = f.output
	}
	if set("timeout") {
		cfg.HTTPTimeout = f.timeout
		cfg.Override("HTTP_TIMEOUT_SECONDS")
	}
	if set("log-dir") {
		cfg.LogPath = f.logDir
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("ledger") {
		cfg.LedgerPath = f.ledger
	}
	if set("skip-invalid") {
		cfg.SkipInvalidLogs = f.skipInvalid
		cfg.Override("SKIP_INVALID_LOGS")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newFailuresCmd() *cobra.Command {
	var ledger string

	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List downloads that failed and have not succeeded since",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ledger == "" {
				ledger = config.Load().LedgerPath
			}
			if ledger == "" {
				return errors.New("no ledger configured, pass --ledger or set LEDGER_PATH")
			}

			db, err := database.New(ledger)
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer db.Close()

			failures, err := db.GetFailures()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, fl := range failures {
				fmt.Fprintf(out, "%s/%s\t%d attempt(s)\t%s\n", fl.Channel, fl.FileName, fl.Attempts, fl.Error)
			}

			summary, err := db.GetSummary()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d downloaded (%d bytes), %d failing\n", summary.Downloads, summary.TotalBytes, summary.Failures)
			return nil
		},
	}

	cmd.Flags().StringVar(&ledger, "ledger", "", "sqlite database written by a download pass")
	return cmd
}

// userMessage turns fatal errors into the one-line text shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotExport):
		return "The input directory does not seem to contain a slack export."
	case errors.Is(err, service.ErrNoChannels):
		return "The input directory does not contain any channel directories."
	default:
		return err.Error()
	}
}
