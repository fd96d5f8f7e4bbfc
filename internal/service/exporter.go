package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"slack_files/internal/console"
	"slack_files/internal/database"
	"slack_files/internal/export"
	"slack_files/internal/files"
	"slack_files/internal/logger"

	"golang.org/x/time/rate"
)

var (
	ErrNotExport  = errors.New("the input directory does not seem to contain a slack export")
	ErrNoChannels = errors.New("the input directory does not contain any channel directories")
)

const heartbeatInterval = 10 * time.Second

// Fetcher downloads a URL onto a local path
type Fetcher interface {
	Download(ctx context.Context, url, destPath string) (files.Result, error)
}

// Ledger records the outcome of every download attempt
type Ledger interface {
	InsertFile(f database.File) error
	InsertFailure(f database.Failure) error
}

// Options configures an Exporter. Ledger may be nil.
type Options struct {
	Storage         *files.FileStorage
	Downloader      Fetcher
	Console         *console.Console
	Ledger          Ledger
	SkipInvalidLogs bool
}

// Stats counts what a run did
type Stats struct {
	Channels    int
	MessageLogs int
	InvalidLogs int
	Messages    int
	Downloaded  int
	Skipped     int
	Failed      int
	Bytes       int64
}

// Exporter walks an export and downloads the attachments of every channel,
// one file at a time.
type Exporter struct {
	storage     *files.FileStorage
	downloader  Fetcher
	console     *console.Console
	ledger      Ledger
	skipInvalid bool

	heartbeat rate.Sometimes
	stats     Stats
}

func NewExporter(opts Options) *Exporter {
	return &Exporter{
		storage:     opts.Storage,
		downloader:  opts.Downloader,
		console:     opts.Console,
		ledger:      opts.Ledger,
		skipInvalid: opts.SkipInvalidLogs,
		heartbeat:   rate.Sometimes{Interval: heartbeatInterval},
	}
}

// Stats returns the counters of the last run
func (e *Exporter) Stats() Stats {
	return e.stats
}

// Run validates root and processes every channel directory under it.
// Download failures are reported and skipped; everything else, including
// cancellation of ctx, stops the run.
func (e *Exporter) Run(ctx context.Context, root string) error {
	e.stats = Stats{}

	if !export.IsExportDir(root) {
		return ErrNotExport
	}

	dirs, err := export.ChannelDirs(root)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return ErrNoChannels
	}

	logger.Info().Str("export", root).Int("channels", len(dirs)).Msg("starting download pass")

	total := len(dirs)
	e.console.Progress(0, total, "processing channels")

	for i, name := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		index := i + 1
		if err := e.processChannel(ctx, root, name, index, total); err != nil {
			return err
		}
		e.stats.Channels++
		e.console.Progress(index, total, "processed channels")
	}
	e.console.Done()

	logger.Info().
		Int("channels", e.stats.Channels).
		Int("message_logs", e.stats.MessageLogs).
		Int("invalid_logs", e.stats.InvalidLogs).
		Int("messages", e.stats.Messages).
		Int("downloaded", e.stats.Downloaded).
		Int("skipped", e.stats.Skipped).
		Int("failed", e.stats.Failed).
		Int64("bytes", e.stats.Bytes).
		Msg("download pass finished")

	return nil
}

func (e *Exporter) processChannel(ctx context.Context, root, name string, index, total int) error {
	channelDir := filepath.Join(root, name)

	outputDir, err := e.storage.OutputDir(channelDir)
	if err != nil {
		return fmt.Errorf("channel %s: %w", name, err)
	}

	logs, err := export.MessageLogs(channelDir)
	if err != nil {
		return fmt.Errorf("channel %s: %w", name, err)
	}

	logger.Debug().Str("channel", name).Int("message_logs", len(logs)).Msg("processing channel")

	for _, logName := range logs {
		if err := ctx.Err(); err != nil {
			return err
		}
		messages, err := export.ParseMessageLog(filepath.Join(channelDir, logName))
		if err != nil {
			if e.skipInvalid && errors.Is(err, export.ErrInvalidMessageLog) {
				e.stats.InvalidLogs++
				e.console.PrintError(err)
				logger.Warn().Err(err).Str("channel", name).Msg("skipping message log")
				continue
			}
			return err
		}
		e.stats.MessageLogs++

		for _, msg := range messages {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.stats.Messages++
			if err := e.ProcessMessage(ctx, msg, name, outputDir, index, total); err != nil {
				return err
			}
		}
	}

	return nil
}
