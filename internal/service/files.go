package service

import (
	"context"
	"time"

	"slack_files/internal/database"
	"slack_files/internal/export"
	"slack_files/internal/files"
	"slack_files/internal/logger"

	"github.com/slack-go/slack"
)

// ProcessMessage downloads every attachment of msg into outputDir that is not
// there yet. num and total only feed the progress line. A failed download is
// printed and the next attachment is tried; only cancellation of ctx is
// returned.
func (e *Exporter) ProcessMessage(ctx context.Context, msg export.Message, channel, outputDir string, num, total int) error {
	for _, f := range msg.Attachments() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fileName := files.FileName(f.ID, f.Name)
		localPath := e.storage.GenerateFilePath(outputDir, f.ID, f.Name)

		if e.storage.FileExists(localPath) {
			e.stats.Skipped++
			continue
		}

		e.console.Progress(num, total, fileName)

		res, err := e.downloader.Download(ctx, f.URLPrivate, localPath)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.stats.Failed++
			e.console.PrintError(err)
			logger.Error().Err(err).Str("channel", channel).Str("file", fileName).Msg("download failed")
			e.recordFailure(f, channel, fileName, err)
			continue
		}

		e.stats.Downloaded++
		e.stats.Bytes += res.Bytes
		e.recordDownload(f, channel, fileName, localPath, res)

		e.heartbeat.Do(func() {
			logger.Info().
				Int("downloaded", e.stats.Downloaded).
				Int("skipped", e.stats.Skipped).
				Int("failed", e.stats.Failed).
				Str("channel", channel).
				Msg("download pass in progress")
		})
	}

	return nil
}

func (e *Exporter) recordDownload(f slack.File, channel, fileName, localPath string, res files.Result) {
	if e.ledger == nil {
		return
	}
	err := e.ledger.InsertFile(database.File{
		ID:           f.ID,
		Channel:      channel,
		FileName:     fileName,
		URL:          f.URLPrivate,
		LocalPath:    localPath,
		MimeType:     f.Mimetype,
		SizeBytes:    res.Bytes,
		Checksum:     res.Checksum,
		DownloadedAt: time.Now(),
	})
	if err != nil {
		logger.Error().Err(err).Str("file", fileName).Msg("failed to record download")
	}
}

func (e *Exporter) recordFailure(f slack.File, channel, fileName string, cause error) {
	if e.ledger == nil {
		return
	}
	err := e.ledger.InsertFailure(database.Failure{
		ID:       f.ID,
		Channel:  channel,
		FileName: fileName,
		URL:      f.URLPrivate,
		Error:    cause.Error(),
		FailedAt: time.Now(),
	})
	if err != nil {
		logger.Error().Err(err).Str("file", fileName).Msg("failed to record failure")
	}
}
