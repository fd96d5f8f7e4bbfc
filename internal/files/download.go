package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"slack_files/internal/logger"
)

const partSuffix = ".part"

// Downloader fetches attachment URLs onto local paths
type Downloader struct {
	client      *http.Client
	idleTimeout time.Duration
}

// NewDownloader creates a downloader that gives up when connecting, waiting
// for response headers, or waiting for the next body bytes takes longer than
// timeout. A transfer that keeps making progress is never cut off.
func NewDownloader(timeout time.Duration) *Downloader {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &Downloader{
		// No overall Client.Timeout: it would also bound reading the body.
		client:      &http.Client{Transport: transport},
		idleTimeout: timeout,
	}
}

// Download fetches url and writes the response body to destPath. The body is
// streamed to a sibling ".part" file that is renamed into place only after a
// complete write, so destPath exists only for finished downloads.
func (d *Downloader) Download(ctx context.Context, url, destPath string) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body := newStallReader(resp.Body, d.idleTimeout, cancel)
	defer body.stop()

	tmpFile := destPath + partSuffix
	out, err := os.Create(tmpFile)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temporary file: %w", err)
	}

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, hash), body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup(tmpFile)
		if body.stalled.Load() {
			return Result{}, fmt.Errorf("failed to write file: transfer stalled for %v", d.idleTimeout)
		}
		return Result{}, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tmpFile, destPath); err != nil {
		cleanup(tmpFile)
		return Result{}, fmt.Errorf("failed to move file to final location: %w", err)
	}

	logger.Debug().Str("path", destPath).Int64("bytes", n).Msg("download complete")

	return Result{
		Bytes:    n,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// stallReader cancels the request when no bytes arrive for idle.
type stallReader struct {
	r       io.Reader
	idle    time.Duration
	timer   *time.Timer
	stalled atomic.Bool
}

func newStallReader(r io.Reader, idle time.Duration, cancel context.CancelFunc) *stallReader {
	s := &stallReader{r: r, idle: idle}
	s.timer = time.AfterFunc(idle, func() {
		s.stalled.Store(true)
		cancel()
	})
	return s
}

func (s *stallReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.timer.Reset(s.idle)
	}
	return n, err
}

func (s *stallReader) stop() {
	s.timer.Stop()
}

func cleanup(path string) {
	if err := os.Remove(path); err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("failed to clean up partial file")
	}
}
