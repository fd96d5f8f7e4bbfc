// Package export reads the directory layout of a Slack workspace JSON export.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkerFiles must exist directly inside an export root.
var MarkerFiles = []string{"users.json", "channels.json"}

// IsExportDir reports whether path is a directory holding every marker file.
// Any failure to stat counts as "not an export".
func IsExportDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}

	for _, name := range MarkerFiles {
		if _, err := os.Stat(filepath.Join(path, name)); err != nil {
			return false
		}
	}
	return true
}

// ChannelDirs returns the names of the immediate subdirectories of root in
// listing order. Symlinks to directories count as directories.
func ChannelDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list export directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		info, err := os.Stat(filepath.Join(root, entry.Name()))
		if err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, entry.Name())
	}
	return dirs, nil
}

// MessageLogs returns the names of the files in channelDir ending in .json,
// compared case-insensitively. Directories are ignored.
func MessageLogs(channelDir string) ([]string, error) {
	entries, err := os.ReadDir(channelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel directory: %w", err)
	}

	var logs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			logs = append(logs, entry.Name())
		}
	}
	return logs, nil
}
