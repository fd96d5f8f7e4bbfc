package files

import (
	"fmt"
	"os"
	"path/filepath"
)

// NewFileStorage creates a FileStorage writing into the named folder of each channel
func NewFileStorage(outputName string) *FileStorage {
	return &FileStorage{OutputName: outputName}
}

// OutputDir creates (if needed) and returns the output folder of a channel directory
func (fs *FileStorage) OutputDir(channelDir string) (string, error) {
	dir := filepath.Join(channelDir, fs.OutputName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

// FileName joins an attachment id and name with an underscore.
// The name is used verbatim.
func FileName(id, name string) string {
	return id + "_" + name
}

// GenerateFilePath returns the destination of an attachment inside outputDir
func (fs *FileStorage) GenerateFilePath(outputDir, id, name string) string {
	return filepath.Join(outputDir, FileName(id, name))
}

// FileExists checks if anything exists at the given path
func (fs *FileStorage) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
