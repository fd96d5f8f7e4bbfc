package files

// FileStorage knows where attachments of a channel are written
type FileStorage struct {
	OutputName string
}

// Result describes the bytes written by a successful download
type Result struct {
	Bytes    int64
	Checksum string
}
