package export

import (
	"errors"
	"fmt"
	"os"

	"github.com/slack-go/slack"
	"github.com/tidwall/gjson"
)

// ErrInvalidMessageLog is returned for log files that are not a JSON array.
var ErrInvalidMessageLog = errors.New("invalid message log")

// Message is one record of a channel message log.
type Message struct {
	raw gjson.Result
}

// NewMessage wraps a raw JSON message record.
func NewMessage(raw string) Message {
	return Message{raw: gjson.Parse(raw)}
}

// ParseMessageLog reads a channel log file holding a JSON array of messages.
func ParseMessageLog(path string) ([]Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidMessageLog, path)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: %s does not contain a JSON array", ErrInvalidMessageLog, path)
	}

	elems := doc.Array()
	messages := make([]Message, 0, len(elems))
	for _, elem := range elems {
		messages = append(messages, Message{raw: elem})
	}
	return messages, nil
}

// Attachments returns the file descriptors of the message that carry an id,
// a name and a private URL. Incomplete descriptors are dropped silently.
func (m Message) Attachments() []slack.File {
	if !m.raw.IsObject() {
		return nil
	}

	files := m.raw.Get("files")
	if !files.IsArray() {
		return nil
	}

	var out []slack.File
	files.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id")
		name := item.Get("name")
		url := item.Get("url_private")
		if id.Type != gjson.String || name.Type != gjson.String || url.Type != gjson.String {
			return true
		}

		out = append(out, slack.File{
			ID:         id.Str,
			Name:       name.Str,
			URLPrivate: url.Str,
			Size:       int(item.Get("size").Int()),
			Mimetype:   item.Get("mimetype").Str,
			Filetype:   item.Get("filetype").Str,
		})
		return true
	})
	return out
}
