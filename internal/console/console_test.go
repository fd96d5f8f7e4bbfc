package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		total   int
		suffix  string
		filled  int
		percent string
	}{
		{"start", 0, 4, "processing channels", 0, "0.0"},
		{"third", 1, 3, "F1_a.png", 20, "33.3"},
		{"two thirds", 2, 3, "", 40, "66.7"},
		{"complete", 5, 5, "processed channels", 60, "100.0"},
		{"half rounds up to even", 1, 8, "x", 8, "12.5"},
		{"half rounds down to even", 1, 24, "x", 2, "4.2"},
		{"overflow clamps", 3, 2, "x", 60, "150.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := "[" + strings.Repeat("=", tt.filled) + strings.Repeat("-", 60-tt.filled) + "] " +
				tt.percent + "% ..." + tt.suffix
			assert.Equal(t, want, FormatProgress(tt.count, tt.total, tt.suffix))
		})
	}
}

func TestProgressOverwritesLine(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	c.Progress(1, 2, "F123_report.pdf")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b[K["), "line must start by clearing: %q", out)
	assert.True(t, strings.HasSuffix(out, "...F123_report.pdf\r"), "line must end with a carriage return: %q", out)
	assert.NotContains(t, out, "\n")
	assert.Contains(t, out, "50.0%")
}

func TestProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Progress(0, 0, "processing channels")
	assert.Empty(t, buf.String())
}

func TestPrintErrorAndDone(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	c.PrintError(errors.New("unexpected status code: 404"))
	c.Done()

	assert.Equal(t, "unexpected status code: 404\n\n", buf.String())
}
