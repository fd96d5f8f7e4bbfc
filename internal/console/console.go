// Package console renders the single overwritable progress line and the
// error lines that interrupt it.
package console

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	barWidth  = 60
	clearLine = "\x1b[K"
)

// Console writes progress and error output to an injected writer.
type Console struct {
	w io.Writer
}

// New returns a Console writing to w.
func New(w io.Writer) *Console {
	return &Console{w: w}
}

// Progress erases the current line and draws
//
//	[=====-----] 12.5% ...suffix
//
// terminated by a carriage return so the next call overwrites it.
// A non-positive total draws nothing.
func (c *Console) Progress(count, total int, suffix string) {
	if total <= 0 {
		return
	}
	fmt.Fprint(c.w, clearLine+FormatProgress(count, total, suffix)+"\r")
}

// PrintError writes err on its own line, breaking the progress display until
// the next Progress call.
func (c *Console) PrintError(err error) {
	fmt.Fprintln(c.w, err)
}

// Done ends the progress line so later output starts on a fresh line.
func (c *Console) Done() {
	fmt.Fprintln(c.w)
}

// FormatProgress returns the progress line without control sequences.
func FormatProgress(count, total int, suffix string) string {
	filled := int(math.RoundToEven(float64(barWidth*count) / float64(total)))
	filled = max(0, min(barWidth, filled))

	percent := strconv.FormatFloat(float64(100*count)/float64(total), 'f', 1, 64)
	bar := strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled)

	return fmt.Sprintf("[%s] %s%% ...%s", bar, percent, suffix)
}
