// Package render formats run summaries and history for the terminal, as
// plain text, colored text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Writer emits the indented block layout shared by the history views:
// an upper-case header, labelled fields, items and tree children.
type Writer struct {
	out io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{out: w} }

func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Header prints an upper-cased title followed by a blank line.
func (w *Writer) Header(format string, args ...any) {
	fmt.Fprintf(w.out, "%s\n\n", strings.ToUpper(fmt.Sprintf(format, args...)))
}

// Section starts a titled block after a blank line.
func (w *Writer) Section(title string) {
	fmt.Fprintf(w.out, "\n%s:\n", strings.ToUpper(title))
}

// Field prints "  label:  value" with values aligned at column 14.
func (w *Writer) Field(label, format string, args ...any) {
	fmt.Fprintf(w.out, "  %-12s%s\n", label+":", fmt.Sprintf(format, args...))
}

func (w *Writer) Item(format string, args ...any) {
	fmt.Fprintf(w.out, "  %s\n", fmt.Sprintf(format, args...))
}

// Nested prints a child of the preceding item.
func (w *Writer) Nested(format string, args ...any) {
	fmt.Fprintf(w.out, "    └─ %s\n", fmt.Sprintf(format, args...))
}

func (w *Writer) Empty(msg string) { fmt.Fprintln(w.out, msg) }

// JSON writes v indented by two spaces.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// IsTerminal reports whether f is a TTY; output defaults to pretty then.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// StatusIcon maps run statuses and calculation outcomes to a mark.
func StatusIcon(status string) string {
	switch status {
	case "ok", "matched":
		return "✓"
	case "error", "mismatched":
		return "✗"
	case "skipped":
		return "○"
	}
	return "•"
}

// Truncate cuts s to at most n runes, ending in "..." when there is room.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
