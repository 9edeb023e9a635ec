package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultPreviewSize bounds how much untrusted input is echoed into logs
const DefaultPreviewSize = 64

// TextProcessor prepares untrusted input for logging and line parsing
type TextProcessor struct {
	logger      *zap.Logger
	previewSize int
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger, previewSize int) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if previewSize <= 0 {
		previewSize = DefaultPreviewSize
	}
	return &TextProcessor{
		logger:      logger,
		previewSize: previewSize,
	}
}

// TruncateText truncates text to at most maxSize bytes, never splitting a
// UTF-8 sequence
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	return truncated + "..."
}

// SanitizeUTF8 drops invalid UTF-8 bytes and control characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	clean := true
	for _, r := range text {
		if r == utf8.RuneError || unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				continue
			}
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Preview returns a short, log-safe rendition of untrusted input
func (tp *TextProcessor) Preview(text string) string {
	return tp.TruncateText(tp.SanitizeUTF8(text), tp.previewSize)
}

// ParseLine extracts an address candidate from one line of list input.
// Blank lines and lines starting with '#' yield ok == false.
func (tp *TextProcessor) ParseLine(line string) (string, bool) {
	line = strings.TrimPrefix(line, "\uFEFF")
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}

	// CSV-style input keeps only the first column
	if idx := strings.IndexAny(line, ",;\t"); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	line = strings.Trim(line, `"'`)

	if !utf8.ValidString(line) {
		tp.logger.Debug("Dropping invalid UTF-8 from input line", zap.String("line", tp.Preview(line)))
		line = tp.SanitizeUTF8(line)
	}
	return line, true
}
