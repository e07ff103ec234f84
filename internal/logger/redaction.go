package logger

import (
	"io"
	"regexp"
)

const redacted = "[REDACTED]"

// Redactor scrubs session identifiers and credentials from log lines.
type Redactor struct {
	patterns []*regexp.Regexp
	userinfo *regexp.Regexp
}

// NewRedactor returns a redactor with the default patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*regexp.Regexp{
			// signed session identifiers, raw or percent-encoded
			regexp.MustCompile(`s(?::|%3A|%3a)[A-Za-z0-9_-]+\.[A-Za-z0-9+/_-]+`),
			regexp.MustCompile(`(?i)(secret|password|passwd)(["\s:=]+)[^\s",}]+`),
			regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]+`),
		},
		userinfo: regexp.MustCompile(`([a-z][a-z0-9+.-]*://)[^@/\s"]+@`),
	}
}

// AddPattern adds a custom pattern.
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.patterns = append(r.patterns, re)
	return nil
}

// Redact returns s with sensitive substrings replaced.
func (r *Redactor) Redact(s string) string {
	out := r.userinfo.ReplaceAllString(s, "${1}"+redacted+"@")
	for _, re := range r.patterns {
		out = re.ReplaceAllString(out, redacted)
	}
	return out
}

// Wrap returns a writer that redacts before forwarding to w.
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{writer: w, redactor: r}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

// Write reports len(p) on success so callers never see a short write.
func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := w.writer.Write([]byte(w.redactor.Redact(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
