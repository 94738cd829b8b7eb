// Package security guards the daemon against trusting file content it
// didn't itself write — specifically the standard-library stubs directory,
// which an external cleaner process can delete and a concurrent process
// could, in principle, recreate with something other than Go source under
// the same path.
package security

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// FileValidator checks that a file on disk is plausibly Go source before
// the stub materializer (§4.7's resilience rule) reuses an
// externally-replaced stubs directory instead of re-materializing it.
type FileValidator struct {
	HeaderSize int64
}

// NewFileValidator creates a validator that reads up to 64KB of header.
func NewFileValidator() *FileValidator {
	return &FileValidator{HeaderSize: 64 * 1024}
}

// ValidateStubFile reads path's header and rejects it if it looks like
// binary data or carries none of the syntactic markers of a Go source file.
func (fv *FileValidator) ValidateStubFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open stub file: %w", err)
	}
	defer f.Close()

	header := make([]byte, fv.HeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("read stub file header: %w", err)
	}
	header = header[:n]

	if fv.isBinaryData(header) {
		return errors.New("stub file appears to be binary, not Go source")
	}
	return fv.validateGoFile(header)
}

// isBinaryData reports whether data is mostly non-printable bytes: control
// characters, or bytes that do not form valid UTF-8.
func (fv *FileValidator) isBinaryData(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	nonPrintable := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if (r == utf8.RuneError && size == 1) || r < 9 || (r > 13 && r < 32) || r == 127 {
			nonPrintable++
		}
		i += size
	}

	ratio := float64(nonPrintable) / float64(len(data))
	return ratio > 0.3
}

var goPatterns = [][]byte{
	[]byte("package "),
	[]byte("import ("),
	[]byte("func "),
	[]byte("type "),
	[]byte("var "),
	[]byte("const "),
	[]byte("//go:build"),
	[]byte("// +build"),
}

// validateGoFile checks header for any marker that distinguishes Go source
// from arbitrary text.
func (fv *FileValidator) validateGoFile(header []byte) error {
	for _, pattern := range goPatterns {
		if bytes.Contains(header, pattern) {
			return nil
		}
	}
	return errors.New("no Go source patterns found (package, import, func, type, ...)")
}
