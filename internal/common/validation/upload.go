// Package validation implements the upload gate applied before any file
// leaves the client. Pure functions of candidate + policy; no side effects.
package validation

import (
	"path/filepath"
	"strings"

	"marketing-studio/internal/common/errors"
)

// Candidate is a transient description of a user-selected file. A zero
// Candidate means "nothing selected", which is distinct from a rejection.
type Candidate struct {
	Name    string
	Size    int64
	Content []byte
}

// IsZero reports whether no file was selected at all.
func (c Candidate) IsZero() bool {
	return c.Name == "" && c.Size == 0 && len(c.Content) == 0
}

// Extension returns the lower-cased extension of the candidate, including the dot.
func (c Candidate) Extension() string {
	return strings.ToLower(filepath.Ext(c.Name))
}

// Policy describes what a call site accepts.
type Policy struct {
	AllowedExtensions []string
	MaxBytes          int64
}

// DefaultCSVPolicy is the upload policy for data files: .csv only, 10 MB cap.
func DefaultCSVPolicy() Policy {
	return Policy{
		AllowedExtensions: []string{".csv"},
		MaxBytes:          10 << 20,
	}
}

// Allows reports whether ext (with leading dot) is in the policy set.
func (p Policy) Allows(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range p.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// AcceptedFile is a candidate that passed validation and may be dispatched.
type AcceptedFile struct {
	Name    string
	Content []byte
}

// ValidateUpload gates a candidate against a policy. It returns the accepted
// file, or a StudioError with code FILE_TOO_LARGE, UNSUPPORTED_TYPE or
// EMPTY_INPUT. Size is checked before type so the user hears about the
// cheaper fix first.
func ValidateUpload(c Candidate, p Policy) (AcceptedFile, error) {
	if c.IsZero() {
		return AcceptedFile{}, errors.NewEmptyInputError("file")
	}

	size := c.Size
	if size == 0 {
		size = int64(len(c.Content))
	}
	if size > p.MaxBytes {
		return AcceptedFile{}, errors.NewFileTooLargeError(c.Name, size, p.MaxBytes)
	}

	if len(p.AllowedExtensions) > 0 && !p.Allows(c.Extension()) {
		return AcceptedFile{}, errors.NewUnsupportedTypeError(c.Name, c.Extension())
	}

	return AcceptedFile{Name: c.Name, Content: c.Content}, nil
}
