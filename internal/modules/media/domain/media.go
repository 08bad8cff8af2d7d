package domain

import (
	"fmt"
	"strings"
)

// Media is a downloaded attachment payload
type Media struct {
	URL         string
	Data        []byte
	Extension   string
	ContentType string
}

// Filename builds a display name for uploads. The extension is taken from
// the source URL and is not validated against the payload.
func (m *Media) Filename(base string) string {
	if m.Extension == "" {
		return base
	}
	return fmt.Sprintf("%s.%s", base, strings.TrimPrefix(m.Extension, "."))
}

// FetchError reports a failed download and the HTTP status when one was received
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
