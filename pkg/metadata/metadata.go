// Package metadata fetches product metadata for catalog identifiers from the
// remote store pages.
package metadata

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Metadata is everything the remote store knows about one identifier.
type Metadata struct {
	Identifier string
	Title      string
	Publisher  string
	Categories []string
	Genres     []string
	ImageURLs  []string
	Rating     float64
}

// Source fetches metadata for an identifier. Implementations must be safe for
// concurrent use.
type Source interface {
	Fetch(ctx context.Context, code string) (*Metadata, error)
}

// ErrUnsupportedIdentifier is returned when the identifier's prefix has no
// registered backend.
var ErrUnsupportedIdentifier = errors.New("unsupported identifier prefix")

// NetworkError wraps transport failures and non-2xx responses. Fatal to the
// enrichment of one folder, never to a scan run.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError means a mandatory field was missing from the remote page.
type ParseError struct {
	Field string
	URL   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("missing %s in %s", e.Field, e.URL)
}
