// Package fetcher acquires raw listing records from rental portals. A
// source only gathers untyped field maps; all parsing belongs to the
// normalizer.
package fetcher

import (
	"context"

	"dsty-finder/internal/normalize"
)

// Source produces raw records for one refresh run.
type Source interface {
	Name() string
	FetchRaw(ctx context.Context) ([]normalize.RawRecord, error)
}
