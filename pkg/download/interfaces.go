//go:generate mockgen -destination=./mocks/download.go . Syncer
package download

import (
	"context"

	"github.com/hydromet/meteosat/pkg/product"
)

// Syncer copies a single remote object to a local path through an external
// synchronization tool.
type Syncer interface {
	// Sync copies remote to dest. dest is overwritten if it exists.
	Sync(ctx context.Context, remote, dest string) error
}

// Result describes a completed download.
type Result struct {
	Path     string           // final location, equal to the requested outPath
	Source   string           // URL or remote path the bytes came from
	Strategy product.Strategy // how the bytes were retrieved
	Bytes    int64            // size of the file at Path
}
