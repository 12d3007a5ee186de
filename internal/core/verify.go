package core

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kraukis/substore/internal/store"
)

// Report summarizes a full-store integrity walk.
type Report struct {
	Blobs    int `json:"blobs"`
	Masters  int `json:"masters"`
	MaxDepth int `json:"max_depth"`
}

// Verify walks the ownership chain of every live blob and checks that each
// terminates at a master within the store-size bound. A failure means the
// ownership forest invariant is violated and the store contents should be
// treated as corrupt.
func Verify(ctx context.Context, st *store.Store) (*Report, error) {
	blobs := st.Snapshot()
	report := &Report{Blobs: len(blobs)}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, b := range blobs {
		b := b
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chain, err := st.Chain(b.ID)
			if err != nil {
				return fmt.Errorf("blob %s: %w", b.ID.Short(), err)
			}

			mu.Lock()
			if b.IsMaster() {
				report.Masters++
			}
			if len(chain) > report.MaxDepth {
				report.MaxDepth = len(chain)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
