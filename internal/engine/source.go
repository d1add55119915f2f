package engine

import (
	"context"
	"iter"

	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// SliceSource replays an in-memory candle slice.
type SliceSource []types.Candle

// Candles yields the slice in order and stops early once ctx is done.
func (s SliceSource) Candles(ctx context.Context) iter.Seq2[types.Candle, error] {
	return func(yield func(types.Candle, error) bool) {
		for _, c := range s {
			if ctx.Err() != nil {
				return
			}

			if !yield(c, nil) {
				return
			}
		}
	}
}
