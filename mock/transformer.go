package mock

import (
	"context"

	"github.com/fwojciec/corpus"
)

var _ corpus.Transformer = (*Transformer)(nil)

// Transformer is a mock implementation of corpus.Transformer.
type Transformer struct {
	TransformFn func(ctx context.Context, req corpus.TransformRequest) (string, error)
}

func (t *Transformer) Transform(ctx context.Context, req corpus.TransformRequest) (string, error) {
	return t.TransformFn(ctx, req)
}
