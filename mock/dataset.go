package mock

import (
	"context"

	"github.com/fwojciec/corpus"
)

var _ corpus.DatasetStore = (*DatasetStore)(nil)

// DatasetStore is a mock implementation of corpus.DatasetStore.
type DatasetStore struct {
	LoadFn    func(ctx context.Context) (*corpus.Dataset, error)
	PersistFn func(ctx context.Context, ds *corpus.Dataset) error
}

func (s *DatasetStore) Load(ctx context.Context) (*corpus.Dataset, error) {
	return s.LoadFn(ctx)
}

func (s *DatasetStore) Persist(ctx context.Context, ds *corpus.Dataset) error {
	return s.PersistFn(ctx, ds)
}
