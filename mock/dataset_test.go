package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/corpus"
	"github.com/fwojciec/corpus/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetStore_Persist(t *testing.T) {
	t.Parallel()

	t.Run("delegates to PersistFn", func(t *testing.T) {
		t.Parallel()

		var calledWith *corpus.Dataset
		s := &mock.DatasetStore{
			PersistFn: func(_ context.Context, ds *corpus.Dataset) error {
				calledWith = ds
				return nil
			},
		}

		ds, err := corpus.NewDataset(corpus.DefaultSchema(), []string{"URL"}, nil)
		require.NoError(t, err)

		require.NoError(t, s.Persist(context.Background(), ds))
		assert.Same(t, ds, calledWith)
	})
}
