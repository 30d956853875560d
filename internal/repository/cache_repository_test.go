package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
)

type cacheObserverStub struct {
	hits   int
	misses int
}

func (o *cacheObserverStub) RecordCacheOperation(hit bool, duration time.Duration) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func TestCacheRepositoryDegradedModeRecordsMisses(t *testing.T) {
	observer := &cacheObserverStub{}
	repo := NewCacheRepository(nil, zap.NewNop()).WithObserver(observer)

	var dest []string
	err := repo.Get(context.Background(), "exam-slots:1:final", &dest)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Equal(t, 1, observer.misses)
	assert.Zero(t, observer.hits)

	// Writes and invalidation are silent no-ops without a client.
	require.NoError(t, repo.Set(context.Background(), "exam-slots:1:final", []string{"MATH101"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(context.Background(), "exam-slots:1:*"))
	assert.Equal(t, 1, observer.misses)
}

func TestCacheRepositoryWithoutObserver(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())

	var dest []string
	err := repo.Get(context.Background(), "seat-plan:11", &dest)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
}
