package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldSuppressHeader(t *testing.T) {
	assert.False(t, shouldSuppressHeader(context.Background()))
	assert.True(t, shouldSuppressHeader(WithSuppressHeader(context.Background())))

	// A foreign value under the same key type is ignored.
	ctx := context.WithValue(context.Background(), suppressHeaderKey, "yes")
	assert.False(t, shouldSuppressHeader(ctx))
}

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			assert.True(t, shouldSuppressHeader(ctx), "Goroutine %d: shouldSuppressHeader should be true", i)
		})
	}
	wg.Wait()
}
