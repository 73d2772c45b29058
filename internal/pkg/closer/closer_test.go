package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseRunsInReverseOrder(t *testing.T) {
	c := New(0)
	var order []string
	for _, name := range []string{"db", "redis", "http"} {
		name := name
		c.Add(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"http", "redis", "db"}, order)
}

func TestCloseCollectsErrorsAndContinues(t *testing.T) {
	c := New(0)
	closed := false
	c.Add("db", func(context.Context) error { closed = true; return nil })
	c.Add("kafka", func(context.Context) error { return errors.New("broker gone") })

	err := c.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka: broker gone")
	assert.True(t, closed)

	// second call returns the same result without running anything again
	assert.Equal(t, err, c.Close(context.Background()))
}

type plainCloser struct{ closed bool }

func (p *plainCloser) Close() error { p.closed = true; return nil }

func TestAddCloser(t *testing.T) {
	c := New(0)
	p := &plainCloser{}
	c.AddCloser("plain", p)
	require.NoError(t, c.Close(context.Background()))
	assert.True(t, p.closed)
}

func TestCloseForcesRemainingOnTimeout(t *testing.T) {
	c := New(500 * time.Millisecond)
	var mu sync.Mutex
	forced := false

	c.Add("db", func(ctx context.Context) error {
		mu.Lock()
		forced = true
		mu.Unlock()
		return nil
	})
	c.Add("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, forced)
}
