// Package closer shuts resources down in reverse registration order.
package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const defaultForcedTimeout = 2 * time.Second

// Func closes one resource
type Func func(ctx context.Context) error

type entry struct {
	name string
	fn   Func
}

// Closer runs registered close functions LIFO. When the context expires
// before all of them returned, the rest are closed concurrently with their
// own short deadline.
type Closer struct {
	entries       []entry
	mu            sync.Mutex
	once          sync.Once
	forcedTimeout time.Duration
	err           error
}

func New(forcedTimeout time.Duration) *Closer {
	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}
	return &Closer{forcedTimeout: forcedTimeout}
}

func (c *Closer) Add(name string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry{name: name, fn: fn})
}

// AddCloser registers anything with a plain Close method.
func (c *Closer) AddCloser(name string, cl interface{ Close() error }) {
	c.Add(name, func(context.Context) error { return cl.Close() })
}

// Close is safe to call more than once; later calls return the first result.
func (c *Closer) Close(ctx context.Context) error {
	c.once.Do(func() {
		c.mu.Lock()
		entries := c.entries
		c.mu.Unlock()

		stopIdx, errs := c.graceful(ctx, entries)
		if stopIdx >= 0 {
			errs = append(errs, c.forced(entries[:stopIdx+1])...)
			errs = append([]error{fmt.Errorf("shutdown interrupted after %d/%d resources: %w",
				len(entries)-1-stopIdx, len(entries), ctx.Err())}, errs...)
		}
		c.err = errors.Join(errs...)
	})
	return c.err
}

// graceful returns -1 when every function finished, otherwise the index of
// the one still running when ctx expired.
func (c *Closer) graceful(ctx context.Context, entries []entry) (int, []error) {
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		done := make(chan error, 1)
		go func() { done <- e.fn(ctx) }()

		select {
		case err := <-done:
			if err != nil {
				log.Errorf("[Shutdown] closing %s: %v", e.name, err)
				errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
				continue
			}
			log.Infof("[Shutdown] %s closed", e.name)
		case <-ctx.Done():
			return i, errs
		}
	}
	return -1, errs
}

func (c *Closer) forced(entries []entry) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, e := range entries {
		e := e
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s (forced): %w", e.name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errs
}
