package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_Do(t *testing.T) {
	t.Run("Success: Jobs run one at a time", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		loop := NewLoop(16, nil)
		loop.Start(ctx)

		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := loop.Do(ctx, func(context.Context) error {
					counter++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, counter)
	})

	t.Run("Success: Error is returned to the caller", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		loop := NewLoop(1, nil)
		loop.Start(ctx)

		boom := errors.New("boom")
		err := loop.Do(ctx, func(context.Context) error { return boom })

		assert.ErrorIs(t, err, boom)
	})

	t.Run("Success: Panic becomes an error and the loop survives", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		loop := NewLoop(1, nil)
		loop.Start(ctx)

		err := loop.Do(ctx, func(context.Context) error { panic("bad index") })
		assert.ErrorContains(t, err, "bad index")

		err = loop.Do(ctx, func(context.Context) error { return nil })
		assert.NoError(t, err)
	})

	t.Run("Fail: Stopped loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		loop := NewLoop(0, nil)
		loop.Start(ctx)
		cancel()

		require.Eventually(t, func() bool {
			select {
			case <-loop.done:
				return true
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)

		err := loop.Do(context.Background(), func(context.Context) error { return nil })
		assert.ErrorIs(t, err, ErrLoopStopped)
		assert.False(t, loop.Post(func(context.Context) error { return nil }))
	})

	t.Run("Fail: Caller context expires", func(t *testing.T) {
		loop := NewLoop(0, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := loop.Do(ctx, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestLoop_Post(t *testing.T) {
	t.Run("Fail: Full queue drops the job", func(t *testing.T) {
		loop := NewLoop(1, nil)

		assert.True(t, loop.Post(func(context.Context) error { return nil }))
		assert.False(t, loop.Post(func(context.Context) error { return nil }))
	})

	t.Run("Success: Posted jobs run before later ones", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		loop := NewLoop(4, nil)
		var order []string
		loop.Post(func(context.Context) error { order = append(order, "posted"); return nil })
		loop.Start(ctx)

		err := loop.Do(ctx, func(context.Context) error { order = append(order, "done"); return nil })

		require.NoError(t, err)
		assert.Equal(t, []string{"posted", "done"}, order)
	})
}
