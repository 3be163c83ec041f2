package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster(t *testing.T) {
	t.Run("Delivers in subscription order", func(t *testing.T) {
		var b Broadcaster[int]
		var got []string

		b.Subscribe(func(v int) { got = append(got, "first") })
		b.Subscribe(func(v int) { got = append(got, "second") })

		b.Publish(1)

		assert.Equal(t, []string{"first", "second"}, got)
	})

	t.Run("Unsubscribe stops delivery", func(t *testing.T) {
		var b Broadcaster[int]
		calls := 0

		cancel := b.Subscribe(func(int) { calls++ })
		b.Publish(1)
		cancel()
		b.Publish(2)
		cancel()

		assert.Equal(t, 1, calls)
	})

	t.Run("Publishing from a subscriber is queued, not nested", func(t *testing.T) {
		var b Broadcaster[int]
		var trace []string

		b.Subscribe(func(v int) {
			trace = append(trace, "a-start")
			if v == 1 {
				b.Publish(2)
			}
			trace = append(trace, "a-end")
		})
		b.Subscribe(func(v int) {
			if v == 1 {
				trace = append(trace, "b1")
			} else {
				trace = append(trace, "b2")
			}
		})

		b.Publish(1)

		assert.Equal(t, []string{"a-start", "a-end", "b1", "a-start", "a-end", "b2"}, trace)
	})
}
