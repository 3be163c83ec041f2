package services

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Broadcaster delivers events to subscribers synchronously, in subscription
// order. An event published from inside a subscriber is queued and delivered
// once the current delivery is over, never nested.
type Broadcaster[T any] struct {
	subs       []subscriber[T]
	nextID     int
	pending    []T
	publishing bool
}

func (b *Broadcaster[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber[T]{id: id, fn: fn})

	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Broadcaster[T]) Publish(event T) {
	b.pending = append(b.pending, event)
	if b.publishing {
		return
	}

	b.publishing = true
	defer func() { b.publishing = false }()

	for len(b.pending) > 0 {
		ev := b.pending[0]
		b.pending = b.pending[1:]

		subs := append([]subscriber[T](nil), b.subs...)
		for _, s := range subs {
			s.fn(ev)
		}
	}
}
