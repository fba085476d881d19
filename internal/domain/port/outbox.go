package port

import "context"

// Outbox buffers messages raised inside a transaction so they are only
// delivered once the transaction has committed.
type Outbox struct{ pending []Message }

func (o *Outbox) Send(_ context.Context, m Message) { o.pending = append(o.pending, m) }

// Flush hands every buffered message to n, in order, and empties the box.
func (o *Outbox) Flush(ctx context.Context, n Notifier) {
	if n == nil {
		o.pending = nil
		return
	}
	for _, m := range o.pending {
		n.Send(ctx, m)
	}
	o.pending = nil
}

// Discard drops buffered messages after a rollback.
func (o *Outbox) Discard() { o.pending = nil }

func (o *Outbox) Len() int { return len(o.pending) }
