package port

import (
	"context"
	"testing"
)

type collect struct{ got []string }

func (c *collect) Send(_ context.Context, m Message) { c.got = append(c.got, m.TitleKey) }

func TestOutbox_FlushInOrder(t *testing.T) {
	ctx := context.Background()
	var o Outbox
	o.Send(ctx, Message{TitleKey: "a"})
	o.Send(ctx, Message{TitleKey: "b"})
	if o.Len() != 2 {
		t.Fatalf("Len = %d", o.Len())
	}

	c := &collect{}
	o.Flush(ctx, c)
	if len(c.got) != 2 || c.got[0] != "a" || c.got[1] != "b" {
		t.Fatalf("flushed %v", c.got)
	}
	if o.Len() != 0 {
		t.Fatalf("outbox not emptied")
	}
}

func TestOutbox_Discard(t *testing.T) {
	ctx := context.Background()
	var o Outbox
	o.Send(ctx, Message{TitleKey: "a"})
	o.Discard()

	c := &collect{}
	o.Flush(ctx, c)
	if len(c.got) != 0 {
		t.Fatalf("discarded message delivered: %v", c.got)
	}
}
