package messaging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func TestDefaultDeleteSubjectMatchesStreamFilter(t *testing.T) {
	// The seeded default must land inside the delete stream's subject
	// space, or published delete requests would never be stored.
	if !strings.HasPrefix(DefaultDeleteSubject, "todo.delete.") {
		t.Fatalf("default subject %q is outside the todo.delete.> filter", DefaultDeleteSubject)
	}
}

func TestPullQueue_FetchHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled invocation must return before touching JetStream at
	// all; a nil context would panic here otherwise.
	q := NewPullQueue(nil, "delete-worker", time.Second)
	msgs, err := q.Fetch(ctx, DefaultDeleteSubject, 10)
	if err != nil {
		t.Fatalf("cancelled fetch must be a silent no-op, got %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("cancelled fetch must return no messages, got %d", len(msgs))
	}
}

func TestJSMessage_NotBefore(t *testing.T) {
	raw := nats.NewMsg("todo.delete.requests")
	raw.Data = []byte(`"item-1"`)

	msg := jsMessage{msg: raw}
	if _, ok := msg.NotBefore(); ok {
		t.Fatal("message without header must report no not-before")
	}

	at := time.Date(2026, 2, 9, 22, 0, 10, 0, time.UTC)
	raw.Header.Set(NotBeforeHeader, at.Format(time.RFC3339))
	got, ok := msg.NotBefore()
	if !ok || !got.Equal(at) {
		t.Fatalf("unexpected not-before: %v %v", got, ok)
	}

	raw.Header.Set(NotBeforeHeader, "yesterday")
	if _, ok := msg.NotBefore(); ok {
		t.Fatal("unparseable header must be ignored")
	}
}
