package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nuid"
)

const (
	DeleteStream = "TODO_DELETES"

	// DefaultDeleteSubject is the subject stored in the parameter store
	// unless operations override it. It must match the stream's subject
	// filter below.
	DefaultDeleteSubject = "todo.delete.requests"

	// NotBeforeHeader carries the enqueue delay: consumers defer any
	// message seen before this RFC3339 instant.
	NotBeforeHeader = "Todo-Not-Before"
)

// EnsureDeleteStream creates (or validates) the delete request stream.
func EnsureDeleteStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(DeleteStream); err != nil {
		if errors.Is(err, nats.ErrStreamNotFound) {
			_, addErr := js.AddStream(&nats.StreamConfig{
				Name:      DeleteStream,
				Subjects:  []string{"todo.delete.>"},
				Retention: nats.WorkQueuePolicy,
				Storage:   nats.FileStorage,
				Replicas:  1,
			})
			return addErr
		}
		return err
	}
	return nil
}

// Message is one delivery of a queued delete request. Ack removes it from
// the queue; NakWithDelay schedules redelivery; Term discards a poison
// message permanently.
type Message interface {
	Body() []byte
	NotBefore() (time.Time, bool)
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

type jsMessage struct {
	msg *nats.Msg
}

func (m jsMessage) Body() []byte { return m.msg.Data }

func (m jsMessage) NotBefore() (time.Time, bool) {
	raw := m.msg.Header.Get(NotBeforeHeader)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m jsMessage) Ack() error { return m.msg.Ack() }

func (m jsMessage) NakWithDelay(delay time.Duration) error { return m.msg.NakWithDelay(delay) }

func (m jsMessage) Term() error { return m.msg.Term() }

// DelayPublisher publishes queue messages with a visibility delay, expressed
// as a not-before header honored by the consumer. Each message carries a
// fresh NUID for JetStream deduplication.
type DelayPublisher struct {
	JS    nats.JetStreamContext
	Now   func() time.Time
	NewID func() string
}

func NewDelayPublisher(js nats.JetStreamContext) *DelayPublisher {
	return &DelayPublisher{
		JS:    js,
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: nuid.Next,
	}
}

func (p *DelayPublisher) Publish(subject string, payload []byte, delay time.Duration) error {
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, p.NewID())
	if delay > 0 {
		msg.Header.Set(NotBeforeHeader, p.Now().Add(delay).Format(time.RFC3339))
	}
	_, err := p.JS.PublishMsg(msg)
	return err
}

// PullQueue fetches delete requests in batches through a durable pull
// consumer. AckWait acts as the visibility timeout: an unacked message is
// redelivered once it elapses.
type PullQueue struct {
	JS      nats.JetStreamContext
	Durable string
	AckWait time.Duration
	MaxWait time.Duration

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

func NewPullQueue(js nats.JetStreamContext, durable string, ackWait time.Duration) *PullQueue {
	return &PullQueue{
		JS:      js,
		Durable: durable,
		AckWait: ackWait,
		MaxWait: 2 * time.Second,
		subs:    map[string]*nats.Subscription{},
	}
}

func (q *PullQueue) subscription(subject string) (*nats.Subscription, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if sub, ok := q.subs[subject]; ok {
		return sub, nil
	}
	sub, err := q.JS.PullSubscribe(subject, q.Durable,
		nats.BindStream(DeleteStream),
		nats.AckWait(q.AckWait),
	)
	if err != nil {
		return nil, err
	}
	q.subs[subject] = sub
	return sub, nil
}

func (q *PullQueue) Fetch(ctx context.Context, subject string, max int) ([]Message, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	sub, err := q.subscription(subject)
	if err != nil {
		return nil, err
	}
	// Bound the wait by MaxWait while still honoring the caller's
	// cancellation and deadline.
	fetchCtx, cancel := context.WithTimeout(ctx, q.MaxWait)
	defer cancel()
	msgs, err := sub.Fetch(max, nats.Context(fetchCtx))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, jsMessage{msg: msg})
	}
	return out, nil
}
