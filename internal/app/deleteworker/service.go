// Package deleteworker drains the delete queue and finalizes deletions by
// flagging items deleted in the item store.
package deleteworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/todolite/service/internal/contracts"
	"github.com/todolite/service/internal/messaging"
	"github.com/todolite/service/internal/platform/params"
)

var ErrQueueAddressMissing = errors.New("delete queue address is not configured")

const (
	DefaultBatchSize  = 10
	DefaultRetryDelay = 30 * time.Second
)

type ItemStore interface {
	MarkDeleted(ctx context.Context, itemID string, at time.Time) error
}

type ParamSource interface {
	Get(ctx context.Context, name string) (string, error)
}

type Queue interface {
	Fetch(ctx context.Context, subject string, max int) ([]messaging.Message, error)
}

type Service struct {
	Items      ItemStore
	Params     ParamSource
	Queue      Queue
	Logger     zerolog.Logger
	BatchSize  int
	RetryDelay time.Duration
	Now        func() time.Time
}

func NewService(store ItemStore, paramSrc ParamSource, queue Queue, logger zerolog.Logger) *Service {
	return &Service{
		Items:      store,
		Params:     paramSrc,
		Queue:      queue,
		Logger:     logger,
		BatchSize:  DefaultBatchSize,
		RetryDelay: DefaultRetryDelay,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce performs one worker invocation: resolve the queue subject, fetch a
// batch, and process it strictly in receipt order. A missing subject aborts
// the invocation before any message is touched. Per-message failures leave
// that message on the queue for redelivery and do not stop the batch.
func (s *Service) RunOnce(ctx context.Context) error {
	subject, err := s.Params.Get(ctx, contracts.DeleteQueueParam)
	if err != nil {
		if errors.Is(err, params.ErrParameterNotFound) {
			return ErrQueueAddressMissing
		}
		return fmt.Errorf("resolve delete queue subject: %w", err)
	}

	msgs, err := s.Queue.Fetch(ctx, subject, s.BatchSize)
	if err != nil {
		return fmt.Errorf("receive delete requests: %w", err)
	}
	if len(msgs) == 0 {
		s.Logger.Debug().Msg("no delete requests to process")
		return nil
	}

	for _, msg := range msgs {
		s.process(ctx, msg)
	}
	return nil
}

func (s *Service) process(ctx context.Context, msg messaging.Message) {
	if notBefore, ok := msg.NotBefore(); ok {
		if remaining := notBefore.Sub(s.Now()); remaining > 0 {
			// Delivered ahead of its enqueue delay; put it back until due.
			if err := msg.NakWithDelay(remaining); err != nil {
				s.Logger.Warn().Err(err).Msg("failed to defer early delete request")
			}
			return
		}
	}

	itemID, err := contracts.DecodeDeleteRequest(msg.Body())
	if err != nil {
		s.Logger.Warn().Err(err).Msg("discarding malformed delete request")
		if err := msg.Term(); err != nil {
			s.Logger.Warn().Err(err).Msg("failed to discard delete request")
		}
		return
	}

	// Unconditional update: absent and already-deleted items both no-op.
	if err := s.Items.MarkDeleted(ctx, itemID, s.Now()); err != nil {
		s.Logger.Error().Err(err).Str("item_id", itemID).Msg("failed to mark item deleted, leaving message for redelivery")
		if err := msg.NakWithDelay(s.RetryDelay); err != nil {
			s.Logger.Warn().Err(err).Str("item_id", itemID).Msg("failed to nak delete request")
		}
		return
	}

	if err := msg.Ack(); err != nil {
		// The store update stuck; redelivery will re-mark the item, which
		// is idempotent.
		s.Logger.Warn().Err(err).Str("item_id", itemID).Msg("failed to ack delete request")
		return
	}
	s.Logger.Info().Str("item_id", itemID).Msg("item marked deleted")
}
