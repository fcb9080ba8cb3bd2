package todoapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/todolite/service/internal/app/items"
	"github.com/todolite/service/internal/contracts"
	"github.com/todolite/service/internal/platform/params"
)

var ErrItemIDRequired = errors.New("item_id is required")
var ErrFieldsRequired = errors.New("missing required fields: item_id, title, content")
var ErrQueueAddressMissing = errors.New("delete queue address is not configured")

// DefaultDeleteDelay keeps a deletion invisible to the worker long enough
// for in-flight requests against the item to settle.
const DefaultDeleteDelay = 10 * time.Second

type ItemStore interface {
	Put(ctx context.Context, item items.Item) error
	Get(ctx context.Context, itemID string) (items.Item, error)
	ScanAll(ctx context.Context) ([]items.Item, error)
	SetTitleContent(ctx context.Context, itemID, title, content string, at time.Time) error
	MarkDone(ctx context.Context, itemID string, at time.Time) error
	MarkArchived(ctx context.Context, itemID string, at time.Time) error
}

type ParamSource interface {
	Get(ctx context.Context, name string) (string, error)
}

type ArchiveStore interface {
	Put(ctx context.Context, key string, data []byte) error
	List(ctx context.Context) ([]string, error)
}

type PublishFunc func(subject string, payload []byte, delay time.Duration) error

type Service struct {
	Items       ItemStore
	Params      ParamSource
	Archives    ArchiveStore
	Publish     PublishFunc
	DeleteDelay time.Duration
	Now         func() time.Time
	NewID       func() string
}

func NewService(store ItemStore, paramSrc ParamSource, archives ArchiveStore, publish PublishFunc) *Service {
	return &Service{
		Items:       store,
		Params:      paramSrc,
		Archives:    archives,
		Publish:     publish,
		DeleteDelay: DefaultDeleteDelay,
		Now:         func() time.Time { return time.Now().UTC() },
		NewID:       uuid.NewString,
	}
}

func (s *Service) Create(ctx context.Context, title, content string) (items.Item, error) {
	item := items.Item{
		ItemID:    s.NewID(),
		Title:     title,
		Content:   content,
		CreatedAt: s.Now(),
	}
	if err := s.Items.Put(ctx, item); err != nil {
		return items.Item{}, fmt.Errorf("store item: %w", err)
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, itemID string) (items.Item, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return items.Item{}, ErrItemIDRequired
	}
	return s.Items.Get(ctx, itemID)
}

func (s *Service) Update(ctx context.Context, itemID, title, content string) error {
	if strings.TrimSpace(itemID) == "" || strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return ErrFieldsRequired
	}
	if err := s.Items.SetTitleContent(ctx, itemID, title, content, s.Now()); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (s *Service) Complete(ctx context.Context, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return ErrItemIDRequired
	}
	if err := s.Items.MarkDone(ctx, itemID, s.Now()); err != nil {
		return fmt.Errorf("mark item done: %w", err)
	}
	return nil
}

// Archive snapshots the item into the archive store, then flags it archived.
// Nothing is written to the archive store when the fetch fails.
func (s *Service) Archive(ctx context.Context, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return ErrItemIDRequired
	}
	item, err := s.Items.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("fetch item: %w", err)
	}
	data, err := archiveCSV(item, s.Now())
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}
	if err := s.Archives.Put(ctx, item.ItemID+".csv", data); err != nil {
		return fmt.Errorf("upload archive: %w", err)
	}
	if err := s.Items.MarkArchived(ctx, item.ItemID, s.Now()); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]items.Item, error) {
	return s.Items.ScanAll(ctx)
}

func (s *Service) ListArchives(ctx context.Context) ([]string, error) {
	return s.Archives.List(ctx)
}

// RequestDelete enqueues the item for asynchronous deletion. The item store
// is not touched here; the delete-queue worker finalizes the deletion.
func (s *Service) RequestDelete(ctx context.Context, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return ErrItemIDRequired
	}
	subject, err := s.Params.Get(ctx, contracts.DeleteQueueParam)
	if err != nil {
		if errors.Is(err, params.ErrParameterNotFound) {
			return ErrQueueAddressMissing
		}
		return fmt.Errorf("resolve delete queue subject: %w", err)
	}
	body, err := contracts.EncodeDeleteRequest(itemID)
	if err != nil {
		return fmt.Errorf("encode delete request: %w", err)
	}
	if err := s.Publish(subject, body, s.DeleteDelay); err != nil {
		return fmt.Errorf("enqueue delete request: %w", err)
	}
	return nil
}
