package todoapi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/todolite/service/internal/app/items"
	"github.com/todolite/service/internal/contracts"
	"github.com/todolite/service/internal/platform/params"
)

type fakeItemStore struct {
	items map[string]items.Item

	putErr     error
	getErr     error
	updateErr  error
	scanErr    error
	doneIDs    []string
	archiveIDs []string
	updates    []string
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: map[string]items.Item{}}
}

func (f *fakeItemStore) Put(_ context.Context, item items.Item) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.items[item.ItemID] = item
	return nil
}

func (f *fakeItemStore) Get(_ context.Context, itemID string) (items.Item, error) {
	if f.getErr != nil {
		return items.Item{}, f.getErr
	}
	item, ok := f.items[itemID]
	if !ok {
		return items.Item{}, items.ErrNotFound
	}
	return item, nil
}

func (f *fakeItemStore) ScanAll(_ context.Context) ([]items.Item, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := make([]items.Item, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeItemStore) SetTitleContent(_ context.Context, itemID, title, content string, at time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, itemID)
	if item, ok := f.items[itemID]; ok {
		item.Title = title
		item.Content = content
		item.UpdatedAt = &at
		f.items[itemID] = item
	}
	return nil
}

func (f *fakeItemStore) MarkDone(_ context.Context, itemID string, at time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.doneIDs = append(f.doneIDs, itemID)
	if item, ok := f.items[itemID]; ok {
		item.IsDone = true
		item.UpdatedAt = &at
		f.items[itemID] = item
	}
	return nil
}

func (f *fakeItemStore) MarkArchived(_ context.Context, itemID string, at time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.archiveIDs = append(f.archiveIDs, itemID)
	if item, ok := f.items[itemID]; ok {
		item.IsArchived = true
		item.UpdatedAt = &at
		f.items[itemID] = item
	}
	return nil
}

type fakeParams struct {
	values map[string]string
	err    error
}

func (f *fakeParams) Get(_ context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	value, ok := f.values[name]
	if !ok {
		return "", params.ErrParameterNotFound
	}
	return value, nil
}

type fakeArchives struct {
	objects map[string][]byte
	putErr  error
	listErr error
}

func newFakeArchives() *fakeArchives {
	return &fakeArchives{objects: map[string][]byte{}}
}

func (f *fakeArchives) Put(_ context.Context, key string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeArchives) List(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		keys = append(keys, key)
	}
	return keys, nil
}

type publishCall struct {
	subject string
	payload []byte
	delay   time.Duration
}

func newServiceForTests(store *fakeItemStore, paramSrc *fakeParams, archives *fakeArchives, calls *[]publishCall) *Service {
	svc := NewService(store, paramSrc, archives, func(subject string, payload []byte, delay time.Duration) error {
		*calls = append(*calls, publishCall{subject: subject, payload: payload, delay: delay})
		return nil
	})
	svc.Now = func() time.Time { return time.Date(2026, 2, 9, 22, 0, 0, 0, time.UTC) }
	svc.NewID = func() string { return "item-1" }
	return svc
}

func TestCreate_AssignsIDAndDefaults(t *testing.T) {
	store := newFakeItemStore()
	var calls []publishCall
	svc := newServiceForTests(store, &fakeParams{}, newFakeArchives(), &calls)

	item, err := svc.Create(context.Background(), "T", "C")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if item.ItemID != "item-1" {
		t.Fatalf("unexpected item_id: %q", item.ItemID)
	}
	stored := store.items["item-1"]
	if stored.Title != "T" || stored.Content != "C" {
		t.Fatalf("unexpected stored item: %+v", stored)
	}
	if stored.IsDone || stored.IsArchived || stored.IsDeleted {
		t.Fatalf("new item should have all flags false: %+v", stored)
	}
	if stored.UpdatedAt != nil {
		t.Fatalf("new item should have updated_date unset")
	}
}

func TestGet_RequiresItemID(t *testing.T) {
	var calls []publishCall
	svc := newServiceForTests(newFakeItemStore(), &fakeParams{}, newFakeArchives(), &calls)

	if _, err := svc.Get(context.Background(), "   "); !errors.Is(err, ErrItemIDRequired) {
		t.Fatalf("expected ErrItemIDRequired, got %v", err)
	}
}

func TestUpdate_RequiresAllFields(t *testing.T) {
	store := newFakeItemStore()
	var calls []publishCall
	svc := newServiceForTests(store, &fakeParams{}, newFakeArchives(), &calls)

	for _, tc := range []struct{ id, title, content string }{
		{"", "t", "c"},
		{"id", "", "c"},
		{"id", "t", ""},
	} {
		if err := svc.Update(context.Background(), tc.id, tc.title, tc.content); !errors.Is(err, ErrFieldsRequired) {
			t.Fatalf("expected ErrFieldsRequired for %+v, got %v", tc, err)
		}
	}
	if len(store.updates) != 0 {
		t.Fatalf("invalid updates must not reach the store")
	}
}

func TestUpdate_AbsentItemIsNoOp(t *testing.T) {
	store := newFakeItemStore()
	var calls []publishCall
	svc := newServiceForTests(store, &fakeParams{}, newFakeArchives(), &calls)

	if err := svc.Update(context.Background(), "ghost", "t", "c"); err != nil {
		t.Fatalf("update of absent item must succeed, got %v", err)
	}
}

func TestRequestDelete_PublishesQuotedIDWithDelay(t *testing.T) {
	store := newFakeItemStore()
	paramSrc := &fakeParams{values: map[string]string{contracts.DeleteQueueParam: "todo.delete.requests"}}
	var calls []publishCall
	svc := newServiceForTests(store, paramSrc, newFakeArchives(), &calls)
	svc.DeleteDelay = 10 * time.Second

	if err := svc.RequestDelete(context.Background(), "item-9"); err != nil {
		t.Fatalf("RequestDelete returned error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one publish, got %d", len(calls))
	}
	call := calls[0]
	if call.subject != "todo.delete.requests" {
		t.Fatalf("unexpected subject: %q", call.subject)
	}
	if string(call.payload) != `"item-9"` {
		t.Fatalf("body must be the JSON-quoted item id, got %s", call.payload)
	}
	if call.delay != 10*time.Second {
		t.Fatalf("unexpected delay: %s", call.delay)
	}
	if len(store.items) != 0 {
		t.Fatalf("mark-delete must not touch the item store")
	}
}

func TestRequestDelete_RequiresItemID(t *testing.T) {
	var calls []publishCall
	svc := newServiceForTests(newFakeItemStore(), &fakeParams{}, newFakeArchives(), &calls)

	if err := svc.RequestDelete(context.Background(), "  "); !errors.Is(err, ErrItemIDRequired) {
		t.Fatalf("expected ErrItemIDRequired, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("validation failure must have no side effects")
	}
}

func TestRequestDelete_QueueAddressMissing(t *testing.T) {
	var calls []publishCall
	svc := newServiceForTests(newFakeItemStore(), &fakeParams{}, newFakeArchives(), &calls)

	if err := svc.RequestDelete(context.Background(), "item-9"); !errors.Is(err, ErrQueueAddressMissing) {
		t.Fatalf("expected ErrQueueAddressMissing, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("no message may be sent when the queue address is missing")
	}
}

func TestRequestDelete_PublishFailure(t *testing.T) {
	paramSrc := &fakeParams{values: map[string]string{contracts.DeleteQueueParam: "todo.delete.requests"}}
	wantErr := errors.New("nats down")
	svc := NewService(newFakeItemStore(), paramSrc, newFakeArchives(), func(string, []byte, time.Duration) error {
		return wantErr
	})

	err := svc.RequestDelete(context.Background(), "item-9")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
}

func TestArchive_FetchFailureSkipsUpload(t *testing.T) {
	store := newFakeItemStore()
	store.getErr = errors.New("store unavailable")
	archives := newFakeArchives()
	var calls []publishCall
	svc := newServiceForTests(store, &fakeParams{}, archives, &calls)

	if err := svc.Archive(context.Background(), "item-1"); err == nil {
		t.Fatal("expected error when the item fetch fails")
	}
	if len(archives.objects) != 0 {
		t.Fatalf("nothing may be written to the archive store on fetch failure")
	}
}

func TestArchive_WritesCSVThenFlags(t *testing.T) {
	store := newFakeItemStore()
	store.items["item-1"] = items.Item{
		ItemID:    "item-1",
		Title:     "T",
		Content:   "C",
		CreatedAt: time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC),
	}
	archives := newFakeArchives()
	var calls []publishCall
	svc := newServiceForTests(store, &fakeParams{}, archives, &calls)

	if err := svc.Archive(context.Background(), "item-1"); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	data, ok := archives.objects["item-1.csv"]
	if !ok {
		t.Fatalf("expected archive object item-1.csv, have %v", archives.objects)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "Item Id,Title,Content,Created,Updated,Archived,Deleted,Complete,Archived Date" {
		t.Fatalf("unexpected CSV header: %q", lines[0])
	}
	if len(store.archiveIDs) != 1 || store.archiveIDs[0] != "item-1" {
		t.Fatalf("item was not flagged archived: %v", store.archiveIDs)
	}
}

func TestArchive_UploadFailureSkipsFlag(t *testing.T) {
	store := newFakeItemStore()
	store.items["item-1"] = items.Item{ItemID: "item-1", CreatedAt: time.Now().UTC()}
	archives := newFakeArchives()
	archives.putErr = errors.New("bucket unavailable")
	var calls []publishCall
	svc := newServiceForTests(store, &fakeParams{}, archives, &calls)

	if err := svc.Archive(context.Background(), "item-1"); err == nil {
		t.Fatal("expected error when the archive upload fails")
	}
	if len(store.archiveIDs) != 0 {
		t.Fatalf("item must not be flagged archived after a failed upload")
	}
}
