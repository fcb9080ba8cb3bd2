package todoapi

import (
	"testing"
	"time"

	"github.com/todolite/service/internal/app/items"
)

func TestArchiveCSV_Row(t *testing.T) {
	updated := time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)
	item := items.Item{
		ItemID:    "item-1",
		Title:     "T",
		Content:   "C",
		CreatedAt: time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC),
		UpdatedAt: &updated,
		IsDone:    true,
	}
	data, err := archiveCSV(item, time.Date(2026, 2, 9, 22, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("archiveCSV failed: %v", err)
	}
	want := "Item Id,Title,Content,Created,Updated,Archived,Deleted,Complete,Archived Date\n" +
		"item-1,T,C,01-02-2026 08:30:00,05-02-2026 09:00:00,true,false,true,09-02-2026 22:00:00\n"
	if string(data) != want {
		t.Fatalf("unexpected CSV:\n%s\nwant:\n%s", data, want)
	}
}
