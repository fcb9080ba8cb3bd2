// Package items holds the to-do item model and its Postgres repository.
package items

import (
	"time"

	"github.com/todolite/service/internal/contracts"
)

type Item struct {
	ItemID     string
	Title      string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	IsDone     bool
	IsArchived bool
	IsDeleted  bool
}

// View is the JSON shape of an item. Timestamps are rendered in the legacy
// string layout only at this boundary.
type View struct {
	ItemID      string  `json:"item_id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	CreatedDate string  `json:"created_date"`
	UpdatedDate *string `json:"updated_date"`
	IsDone      bool    `json:"is_done"`
	IsArchived  bool    `json:"is_archived"`
	IsDeleted   bool    `json:"is_deleted"`
}

func (i Item) View() View {
	v := View{
		ItemID:      i.ItemID,
		Title:       i.Title,
		Content:     i.Content,
		CreatedDate: contracts.FormatTimestamp(i.CreatedAt),
		IsDone:      i.IsDone,
		IsArchived:  i.IsArchived,
		IsDeleted:   i.IsDeleted,
	}
	if i.UpdatedAt != nil {
		updated := contracts.FormatTimestamp(*i.UpdatedAt)
		v.UpdatedDate = &updated
	}
	return v
}
