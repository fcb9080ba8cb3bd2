package todoapi

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/todolite/service/internal/app/items"
	"github.com/todolite/service/internal/contracts"
)

var archiveHeader = []string{
	"Item Id", "Title", "Content", "Created", "Updated",
	"Archived", "Deleted", "Complete", "Archived Date",
}

// archiveCSV renders a single-row CSV snapshot of the item as it stood at
// archive time. The Archived column is true by definition here.
func archiveCSV(item items.Item, archivedAt time.Time) ([]byte, error) {
	updated := ""
	if item.UpdatedAt != nil {
		updated = contracts.FormatTimestamp(*item.UpdatedAt)
	}
	row := []string{
		item.ItemID,
		item.Title,
		item.Content,
		contracts.FormatTimestamp(item.CreatedAt),
		updated,
		"true",
		strconv.FormatBool(item.IsDeleted),
		strconv.FormatBool(item.IsDone),
		contracts.FormatTimestamp(archivedAt),
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{archiveHeader, row}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
