package contracts

import (
	"encoding/json"
	"errors"
	"time"
)

// TimestampLayout is the legacy persisted timestamp format (DD-MM-YYYY HH:MM:SS).
// Existing rows and archives use it, so it must not change.
const TimestampLayout = "02-01-2006 15:04:05"

// DeleteQueueParam is the parameter-store key holding the delete queue subject.
const DeleteQueueParam = "/todolist/deletequeue/subject"

var ErrInvalidDeleteRequest = errors.New("invalid delete request body")

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// EncodeDeleteRequest renders the queue message body: the item ID as a
// JSON-quoted string.
func EncodeDeleteRequest(itemID string) ([]byte, error) {
	return json.Marshal(itemID)
}

func DecodeDeleteRequest(body []byte) (string, error) {
	var itemID string
	if err := json.Unmarshal(body, &itemID); err != nil {
		return "", ErrInvalidDeleteRequest
	}
	if itemID == "" {
		return "", ErrInvalidDeleteRequest
	}
	return itemID, nil
}
