package contracts

import (
	"errors"
	"testing"
	"time"
)

func TestTimestampLayout(t *testing.T) {
	at := time.Date(2026, 2, 9, 22, 5, 7, 0, time.UTC)
	got := FormatTimestamp(at)
	if got != "09-02-2026 22:05:07" {
		t.Fatalf("unexpected timestamp rendering: %q", got)
	}
	parsed, err := ParseTimestamp(got)
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}
	if !parsed.Equal(at) {
		t.Fatalf("round trip mismatch: %s != %s", parsed, at)
	}
}

func TestDeleteRequestCodec(t *testing.T) {
	body, err := EncodeDeleteRequest("item-1")
	if err != nil {
		t.Fatalf("EncodeDeleteRequest failed: %v", err)
	}
	if string(body) != `"item-1"` {
		t.Fatalf("body must be a JSON-quoted id, got %s", body)
	}
	itemID, err := DecodeDeleteRequest(body)
	if err != nil || itemID != "item-1" {
		t.Fatalf("decode mismatch: %q, %v", itemID, err)
	}
}

func TestDecodeDeleteRequest_Invalid(t *testing.T) {
	for _, body := range [][]byte{[]byte("{oops"), []byte(`""`), []byte("42")} {
		if _, err := DecodeDeleteRequest(body); !errors.Is(err, ErrInvalidDeleteRequest) {
			t.Fatalf("expected ErrInvalidDeleteRequest for %s, got %v", body, err)
		}
	}
}
