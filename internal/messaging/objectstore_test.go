package messaging

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestIsBucketMissing(t *testing.T) {
	if !isBucketMissing(nats.ErrBucketNotFound) {
		t.Fatal("a fresh server reports the archive bucket as ErrBucketNotFound; that must trigger creation")
	}
	if !isBucketMissing(nats.ErrStreamNotFound) {
		t.Fatal("older servers report the missing backing stream; that must trigger creation too")
	}
	if !isBucketMissing(fmt.Errorf("open bucket: %w", nats.ErrBucketNotFound)) {
		t.Fatal("wrapped not-found errors must still trigger creation")
	}
	if isBucketMissing(errors.New("permissions violation")) {
		t.Fatal("unrelated failures must not be treated as a missing bucket")
	}
}
