package messaging

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
)

const ArchiveBucket = "todo-archives"

// ObjectArchive stores archived item snapshots as objects in a JetStream
// object store bucket.
type ObjectArchive struct {
	Bucket nats.ObjectStore
}

func NewObjectArchive(js nats.JetStreamContext) (*ObjectArchive, error) {
	bucket, err := js.ObjectStore(ArchiveBucket)
	if err != nil {
		if !isBucketMissing(err) {
			return nil, err
		}
		bucket, err = js.CreateObjectStore(&nats.ObjectStoreConfig{
			Bucket:  ArchiveBucket,
			Storage: nats.FileStorage,
		})
		if err != nil {
			return nil, err
		}
	}
	return &ObjectArchive{Bucket: bucket}, nil
}

// Missing buckets surface as ErrBucketNotFound; older servers returned the
// backing stream lookup failure directly. Both mean "create it".
func isBucketMissing(err error) bool {
	return errors.Is(err, nats.ErrBucketNotFound) || errors.Is(err, nats.ErrStreamNotFound)
}

func (a *ObjectArchive) Put(ctx context.Context, key string, data []byte) error {
	_, err := a.Bucket.PutBytes(key, data)
	return err
}

func (a *ObjectArchive) List(ctx context.Context) ([]string, error) {
	infos, err := a.Bucket.List()
	if err != nil {
		if errors.Is(err, nats.ErrNoObjectsFound) {
			return []string{}, nil
		}
		return nil, err
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.Name)
	}
	return keys, nil
}
