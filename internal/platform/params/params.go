// Package params is a small Redis-backed parameter store for runtime
// configuration shared between services, such as the delete queue subject.
package params

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

var ErrParameterNotFound = errors.New("parameter not found")

type Store struct {
	Client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{Client: client}
}

func (s *Store) Get(ctx context.Context, name string) (string, error) {
	value, err := s.Client.Get(ctx, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrParameterNotFound
		}
		return "", fmt.Errorf("get parameter %q: %w", name, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, name, value string) error {
	if err := s.Client.Set(ctx, name, value, 0).Err(); err != nil {
		return fmt.Errorf("set parameter %q: %w", name, err)
	}
	return nil
}
