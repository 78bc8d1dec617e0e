package store

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

var _ KeyValueStore = (*ValkeyStore)(nil)

// ValkeyStore keeps values in a valkey (or redis) server under a key prefix.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore connects to addr. Keys are stored as prefix+key.
func NewValkeyStore(addr, prefix string) (*ValkeyStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &ValkeyStore{client: client, prefix: prefix}, nil
}

func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return b, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.client.B().Set().Key(s.prefix + key).Value(valkey.BinaryString(value)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

// Close releases the client
func (s *ValkeyStore) Close() {
	s.client.Close()
}
