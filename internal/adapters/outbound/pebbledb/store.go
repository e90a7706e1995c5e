package pebbledb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"orderpipe/internal/core/domain"
)

// Store is the embedded key-value backend: one record per orderId,
// JSON-encoded. Set is atomic per key; Insert and SetStatus need a
// read-modify-write, serialized by a mutex since Pebble itself has no
// conditional write.
type Store struct {
	mu sync.Mutex
	db *pebble.DB
}

func New(dir string) (*Store, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Store{db: d}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func encodeOrder(o domain.Order) ([]byte, error) { return json.Marshal(o) }

func decodeOrder(val []byte) (domain.Order, error) {
	var o domain.Order
	if err := json.Unmarshal(val, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *Store) Upsert(_ context.Context, order domain.Order) error {
	b, err := encodeOrder(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	if err := s.db.Set([]byte(order.OrderID), b, pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Insert(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := []byte(order.OrderID)
	_, closer, err := s.db.Get(k)
	if err == nil {
		_ = closer.Close()
		return domain.ErrOrderExists
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	b, err := encodeOrder(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	if err := s.db.Set(k, b, pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) SetStatus(_ context.Context, orderID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := []byte(orderID)
	v, closer, err := s.db.Get(k)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	o, derr := decodeOrder(v)
	_ = closer.Close()
	if derr != nil {
		return fmt.Errorf("decode order: %w", derr)
	}

	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	b, err := encodeOrder(o)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	if err := s.db.Set(k, b, pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) GetByID(_ context.Context, orderID string) (domain.Order, error) {
	v, closer, err := s.db.Get([]byte(orderID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer closer.Close()

	o, derr := decodeOrder(v)
	if derr != nil {
		return domain.Order{}, fmt.Errorf("decode order: %w", derr)
	}
	return o, nil
}

func (s *Store) ListLatest(_ context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		return []domain.Order{}, nil
	}

	it, err := s.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer it.Close()

	var out []domain.Order
	for it.First(); it.Valid(); it.Next() {
		o, derr := decodeOrder(it.Value())
		if derr != nil {
			return nil, fmt.Errorf("decode order: %w", derr)
		}
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	it, err := s.db.NewIter(nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer it.Close()

	n := 0
	for it.First(); it.Valid(); it.Next() {
		n++
	}
	return n, nil
}
