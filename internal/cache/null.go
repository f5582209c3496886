package cache

import (
	"context"
	"time"
)

// NullStore backs a disabled cache: every read misses and writes are dropped.
type NullStore struct{}

func (NullStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullStore) Delete(context.Context, ...string) error { return nil }

func (NullStore) DeleteMatching(context.Context, string) (int, error) { return 0, nil }

func (NullStore) Ping(context.Context) error { return ErrUnavailable }
