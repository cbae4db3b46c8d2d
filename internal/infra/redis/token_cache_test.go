//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClient struct {
	store  map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{store: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.store[key] = value.(string)
	f.ttls[key] = expiration
	return nil
}

func (f *fakeClient) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.store[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.store, k)
	}
	return nil
}

func (f *fakeClient) Close() error { return nil }

func TestTokenCache(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips a token with the margin subtracted", func(t *testing.T) {
		cli := newFakeClient()
		c := NewTokenCache(cli, time.Minute)

		c.Put(ctx, "client-1", "tok-1", 5*time.Minute)
		if got := c.Get(ctx, "client-1"); got != "tok-1" {
			t.Errorf("Get = %q, want tok-1", got)
		}
		if ttl := cli.ttls["momo_token:client-1"]; ttl != 4*time.Minute {
			t.Errorf("ttl = %v, want 4m", ttl)
		}
	})

	t.Run("skips tokens that expire within the margin", func(t *testing.T) {
		cli := newFakeClient()
		c := NewTokenCache(cli, time.Minute)

		c.Put(ctx, "client-1", "tok-1", 30*time.Second)
		if len(cli.store) != 0 {
			t.Error("short-lived token was cached")
		}
	})

	t.Run("cache errors degrade to a miss", func(t *testing.T) {
		cli := newFakeClient()
		cli.getErr = errors.New("redis down")
		c := NewTokenCache(cli, time.Minute)

		if got := c.Get(ctx, "client-1"); got != "" {
			t.Errorf("Get = %q, want empty on cache failure", got)
		}
	})

	t.Run("absent key is a miss", func(t *testing.T) {
		c := NewTokenCache(newFakeClient(), time.Minute)
		if got := c.Get(ctx, "client-1"); got != "" {
			t.Errorf("Get = %q, want empty", got)
		}
	})
}
