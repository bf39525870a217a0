package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pipegraph/pkg/group"
)

type fakeClient struct {
	data   map[string]string
	setErr error
	closed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: make(map[string]string)}
}

func (f *fakeClient) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		f.data[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newFakeClient()
	s := newStore(c, "")

	got, err := s.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("Load() on empty key = %v, %v", got, err)
	}

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	want := []group.Group{
		{ID: "a", Name: "Ingest", Color: "#FFE4E1", CreatedAt: ts, UpdatedAt: ts},
		{ID: "b", Name: "Serve", Description: "online", Color: "hsl(10, 70%, 95%)", CreatedAt: ts, UpdatedAt: ts.Add(time.Hour)},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := c.data[DefaultKey]; !ok {
		t.Errorf("expected value under %q", DefaultKey)
	}

	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() (-want +got):\n%s", diff)
	}

	if err := s.Close(); err != nil || !c.closed {
		t.Errorf("Close() = %v, closed = %v", err, c.closed)
	}
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	c := newFakeClient()
	s := newStore(c, "custom")

	c.data["custom"] = "not json"
	if _, err := s.Load(ctx); err == nil {
		t.Error("Load() should fail on corrupt data")
	}

	c.setErr = fmt.Errorf("READONLY")
	if err := s.Save(ctx, nil); err == nil {
		t.Error("Save() should surface the redis error")
	}
}

func TestStore_WithRegistry(t *testing.T) {
	ctx := context.Background()
	c := newFakeClient()

	r, err := group.NewRegistry(ctx, newStore(c, ""))
	if err != nil {
		t.Fatal(err)
	}
	g, err := r.Create(ctx, "Shared", "", "")
	if err != nil {
		t.Fatal(err)
	}

	// A second instance sees the group
	r2, err := group.NewRegistry(ctx, newStore(c, ""))
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := r2.Get(g.ID); !ok || got.Name != "Shared" {
		t.Errorf("second registry Get() = %+v, %v", got, ok)
	}
}
