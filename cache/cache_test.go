package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New(time.Minute)
	key := Key{SourceID: 1, TemplateID: 256, Host: "10.0.0.1", Port: 2055}

	c.Put(key, "compiled-template")

	v, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, "compiled-template", v)
}

func TestGetMissUnknownKey(t *testing.T) {
	c := New(time.Minute)
	_, ok := c.Get(Key{SourceID: 1, TemplateID: 256, Host: "10.0.0.1", Port: 2055})
	require.False(t, ok)
}

func TestKeyIsolationAcrossExporters(t *testing.T) {
	c := New(time.Minute)
	keyA := Key{SourceID: 1, TemplateID: 256, Host: "10.0.0.1", Port: 2055}
	keyB := Key{SourceID: 1, TemplateID: 256, Host: "10.0.0.2", Port: 2055}

	c.Put(keyA, "layout-a")
	c.Put(keyB, "layout-b")

	v, ok := c.Get(keyA)
	require.True(t, ok)
	require.Equal(t, "layout-a", v)

	v, ok = c.Get(keyB)
	require.True(t, ok)
	require.Equal(t, "layout-b", v)
}

func TestKeyIsolationAcrossSourceID(t *testing.T) {
	c := New(time.Minute)
	keyA := Key{SourceID: 1, TemplateID: 256, Host: "10.0.0.1", Port: 2055}
	keyB := Key{SourceID: 2, TemplateID: 256, Host: "10.0.0.1", Port: 2055}

	c.Put(keyA, "domain-1")
	c.Put(keyB, "domain-2")

	v, _ := c.Get(keyA)
	require.Equal(t, "domain-1", v)
	v, _ = c.Get(keyB)
	require.Equal(t, "domain-2", v)
}

func TestExpiryAfterTTL(t *testing.T) {
	c := New(time.Minute)
	key := Key{SourceID: 1, TemplateID: 256, Host: "10.0.0.1", Port: 2055}

	clock := time.Now()
	c.now = func() time.Time { return clock }
	c.Put(key, "layout")

	clock = clock.Add(2 * time.Minute)
	_, ok := c.Get(key)
	require.False(t, ok, "entry should have expired after ttl elapsed")
}

func TestGetRefreshesSlidingTTL(t *testing.T) {
	c := New(time.Minute)
	key := Key{SourceID: 1, TemplateID: 256, Host: "10.0.0.1", Port: 2055}

	clock := time.Now()
	c.now = func() time.Time { return clock }
	c.Put(key, "layout")

	// advance to just before expiry and read, which should reset the window
	clock = clock.Add(59 * time.Second)
	_, ok := c.Get(key)
	require.True(t, ok)

	clock = clock.Add(59 * time.Second)
	_, ok = c.Get(key)
	require.True(t, ok, "a read should have slid the TTL window forward")
}

func TestSweepOnPutRemovesExpiredEntries(t *testing.T) {
	c := New(time.Minute)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	stale := Key{SourceID: 1, TemplateID: 1, Host: "10.0.0.1", Port: 2055}
	c.Put(stale, "stale")

	clock = clock.Add(2 * time.Minute)
	fresh := Key{SourceID: 1, TemplateID: 2, Host: "10.0.0.1", Port: 2055}
	c.Put(fresh, "fresh")

	require.Equal(t, 1, c.Len(), "stale entry should have been swept on the fresh Put")
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New(0)
	clock := time.Now()
	c.now = func() time.Time { return clock }

	key := Key{SourceID: 1, TemplateID: 256, Host: "10.0.0.1", Port: 2055}
	c.Put(key, "layout")

	clock = clock.Add(24 * time.Hour)
	_, ok := c.Get(key)
	require.True(t, ok)
}
