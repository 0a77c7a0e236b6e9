package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Value string
}

func TestStoreAndRetrieve(t *testing.T) {
	c := New[testRecord]()
	c.Store("key-1", testRecord{Value: "hello"})
	require.Equal(t, "hello", c.Get("key-1").Value)
}

func TestStoreAndRemove(t *testing.T) {
	c := New[testRecord]()
	c.Store("key-1", testRecord{Value: "hello"})
	require.Equal(t, "hello", c.Get("key-1").Value)

	c.Remove("request-id", "key-1")
	require.Equal(t, "", c.Get("key-1").Value)
}

func TestGetOKDistinguishesAbsentFromZeroValue(t *testing.T) {
	c := New[testRecord]()
	_, ok := c.GetOK("missing")
	require.False(t, ok)

	c.Store("present", testRecord{})
	v, ok := c.GetOK("present")
	require.True(t, ok)
	require.Equal(t, testRecord{}, v)
}

func TestStoreIfAbsentOnlyStoresOnce(t *testing.T) {
	c := New[testRecord]()
	require.True(t, c.StoreIfAbsent("key-1", testRecord{Value: "first"}))
	require.False(t, c.StoreIfAbsent("key-1", testRecord{Value: "second"}))
	require.Equal(t, "first", c.Get("key-1").Value)
}
