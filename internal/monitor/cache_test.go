package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheDefaultsToZero(t *testing.T) {
	c := NewCache()
	got := c.Get(addr)
	require.True(t, got.SOL.IsZero())
	require.True(t, got.USDT.IsZero())
	require.Zero(t, c.Len())
}

func TestCacheSetOverwrites(t *testing.T) {
	c := NewCache()
	c.Set(addr, snap("1.5", "2"))
	c.Set(addr, snap("3", "2"))
	require.True(t, c.Get(addr).SOL.Equal(dec("3")))
	require.Equal(t, 1, c.Len())
}
