package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildRecordsKeyAndArgOrder(t *testing.T) {
	cmd := Build("HSET", "pcp:map:metric.name", []byte{0x01}, "kernel.all.load")

	key, ok := cmd.Key()
	require.True(t, ok)
	require.Equal(t, "pcp:map:metric.name", key)
	require.Equal(t, "HSET", cmd.Name())
	require.Equal(t, []Param{"HSET", "pcp:map:metric.name", []byte{0x01}, "kernel.all.load"}, cmd.Args())
}

func TestBuildKeylessHasNoRoutingKey(t *testing.T) {
	cmd := BuildKeyless("CLUSTER", "SLOTS")

	_, ok := cmd.Key()
	require.False(t, ok)
	require.Equal(t, "CLUSTER", cmd.Name())
	require.Equal(t, []Param{"CLUSTER", "SLOTS"}, cmd.Args())
}

func TestArgsReturnsDefensiveCopy(t *testing.T) {
	cmd := Build("SET", "k", "v")
	args := cmd.Args()
	args[0] = "MUTATED"

	require.Equal(t, "SET", cmd.Name())
	require.Equal(t, []Param{"SET", "k", "v"}, cmd.Args())
}

func TestBuildWithEmptyKeyStillReportsKey(t *testing.T) {
	// Build records an empty key string (e.g. a malformed call site) as a
	// key: Key() reports ok == true. Keeping it off a real shard is left to
	// Router.destination, which treats key == "" the same as hasKey == false.
	cmd := Build("PING", "")
	key, ok := cmd.Key()
	require.True(t, ok)
	require.Equal(t, "", key)
}
