// Package tests holds reusable conformance suites for ports implementations.
package tests

import (
	"testing"

	"github.com/aretw0/coach/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NodeLoaderContractTest checks a ports.NodeLoader against the expected node set.
// expected maps each node ID to the exact raw definition the loader must return;
// a nil value only asserts that the node can be fetched.
func NodeLoaderContractTest(t *testing.T, loader ports.NodeLoader, expected map[string][]byte) {
	t.Helper()

	t.Run("GetNode", func(t *testing.T) {
		for id, want := range expected {
			got, err := loader.GetNode(id)
			require.NoError(t, err, "node %s", id)
			assert.NotEmpty(t, got, "node %s", id)
			if want != nil {
				assert.Equal(t, string(want), string(got), "node %s", id)
			}
		}
	})

	t.Run("GetNode unknown id", func(t *testing.T) {
		_, err := loader.GetNode("no-such-node")
		assert.Error(t, err)
	})

	t.Run("ListNodes", func(t *testing.T) {
		ids, err := loader.ListNodes()
		require.NoError(t, err)

		want := make([]string, 0, len(expected))
		for id := range expected {
			want = append(want, id)
		}
		assert.ElementsMatch(t, want, ids)

		again, err := loader.ListNodes()
		require.NoError(t, err)
		assert.Equal(t, ids, again, "listing must be stable")
	})

	t.Run("Listed ids resolve", func(t *testing.T) {
		ids, err := loader.ListNodes()
		require.NoError(t, err)
		for _, id := range ids {
			_, err := loader.GetNode(id)
			assert.NoError(t, err, "listed node %s", id)
		}
	})
}
