package canonical_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/canonical"
)

func TestDigest_StableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "c": 3}
	b := map[string]any{"c": 3, "a": 2, "b": 1}

	da, err := canonical.Digest(a)
	require.NoError(t, err)
	db, err := canonical.Digest(b)
	require.NoError(t, err)

	assert.Equal(t, da, db, "canonicalization must erase map key ordering")
}

func TestDigest_DiffersOnContentChange(t *testing.T) {
	a := map[string]any{"value": 1}
	b := map[string]any{"value": 2}

	da, err := canonical.Digest(a)
	require.NoError(t, err)
	db, err := canonical.Digest(b)
	require.NoError(t, err)

	assert.NotEqual(t, da, db)
}
