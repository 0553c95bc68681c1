package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	t.Parallel()

	h, err := Hash("48213")
	require.NoError(t, err)
	assert.NotEqual(t, "48213", h)

	assert.True(t, Check(h, "48213"))
	assert.False(t, Check(h, "48214"))
	assert.False(t, Check("not-a-hash", "48213"))
}
