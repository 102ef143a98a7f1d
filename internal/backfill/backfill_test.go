package backfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokenIDs_Basic(t *testing.T) {
	out, err := decodeTokenIDs([]byte(`["111","222"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222"}, out)
}

func TestDecodeTokenIDs_EmptyInputYieldsNil(t *testing.T) {
	out, err := decodeTokenIDs(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecodeTokenIDs_MalformedErrors(t *testing.T) {
	_, err := decodeTokenIDs([]byte(`not json`))
	assert.Error(t, err)
}
