package layout

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFileRoundTrip(t *testing.T) {
	res, err := NewTree().CalculateLayout(fanTree(t, 3, 1), DefaultConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, WriteResultFile(res, path))

	got, err := ReadResultFile(path)
	require.NoError(t, err)
	assert.Equal(t, res, got)
}

func TestMarshalResultStable(t *testing.T) {
	res, err := NewRadial().CalculateLayout(fanTree(t, 4, 2), DefaultConfig())
	require.NoError(t, err)

	a, err := MarshalResult(res)
	require.NoError(t, err)
	b, err := MarshalResult(res)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, string(a), `"algorithm": "radial"`)

	back, err := UnmarshalResult(a)
	require.NoError(t, err)
	assert.Equal(t, res.NodeIDs(), back.NodeIDs())
}

func TestReadResultErrors(t *testing.T) {
	_, err := ReadResult(strings.NewReader("{"))
	assert.Error(t, err)

	_, err = ReadResult(bytes.NewReader([]byte(`{"algorithm":"tree"}`)))
	assert.ErrorContains(t, err, "no positions")

	_, err = ReadResultFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
