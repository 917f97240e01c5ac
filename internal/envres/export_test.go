package envres

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlat(t *testing.T) {
	flat := Flat(map[string]string{
		"B_KEY": "two",
		"A_KEY": "one",
		"C_KEY": "three",
	})
	assert.Equal(t, "A_KEY=one\nB_KEY=two\nC_KEY=three\n", flat)
	assert.Empty(t, Flat(nil))
}

func TestCompressedRoundtrip(t *testing.T) {
	env := map[string]string{"A_KEY": "one", "B_KEY": "two"}

	blob, err := Compressed(env)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	reader, err := zlib.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer reader.Close()

	inflated, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, Flat(env), string(inflated))
}
