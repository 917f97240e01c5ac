package function

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageReproducible(t *testing.T) {
	source := "export const handler = async () => ({ statusCode: 200 });\n"

	first, firstHash, err := Package(source)
	require.NoError(t, err)
	second, secondHash, err := Package(source)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstHash, secondHash)

	sum := sha256.Sum256(first)
	assert.Equal(t, base64.StdEncoding.EncodeToString(sum[:]), firstHash)
}

func TestPackageHashTracksSource(t *testing.T) {
	_, a, err := Package("export const handler = async () => 1;\n")
	require.NoError(t, err)
	_, b, err := Package("export const handler = async () => 2;\n")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPackageSingleEntry(t *testing.T) {
	source := "export const handler = async () => ({});\n"
	archive, _, err := Package(source)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, reader.File, 1)

	entry := reader.File[0]
	assert.Equal(t, EntryName, entry.Name)

	rc, err := entry.Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, source, string(content))
}
