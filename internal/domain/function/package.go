package function

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// EntryName is the single file name inside every function archive.
const EntryName = "index.mjs"

// Package wraps finished source text into a single-entry deflate archive
// and returns the archive together with the base64 SHA-256 of its bytes.
// The entry timestamp is pinned so that identical source always hashes
// identically, which is what makes the remote code-hash comparison work.
func Package(source string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	header := &zip.FileHeader{
		Name:     EntryName,
		Method:   zip.Deflate,
		Modified: time.Unix(0, 0).UTC(),
	}
	header.SetMode(0o644)

	entry, err := w.CreateHeader(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := entry.Write([]byte(source)); err != nil {
		return nil, "", fmt.Errorf("failed to write archive entry: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), base64.StdEncoding.EncodeToString(sum[:]), nil
}
