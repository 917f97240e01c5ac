package envres

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"sort"
)

// Flat renders a resolved environment as KEY=VALUE lines, sorted by key.
func Flat(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%s\n", k, env[k])
	}
	return buf.String()
}

// Compressed renders a resolved environment as a single zlib-compressed,
// base64-encoded blob of the flat form, for platforms that cap the number
// of variables.
func Compressed(env map[string]string) (string, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(Flat(env))); err != nil {
		return "", fmt.Errorf("failed to compress environment: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to compress environment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
