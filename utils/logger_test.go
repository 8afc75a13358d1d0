package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		_ = SetLevel("info")
	})

	require.Error(t, SetLevel("loud"))

	require.NoError(t, SetLevel("warn"))
	Info("hidden", nil)
	require.Zero(t, buf.Len())

	Warn("visible", map[string]any{"auction_id": "a1"})
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "visible", entry["msg"])
	require.Equal(t, "warning", entry["level"])
	require.Equal(t, "a1", entry["auction_id"])
}
