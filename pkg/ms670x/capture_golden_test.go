package ms670x

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kentavv/ms670x/internal/testutil"
)

func TestCaptureGoldenJSON(t *testing.T) {
	data := testutil.LoadCapture(t, "captures/dump.hex")
	results, err := DecodeBytes(context.Background(), data, quiet())
	require.NoError(t, err)

	var expected []json.RawMessage
	testutil.LoadJSON(t, "captures/dump.json", &expected)
	require.Len(t, results, len(expected))
	for i, res := range results {
		line, err := Format(res, FormatJSON)
		require.NoError(t, err)
		require.JSONEq(t, string(expected[i]), line, "event %d", i)
	}
}

func TestCaptureGoldenText(t *testing.T) {
	results, err := DecodeHexWithOptions(context.Background(), testutil.CaptureHex(t, "captures/dump.hex"), quiet())
	require.NoError(t, err)

	expected := testutil.LoadLines(t, "captures/dump.txt")
	require.Len(t, results, len(expected))
	for i, res := range results {
		line, err := Format(res, FormatText)
		require.NoError(t, err)
		require.Equal(t, expected[i], line, "event %d", i)
	}
}
