package testutil

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// LoadJSON loads a JSON fixture from testdata relative to the repo root.
func LoadJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data := readTestdata(t, rel)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
}

// LoadLines returns the non-empty lines of a text fixture.
func LoadLines(t *testing.T, rel string) []string {
	t.Helper()
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(readTestdata(t, rel)))
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan %s: %v", rel, err)
	}
	return lines
}

// LoadCapture decodes a hex capture fixture into raw stream bytes. Lines
// starting with '#' are comments; whitespace and '|' separators are ignored.
func LoadCapture(t *testing.T, rel string) []byte {
	t.Helper()
	var digits strings.Builder
	for _, line := range LoadLines(t, rel) {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, r := range line {
			if r == ' ' || r == '\t' || r == '|' {
				continue
			}
			digits.WriteRune(r)
		}
	}
	data, err := hex.DecodeString(digits.String())
	if err != nil {
		t.Fatalf("hex decode %s: %v", rel, err)
	}
	return data
}

// CaptureHex returns the capture fixture as one hex string, comments removed.
func CaptureHex(t *testing.T, rel string) string {
	t.Helper()
	return strings.ToUpper(hex.EncodeToString(LoadCapture(t, rel)))
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}
