package model

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestInlineImageURL(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0xff}

	url := InlineImageURL("image/png", data)

	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %s", url)
	}

	encoded := strings.TrimPrefix(url, "data:image/png;base64,")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if !bytes.Equal(decoded, data) {
		t.Errorf("round-trip mismatch: got %v, want %v", decoded, data)
	}
}

func TestInlineImageURL_Empty(t *testing.T) {
	url := InlineImageURL("image/webp", nil)
	if url != "data:image/webp;base64," {
		t.Errorf("unexpected URL for empty payload: %s", url)
	}
}

func TestInlineImageURL_RoundTripSizes(t *testing.T) {
	// Padding behavior differs at each length mod 3.
	for size := 0; size < 6; size++ {
		data := bytes.Repeat([]byte{0xab}, size)
		url := InlineImageURL("image/png", data)

		encoded := strings.TrimPrefix(url, "data:image/png;base64,")
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			t.Fatalf("size %d: decode failed: %v", size, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Errorf("size %d: round-trip mismatch", size)
		}
	}
}
