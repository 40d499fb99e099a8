// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recency

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bureau-foundation/cmdsearch/lib/codec"
	"github.com/bureau-foundation/cmdsearch/lib/search"
)

func sampleItems() []Item {
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	var items []Item
	for index := range 10 {
		items = append(items, Item{
			ID:        fmt.Sprintf("fb-%d", index),
			Title:     "Login fails with SSO when the session cookie expires",
			Type:      search.TypeFeedback,
			URL:       fmt.Sprintf("/feedback/fb-%d", index),
			Timestamp: base.Add(time.Duration(index) * time.Minute),
		})
	}
	return items
}

func TestBlobRoundTrip(t *testing.T) {
	items := sampleItems()
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(string(compression), func(t *testing.T) {
			data, err := EncodeBlob(items, compression)
			if err != nil {
				t.Fatalf("EncodeBlob: %v", err)
			}

			var outer envelope
			if err := codec.Unmarshal(data, &outer); err != nil {
				t.Fatalf("decoding envelope: %v", err)
			}
			// Repetitive titles always compress.
			if outer.Compression != compression {
				t.Errorf("envelope compression = %q, want %q", outer.Compression, compression)
			}

			decoded, err := DecodeBlob(data)
			if err != nil {
				t.Fatalf("DecodeBlob: %v", err)
			}
			if len(decoded) != len(items) {
				t.Fatalf("decoded %d items, want %d", len(decoded), len(items))
			}
			for index := range items {
				if decoded[index].ID != items[index].ID || !decoded[index].Timestamp.Equal(items[index].Timestamp) {
					t.Errorf("item %d = %+v, want %+v", index, decoded[index], items[index])
				}
			}
		})
	}
}

func TestBlobIncompressibleFallsBackToNone(t *testing.T) {
	data, err := EncodeBlob([]Item{{ID: "x"}}, CompressionLZ4)
	if err != nil {
		t.Fatalf("EncodeBlob: %v", err)
	}
	var outer envelope
	if err := codec.Unmarshal(data, &outer); err != nil {
		t.Fatal(err)
	}
	if outer.Compression != CompressionNone {
		t.Errorf("tiny payload compression = %q, want none", outer.Compression)
	}
}

func TestBlobDetectsFlippedPayloadByte(t *testing.T) {
	data, err := EncodeBlob(sampleItems(), CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	var outer envelope
	if err := codec.Unmarshal(data, &outer); err != nil {
		t.Fatal(err)
	}
	outer.Payload[len(outer.Payload)/2] ^= 0x01
	tampered, err := codec.Marshal(outer)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeBlob(tampered); !errors.Is(err, ErrCorrupt) {
		t.Errorf("DecodeBlob(tampered) error = %v, want ErrCorrupt", err)
	}
}

func TestBlobRejectsWrongVersion(t *testing.T) {
	data, err := codec.Marshal(envelope{Version: blobVersion + 1, Compression: CompressionNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeBlob(data); !errors.Is(err, ErrCorrupt) {
		t.Errorf("error = %v, want ErrCorrupt", err)
	}
}

func TestBlobRejectsTruncation(t *testing.T) {
	data, err := EncodeBlob(sampleItems(), CompressionZstd)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeBlob(data[:len(data)/2]); !errors.Is(err, ErrCorrupt) {
		t.Errorf("error = %v, want ErrCorrupt", err)
	}
}

func TestParseCompression(t *testing.T) {
	for input, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "lz4": CompressionLZ4, "zstd": CompressionZstd} {
		got, err := ParseCompression(input)
		if err != nil || got != want {
			t.Errorf("ParseCompression(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression(gzip) succeeded")
	}
}
