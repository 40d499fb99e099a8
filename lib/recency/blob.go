// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recency

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/cmdsearch/lib/codec"
)

// blobVersion is the envelope format version. Bump it when Item
// changes incompatibly; older blobs then load as an empty cache.
const blobVersion = 1

// maxPayloadSize bounds the declared uncompressed size so a corrupt
// envelope cannot make the decoder allocate without limit.
const maxPayloadSize = 1 << 20

// ErrCorrupt is returned by DecodeBlob when the envelope is unreadable,
// from an unknown version, or fails its digest check.
var ErrCorrupt = errors.New("recency: corrupt blob")

// Compression selects how the blob payload is compressed.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionLZ4  Compression = "lz4"
	CompressionZstd Compression = "zstd"
)

// ParseCompression parses a compression name. The empty string means
// CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionLZ4, CompressionZstd:
		return Compression(name), nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none, lz4 or zstd)", name)
	}
}

// envelope is the outer CBOR structure of a persisted blob.
type envelope struct {
	Version     int         `cbor:"version"`
	Compression Compression `cbor:"compression"`
	Size        int         `cbor:"size"`
	Digest      []byte      `cbor:"digest"`
	Payload     []byte      `cbor:"payload"`
}

// digestKey is the BLAKE3 keyed-hash key for recency payloads: the
// ASCII domain name, zero padded to 32 bytes.
var digestKey = [32]byte{
	'c', 'm', 'd', 's', 'e', 'a', 'r', 'c', 'h', '.', 'r', 'e', 'c', 'e', 'n', 'c',
	'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

func digest(payload []byte) []byte {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("recency: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	return hasher.Sum(nil)
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("recency: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayloadSize))
	if err != nil {
		panic("recency: zstd decoder initialization failed: " + err.Error())
	}
}

// EncodeBlob serializes items, most recent first, into a blob. When
// the requested compression does not shrink the payload the blob is
// stored uncompressed and says so in its envelope.
func EncodeBlob(items []Item, compression Compression) ([]byte, error) {
	payload, err := codec.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding recent items: %w", err)
	}

	result := envelope{
		Version:     blobVersion,
		Compression: CompressionNone,
		Size:        len(payload),
		Digest:      digest(payload),
		Payload:     payload,
	}

	switch compression {
	case "", CompressionNone:
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(payload)))
		written, err := lz4.CompressBlock(payload, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// Zero means incompressible.
		if written > 0 && written < len(payload) {
			result.Compression = CompressionLZ4
			result.Payload = destination[:written]
		}
	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(payload, nil)
		if len(compressed) < len(payload) {
			result.Compression = CompressionZstd
			result.Payload = compressed
		}
	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}

	return codec.Marshal(result)
}

// DecodeBlob parses a blob produced by EncodeBlob. Every failure wraps
// ErrCorrupt.
func DecodeBlob(data []byte) ([]Item, error) {
	var outer envelope
	if err := codec.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if outer.Version != blobVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrCorrupt, outer.Version, blobVersion)
	}
	if outer.Size < 0 || outer.Size > maxPayloadSize {
		return nil, fmt.Errorf("%w: declared size %d out of range", ErrCorrupt, outer.Size)
	}

	var payload []byte
	switch outer.Compression {
	case CompressionNone:
		payload = outer.Payload
	case CompressionLZ4:
		payload = make([]byte, outer.Size)
		read, err := lz4.UncompressBlock(outer.Payload, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		payload = payload[:read]
	case CompressionZstd:
		decoded, err := zstdDecoder.DecodeAll(outer.Payload, make([]byte, 0, outer.Size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		payload = decoded
	default:
		return nil, fmt.Errorf("%w: unknown compression %q", ErrCorrupt, outer.Compression)
	}

	if len(payload) != outer.Size {
		return nil, fmt.Errorf("%w: payload is %d bytes, envelope says %d", ErrCorrupt, len(payload), outer.Size)
	}
	if !bytes.Equal(digest(payload), outer.Digest) {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}

	var items []Item
	if err := codec.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return items, nil
}
