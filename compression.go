// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Compression specifies the batch compression codec.  The engine compresses;
// the producer only copies bytes.
type Compression string

const (
	// CompressionSnappy uses Snappy compression (good balance, recommended).
	CompressionSnappy Compression = "snappy"

	// CompressionGzip uses Gzip compression.
	CompressionGzip Compression = "gzip"

	// CompressionLz4 uses LZ4 compression.
	CompressionLz4 Compression = "lz4"

	// CompressionZstd uses Zstandard compression.
	CompressionZstd Compression = "zstd"

	// CompressionNone disables compression.
	CompressionNone Compression = "none"
)

var compressionCodecs = map[Compression]kgo.CompressionCodec{
	CompressionSnappy: kgo.SnappyCompression(),
	CompressionGzip:   kgo.GzipCompression(),
	CompressionLz4:    kgo.Lz4Compression(),
	CompressionZstd:   kgo.ZstdCompression(),
	CompressionNone:   kgo.NoCompression(),
}

var compressionList = []string{
	string(CompressionSnappy),
	string(CompressionGzip),
	string(CompressionLz4),
	string(CompressionZstd),
	string(CompressionNone),
}

// validateCompression validates the Compression enum value.
func validateCompression(codec Compression) error {
	if codec == "" {
		return nil
	}

	if _, ok := compressionCodecs[codec]; ok {
		return nil
	}

	list := strings.Join(compressionList, "', '")
	list = "'" + list + "'"
	return errors.Join(ErrValidation,
		fmt.Errorf("compression codec '%s' is invalid: must be %s or empty", codec, list))
}

// codec returns the engine codec; empty means no compression.
func (c Compression) codec() kgo.CompressionCodec {
	if cc, ok := compressionCodecs[c]; ok {
		return cc
	}
	return kgo.NoCompression()
}
