package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the entry block compression of a file.
type Compression uint8

const (
	// CompressionNone stores blocks raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) valid() bool {
	return c <= CompressionZSTD
}

// String returns "none", "lz4" or "zstd".
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression inverts Compression.String.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("frame: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

const blockHeaderSize = 8

var errBlock = errors.New("frame: invalid entry block")

// appendBlock appends payload as an entry block. A block whose compressed
// form is not below 90% of the raw size is stored raw.
func appendBlock(dst, payload []byte, c Compression) ([]byte, error) {
	var compressed []byte

	switch c {
	case CompressionLZ4:
		if len(payload) > 0 {
			buf := make([]byte, lz4.CompressBlockBound(len(payload)))
			n, err := lz4.CompressBlock(payload, buf, nil)
			if err != nil {
				return nil, err
			}
			compressed = buf[:n]
		}
	case CompressionZSTD:
		if len(payload) > 0 {
			enc := getZstdEncoder()
			compressed = enc.EncodeAll(payload, nil)
			putZstdEncoder(enc)
		}
	}

	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(payload))*0.9 {
		dst = binary.LittleEndian.AppendUint32(dst, 0)
		return append(dst, payload...), nil
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(compressed)))
	return append(dst, compressed...), nil
}

// readBlock returns the payload of an entry block. Raw blocks are returned
// as a sub-slice of block; compressed ones are decoded into scratch.
func readBlock(block []byte, c Compression, scratch []byte) (payload, newScratch []byte, err error) {
	if len(block) < blockHeaderSize {
		return nil, scratch, errBlock
	}

	rawSize := binary.LittleEndian.Uint32(block[0:])
	compSize := binary.LittleEndian.Uint32(block[4:])
	body := block[blockHeaderSize:]

	if compSize == 0 {
		if uint64(len(body)) != uint64(rawSize) {
			return nil, scratch, errBlock
		}
		return body, scratch, nil
	}
	if uint64(len(body)) != uint64(compSize) {
		return nil, scratch, errBlock
	}

	if cap(scratch) < int(rawSize) {
		scratch = make([]byte, rawSize)
	}
	out := scratch[:rawSize]

	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, scratch, fmt.Errorf("%w: %v", errBlock, err)
		}
		if uint32(n) != rawSize {
			return nil, scratch, errBlock
		}
		return out, scratch, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, scratch, fmt.Errorf("%w: %v", errBlock, err)
		}
		if uint32(len(decoded)) != rawSize {
			return nil, scratch, errBlock
		}
		return decoded, scratch, nil

	default:
		return nil, scratch, errBlock
	}
}
