package frame

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

const (
	// Magic identifies frame files (ASCII: "FRM0").
	Magic = 0x46524D30

	// Version is the current frame format version.
	Version uint32 = 1

	// TrailerSize is the size of the file trailer in bytes.
	TrailerSize = 64

	// FlagPresence indicates that the schema carries presence bitmaps.
	FlagPresence uint32 = 1 << 0

	indexEntrySize = 12
)

var (
	// ErrInvalidMagic is returned when a file has an invalid magic number.
	ErrInvalidMagic = errors.New("frame: invalid magic number")

	// ErrInvalidVersion is returned when a file has an unsupported version.
	ErrInvalidVersion = errors.New("frame: unsupported format version")

	// ErrCorrupted is returned when a file fails validation.
	ErrCorrupted = errors.New("frame: file corrupted")

	// ErrOutOfBounds is returned when reading an entry past the end of the file.
	ErrOutOfBounds = errors.New("frame: entry out of bounds")

	// ErrKindMismatch is returned when a column receives a value of another kind.
	ErrKindMismatch = errors.New("frame: column kind mismatch")

	// ErrClosed is returned when using a closed Writer or File.
	ErrClosed = errors.New("frame: closed")
)

// Trailer is the 64-byte footer of a frame file.
type Trailer struct {
	Magic        uint32 // 0x46524D30 ("FRM0")
	Version      uint32
	Flags        uint32
	Compression  Compression
	Codec        uint8 // codec.ID of the schema section
	Count        uint64
	IndexOffset  uint64
	SchemaOffset uint64
	SchemaSize   uint64
	NumColumns   uint32
	Checksum     uint32 // CRC32 (IEEE) of bytes [0, 56)
}

// MarshalBinary encodes the trailer and fills in its checksum.
func (t *Trailer) MarshalBinary() ([]byte, error) {
	buf := make([]byte, TrailerSize)
	binary.LittleEndian.PutUint32(buf[0:4], t.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], t.Version)
	binary.LittleEndian.PutUint32(buf[8:12], t.Flags)
	buf[12] = byte(t.Compression)
	buf[13] = t.Codec
	binary.LittleEndian.PutUint64(buf[16:24], t.Count)
	binary.LittleEndian.PutUint64(buf[24:32], t.IndexOffset)
	binary.LittleEndian.PutUint64(buf[32:40], t.SchemaOffset)
	binary.LittleEndian.PutUint64(buf[40:48], t.SchemaSize)
	binary.LittleEndian.PutUint32(buf[48:52], t.NumColumns)

	t.Checksum = crc32.ChecksumIEEE(buf[:56])
	binary.LittleEndian.PutUint32(buf[56:60], t.Checksum)
	return buf, nil
}

// UnmarshalBinary decodes and validates a trailer.
func (t *Trailer) UnmarshalBinary(buf []byte) error {
	if len(buf) != TrailerSize {
		return ErrCorrupted
	}

	t.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if t.Magic != Magic {
		return ErrInvalidMagic
	}

	t.Checksum = binary.LittleEndian.Uint32(buf[56:60])
	if crc32.ChecksumIEEE(buf[:56]) != t.Checksum {
		return ErrCorrupted
	}

	t.Version = binary.LittleEndian.Uint32(buf[4:8])
	if t.Version == 0 || t.Version > Version {
		return ErrInvalidVersion
	}

	t.Flags = binary.LittleEndian.Uint32(buf[8:12])
	t.Compression = Compression(buf[12])
	t.Codec = buf[13]
	t.Count = binary.LittleEndian.Uint64(buf[16:24])
	t.IndexOffset = binary.LittleEndian.Uint64(buf[24:32])
	t.SchemaOffset = binary.LittleEndian.Uint64(buf[32:40])
	t.SchemaSize = binary.LittleEndian.Uint64(buf[40:48])
	t.NumColumns = binary.LittleEndian.Uint32(buf[48:52])
	return nil
}

// validate checks the section layout against the file size.
func (t *Trailer) validate(size uint64) error {
	if size < TrailerSize || !t.Compression.valid() {
		return ErrCorrupted
	}
	body := size - TrailerSize
	// Each bound is checked before it is used in a sum so nothing wraps.
	if t.Count > body/indexEntrySize ||
		t.IndexOffset > body ||
		t.Count*indexEntrySize > body-t.IndexOffset ||
		t.IndexOffset+t.Count*indexEntrySize != t.SchemaOffset ||
		t.SchemaOffset > body ||
		t.SchemaSize != body-t.SchemaOffset {
		return ErrCorrupted
	}
	return nil
}
