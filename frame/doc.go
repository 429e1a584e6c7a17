// Package frame implements the frame file format: one frame per entry, each
// frame carrying a subset of named, typed fields.
//
// Layout (little endian):
//
//	[entry block]*  [uncompressed u32][compressed u32][payload]
//	[index]         per entry [offset u64][length u32]
//	[schema]        codec-encoded columns and presence bitmaps
//	[trailer]       64 bytes, see Trailer
//
// A payload is a sequence of [column uvarint][length uvarint][value] for each
// field the frame carries. Values use the column package encodings. Files are
// written once by a Writer and read concurrently through independent File
// handles.
package frame
