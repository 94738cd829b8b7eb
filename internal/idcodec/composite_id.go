package idcodec

import (
	"github.com/standardbeagle/langd/internal/ids"
)

// CompositeSymbolID packing:
// - Lower 32 bits: FileID
// - Upper 32 bits: local symbol ordinal within that file
//
// Different from a raw SymbolID, which is just an index into a table.
// Composite IDs are used when a reference must survive a table rebuild
// (e.g. the completion item IDs internal/query hands to the editor).

// EncodeComposite encodes a FileID and a local symbol ordinal into a single
// base-63 string.
func EncodeComposite(fileID ids.FileID, localOrdinal uint32) string {
	combined := PackUint32Pair(uint32(fileID), localOrdinal)
	return Encode(combined)
}

// DecodeComposite decodes a base-63 string to FileID and local ordinal.
func DecodeComposite(encoded string) (ids.FileID, uint32, error) {
	if encoded == "" {
		return 0, 0, ErrEmptyString
	}

	combined, err := Decode(encoded)
	if err != nil {
		return 0, 0, err
	}

	lower, upper := UnpackUint32Pair(combined)
	return ids.FileID(lower), upper, nil
}
