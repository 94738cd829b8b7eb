package idcodec

import (
	"github.com/standardbeagle/langd/internal/ids"
)

// EncodeSymbolID encodes a SymbolID to a base-63 string.
//
// SymbolID is a raw uint64 index into whichever table produced it. It is
// NOT a packed FileID+local-symbol composite (see EncodeComposite for that).
func EncodeSymbolID(id ids.SymbolID) string {
	return Encode(uint64(id))
}

// DecodeSymbolID decodes a base-63 string to a SymbolID.
func DecodeSymbolID(encoded string) (ids.SymbolID, error) {
	value, err := Decode(encoded)
	if err != nil {
		return 0, err
	}
	return ids.SymbolID(value), nil
}

// MustDecodeSymbolID decodes a base-63 string to a SymbolID.
// Panics on error - use only when the input is known to be valid.
func MustDecodeSymbolID(encoded string) ids.SymbolID {
	id, err := DecodeSymbolID(encoded)
	if err != nil {
		panic("idcodec: MustDecodeSymbolID: " + err.Error())
	}
	return id
}

// IsValidSymbolID checks if a string is a valid base-63 encoded SymbolID.
func IsValidSymbolID(encoded string) bool {
	return IsValid(encoded)
}

// EncodeFileID encodes a FileID to a base-63 string.
func EncodeFileID(id ids.FileID) string {
	return Encode(uint64(id))
}

// DecodeFileID decodes a base-63 string to a FileID.
func DecodeFileID(encoded string) (ids.FileID, error) {
	value, err := Decode(encoded)
	if err != nil {
		return 0, err
	}
	if value > uint64(^ids.FileID(0)) {
		return 0, ErrOverflow
	}
	return ids.FileID(value), nil
}
