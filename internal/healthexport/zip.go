package healthexport

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
)

// ZIP compression methods supported by Extract.
const (
	methodStored  = 0
	methodDeflate = 8
)

const (
	eocdSignature    = 0x06054b50
	centralSignature = 0x02014b50

	eocdMinSize       = 22
	centralHeaderSize = 46
	localHeaderSize   = 30
	maxCommentSize    = 64 << 10
)

// Entry describes one logical file inside a ZIP archive. DataStart is the
// absolute offset of the (possibly compressed) payload in the buffer the
// entry was decoded from; DataStart+CompressedSize never exceeds that
// buffer's length.
type Entry struct {
	Name           string
	Method         uint16
	CompressedSize uint32
	DataStart      int
}

// DecodeArchive walks the central directory of a ZIP archive and returns
// its entries. Archives come from an uncontrolled third-party export, so
// the decoder degrades instead of failing: a missing end-of-central-directory
// record yields an empty list, a truncated or corrupt central directory
// yields the entries decoded so far, and individual entries whose payload
// would fall outside the buffer are dropped without stopping the walk.
//
// Zip64, encryption, and multi-disk archives are not supported.
func DecodeArchive(buf []byte) []Entry {
	if len(buf) < eocdMinSize {
		return nil
	}

	eocd := findEndOfCentralDirectory(buf)
	if eocd < 0 {
		return nil
	}

	total := int(binary.LittleEndian.Uint16(buf[eocd+10:]))
	off := int(binary.LittleEndian.Uint32(buf[eocd+16:]))

	var entries []Entry
	for i := 0; i < total; i++ {
		if off < 0 || off+centralHeaderSize > len(buf) {
			break
		}
		if binary.LittleEndian.Uint32(buf[off:]) != centralSignature {
			break
		}

		method := binary.LittleEndian.Uint16(buf[off+10:])
		compressedSize := binary.LittleEndian.Uint32(buf[off+20:])
		nameLen := int(binary.LittleEndian.Uint16(buf[off+28:]))
		extraLen := int(binary.LittleEndian.Uint16(buf[off+30:]))
		commentLen := int(binary.LittleEndian.Uint16(buf[off+32:]))
		localOff := int(binary.LittleEndian.Uint32(buf[off+42:]))

		if off+centralHeaderSize+nameLen > len(buf) {
			break
		}
		name := string(buf[off+centralHeaderSize : off+centralHeaderSize+nameLen])

		if dataStart, ok := resolveLocalHeader(buf, localOff); ok {
			if dataStart+int(compressedSize) <= len(buf) {
				entries = append(entries, Entry{
					Name:           name,
					Method:         method,
					CompressedSize: compressedSize,
					DataStart:      dataStart,
				})
			}
		}

		off += centralHeaderSize + nameLen + extraLen + commentLen
	}

	return entries
}

// findEndOfCentralDirectory searches backward for the EOCD signature
// within the last 64 KiB + 22 bytes of the buffer (the maximum trailing
// comment size). Returns -1 when not found.
func findEndOfCentralDirectory(buf []byte) int {
	floor := len(buf) - (maxCommentSize + eocdMinSize)
	if floor < 0 {
		floor = 0
	}
	for i := len(buf) - eocdMinSize; i >= floor; i-- {
		if binary.LittleEndian.Uint32(buf[i:]) == eocdSignature {
			return i
		}
	}
	return -1
}

// resolveLocalHeader computes the payload offset for the local file header
// at localOff: fixed header plus the local name and extra field lengths.
func resolveLocalHeader(buf []byte, localOff int) (int, bool) {
	if localOff < 0 || localOff+localHeaderSize > len(buf) {
		return 0, false
	}
	nameLen := int(binary.LittleEndian.Uint16(buf[localOff+26:]))
	extraLen := int(binary.LittleEndian.Uint16(buf[localOff+28:]))
	return localOff + localHeaderSize + nameLen + extraLen, true
}

// Extract decodes the payload of an entry as UTF-8 text. Stored payloads
// are returned directly; deflate payloads (raw, no zlib/gzip wrapper) are
// inflated first. Any other compression method, or a payload that would
// overrun the buffer, yields an error.
func Extract(buf []byte, e Entry) (string, error) {
	end := e.DataStart + int(e.CompressedSize)
	if e.DataStart < 0 || end > len(buf) {
		return "", fmt.Errorf("healthexport: entry %q: payload out of range", e.Name)
	}
	raw := buf[e.DataStart:end]

	switch e.Method {
	case methodStored:
		return string(raw), nil
	case methodDeflate:
		r := flate.NewReader(bytes.NewReader(raw))
		defer r.Close()
		inflated, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("healthexport: entry %q: inflate: %w", e.Name, err)
		}
		return string(inflated), nil
	default:
		return "", fmt.Errorf("healthexport: entry %q: unsupported compression method %d", e.Name, e.Method)
	}
}
