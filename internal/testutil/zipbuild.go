package testutil

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"hash/crc32"
	"testing"
)

// ArchiveFile describes one entry for BuildArchive. Method follows the
// ZIP convention: 0 stored, 8 deflate. Any other value writes the data
// uncompressed but labels the entry with that method, which lets tests
// exercise the unsupported-method path.
type ArchiveFile struct {
	Name   string
	Data   []byte
	Method uint16
}

// BuildArchive assembles a minimal single-disk ZIP archive by hand:
// local headers with payloads, a central directory, and a trailing
// end-of-central-directory record.
func BuildArchive(t *testing.T, files []ArchiveFile) []byte {
	t.Helper()

	var out bytes.Buffer
	offsets := make([]int, len(files))
	payloads := make([][]byte, len(files))

	for i, f := range files {
		payload := f.Data
		if f.Method == 8 {
			var c bytes.Buffer
			fw, err := flate.NewWriter(&c, flate.BestCompression)
			if err != nil {
				t.Fatalf("flate writer: %v", err)
			}
			if _, err := fw.Write(f.Data); err != nil {
				t.Fatalf("deflate: %v", err)
			}
			if err := fw.Close(); err != nil {
				t.Fatalf("deflate close: %v", err)
			}
			payload = c.Bytes()
		}
		payloads[i] = payload
		offsets[i] = out.Len()

		// Local file header.
		putU32(&out, 0x04034b50)
		putU16(&out, 20) // version needed
		putU16(&out, 0)  // flags
		putU16(&out, f.Method)
		putU16(&out, 0) // mod time
		putU16(&out, 0) // mod date
		putU32(&out, crc32.ChecksumIEEE(f.Data))
		putU32(&out, uint32(len(payload)))
		putU32(&out, uint32(len(f.Data)))
		putU16(&out, uint16(len(f.Name)))
		putU16(&out, 0) // extra length
		out.WriteString(f.Name)
		out.Write(payload)
	}

	cdStart := out.Len()
	for i, f := range files {
		putU32(&out, 0x02014b50)
		putU16(&out, 20) // version made by
		putU16(&out, 20) // version needed
		putU16(&out, 0)  // flags
		putU16(&out, f.Method)
		putU16(&out, 0) // mod time
		putU16(&out, 0) // mod date
		putU32(&out, crc32.ChecksumIEEE(f.Data))
		putU32(&out, uint32(len(payloads[i])))
		putU32(&out, uint32(len(f.Data)))
		putU16(&out, uint16(len(f.Name)))
		putU16(&out, 0) // extra length
		putU16(&out, 0) // comment length
		putU16(&out, 0) // disk number
		putU16(&out, 0) // internal attrs
		putU32(&out, 0) // external attrs
		putU32(&out, uint32(offsets[i]))
		out.WriteString(f.Name)
	}
	cdSize := out.Len() - cdStart

	// End of central directory.
	putU32(&out, 0x06054b50)
	putU16(&out, 0) // disk number
	putU16(&out, 0) // central directory disk
	putU16(&out, uint16(len(files)))
	putU16(&out, uint16(len(files)))
	putU32(&out, uint32(cdSize))
	putU32(&out, uint32(cdStart))
	putU16(&out, 0) // comment length

	return out.Bytes()
}

func putU16(b *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.Write(tmp[:])
}

func putU32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}
