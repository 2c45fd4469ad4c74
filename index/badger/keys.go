package badger

import "encoding/binary"

// Key prefixes for snapshot entries
const (
	chunkRecordPrefix = "chunk:"
	metaCountKey      = "meta:count"
	metaNameKey       = "meta:name"
)

// makeChunkKey generates a key for a chunk record by position.
// Format: prefix:position, BigEndian so iteration follows chunk order.
func makeChunkKey(position int) []byte {
	buf := make([]byte, len(chunkRecordPrefix)+8)
	offset := copy(buf, chunkRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}

func encodeCount(n int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func decodeCount(buf []byte) int {
	if len(buf) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(buf))
}
