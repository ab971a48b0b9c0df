package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/relaydesk/ticketrag/core"
)

// Key prefixes for different data types. Prefixes are disjoint so that
// prefix iteration never has to skip foreign keys.
const (
	recordPrefix = "rec"
	orderPrefix  = "ord"
	cursorPrefix = "cur"
	recordSeqKey = "seq:record"
)

// makeRecordKey generates a key for a record by ID.
func makeRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", recordPrefix, id))
}

// makeOrderKey generates a composite key for the ingestion-order index.
// Format: prefix:seq, with seq in BigEndian so lexicographic key order
// is ingestion order.
func makeOrderKey(seq uint64) []byte {
	prefix := orderPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeCursorKey generates the key for the ingestion cursor.
func makeCursorKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", cursorPrefix, name))
}
