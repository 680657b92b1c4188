package badger

import (
	"encoding/binary"

	"github.com/gcbaptista/go-lostfound/model"
)

// Key prefixes
const (
	itemPrefix     = "item:"
	itemIDPrefix   = "itemid:"
	itemTypePrefix = "itemtype:"
	itemSeqKey     = "itemseq"
)

// makeItemKey builds the primary key for a record.
// Format: item:<seq>, seq big-endian so keys sort in insertion order.
func makeItemKey(seq uint64) []byte {
	buf := make([]byte, len(itemPrefix)+8)
	offset := copy(buf, itemPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeItemIDKey builds the id index key. Its value is the encoded seq.
func makeItemIDKey(id string) []byte {
	return []byte(itemIDPrefix + id)
}

// makeItemTypeKey builds the type index key.
// Format: itemtype:<type>:<seq>
func makeItemTypeKey(itemType model.ItemType, seq uint64) []byte {
	prefix := makeItemTypePrefix(itemType)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

func makeItemTypePrefix(itemType model.ItemType) []byte {
	return []byte(itemTypePrefix + string(itemType) + ":")
}

// seqFromKey extracts the trailing seq of an item or type index key.
func seqFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func decodeSeq(val []byte) uint64 {
	return binary.BigEndian.Uint64(val)
}
