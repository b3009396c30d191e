// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/ammcore/tickbitmap"
)

// Storage key prefixes. Every key is a prefix byte followed by fixed-width
// fields, so keys of different namespaces never collide.
const (
	poolStatePrefix byte = iota + 1
	poolFeesPrefix
	tickPrefix
	bitmapPrefix
	positionPrefix
	savedBalancePrefix
	extensionPrefix

	// transient namespaces live only for the duration of a lock and are
	// never written to the database
	debtPrefix         byte = 0xf0
	nonzeroDebtsPrefix byte = 0xf1
)

func makeStorageKey(prefix byte, parts ...[]byte) []byte {
	n := 1
	for _, p := range parts {
		n += len(p)
	}
	key := make([]byte, 0, n)
	key = append(key, prefix)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

func int32Bytes(v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

func uint32Bytes(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func poolStateKey(id PoolID) []byte { return makeStorageKey(poolStatePrefix, id[:]) }
func poolFeesKey(id PoolID) []byte  { return makeStorageKey(poolFeesPrefix, id[:]) }

func tickKey(id PoolID, tick int32) []byte {
	return makeStorageKey(tickPrefix, id[:], int32Bytes(tick))
}

func bitmapKey(id PoolID, word int16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(word))
	return makeStorageKey(bitmapPrefix, id[:], b[:])
}

func positionKey(id PoolID, owner common.Address, pid PositionID) []byte {
	packed := pid.Pack()
	return makeStorageKey(positionPrefix, id[:], owner[:], packed[:])
}

func savedBalanceKey(owner, token0, token1 common.Address, salt [32]byte) []byte {
	return makeStorageKey(savedBalancePrefix, owner[:], token0[:], token1[:], salt[:])
}

func extensionKey(ext common.Address) []byte {
	return makeStorageKey(extensionPrefix, ext[:])
}

func debtKey(id uint32, token common.Address) []byte {
	return makeStorageKey(debtPrefix, uint32Bytes(id), token[:])
}

func nonzeroDebtsKey(id uint32) []byte {
	return makeStorageKey(nonzeroDebtsPrefix, uint32Bytes(id))
}

func isTransientKey(key string) bool {
	return len(key) > 0 && key[0] >= debtPrefix
}

// =========================================================================
// Journaled store
// =========================================================================

type journalEntry struct {
	key    string
	prev   []byte
	wasSet bool
}

// journal is a write overlay over a database. Every write is recorded so
// that it can be undone back to any snapshot; the overlay reaches the
// database only through commit.
type journal struct {
	db      database.Database
	dirty   map[string][]byte // nil value marks a deletion
	entries []journalEntry
}

func newJournal(db database.Database) *journal {
	return &journal{
		db:    db,
		dirty: make(map[string][]byte),
	}
}

// get returns nil for a missing key.
func (j *journal) get(key []byte) ([]byte, error) {
	if v, ok := j.dirty[string(key)]; ok {
		return v, nil
	}
	v, err := j.db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func (j *journal) put(key, value []byte) {
	j.record(string(key))
	j.dirty[string(key)] = append([]byte(nil), value...)
}

func (j *journal) delete(key []byte) {
	j.record(string(key))
	j.dirty[string(key)] = nil
}

func (j *journal) record(key string) {
	prev, ok := j.dirty[key]
	j.entries = append(j.entries, journalEntry{key: key, prev: prev, wasSet: ok})
}

func (j *journal) snapshot() int {
	return len(j.entries)
}

// revertTo undoes every write made after snapshot id.
func (j *journal) revertTo(id int) {
	for i := len(j.entries) - 1; i >= id; i-- {
		e := j.entries[i]
		if e.wasSet {
			j.dirty[e.key] = e.prev
		} else {
			delete(j.dirty, e.key)
		}
	}
	j.entries = j.entries[:id]
}

// commit writes the overlay to the database in one batch, skipping the
// transient namespaces.
func (j *journal) commit() error {
	batch := j.db.NewBatch()
	for k, v := range j.dirty {
		if isTransientKey(k) {
			continue
		}
		var err error
		if v == nil {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), v)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	j.reset()
	return nil
}

func (j *journal) reset() {
	j.dirty = make(map[string][]byte)
	j.entries = j.entries[:0]
}

// =========================================================================
// Bitmap word store
// =========================================================================

// poolBitmap adapts the journal to the tick bitmap of one pool.
type poolBitmap struct {
	j  *journal
	id PoolID
}

func (b poolBitmap) LoadWord(pos int16) (tickbitmap.Word, error) {
	var w tickbitmap.Word
	raw, err := b.j.get(bitmapKey(b.id, pos))
	if err != nil || len(raw) != 32 {
		return w, err
	}
	for i := range w {
		w[i] = binary.BigEndian.Uint64(raw[(3-i)*8:])
	}
	return w, nil
}

func (b poolBitmap) StoreWord(pos int16, w tickbitmap.Word) error {
	key := bitmapKey(b.id, pos)
	if w.IsZero() {
		b.j.delete(key)
		return nil
	}
	raw := make([]byte, 32)
	for i := range w {
		binary.BigEndian.PutUint64(raw[(3-i)*8:], w[i])
	}
	b.j.put(key, raw)
	return nil
}
