// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tickbitmap

// mapStore is a WordStore backed by a map.
type mapStore struct {
	words map[int16]Word
}

func newMapStore() *mapStore {
	return &mapStore{words: make(map[int16]Word)}
}

func (m *mapStore) LoadWord(pos int16) (Word, error) {
	return m.words[pos], nil
}

func (m *mapStore) StoreWord(pos int16, w Word) error {
	if w.IsZero() {
		delete(m.words, pos)
		return nil
	}
	m.words[pos] = w
	return nil
}

// Len returns the number of non-empty words.
func (m *mapStore) Len() int {
	return len(m.words)
}
