// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tickbitmap tracks which ticks of a concentrated liquidity pool are
// initialized, one bit per spacing-compressed tick, 256 ticks per word.
package tickbitmap

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/luxfi/ammcore/fixedpoint"
)

var (
	ErrTickNotAligned     = errors.New("tick not aligned to spacing")
	ErrInvalidTickSpacing = errors.New("invalid tick spacing")
)

// Word is one 256-bit bitmap word, least significant limb first.
type Word [4]uint64

// IsZero reports whether no bit is set.
func (w Word) IsZero() bool {
	return w[0]|w[1]|w[2]|w[3] == 0
}

// WordStore loads and stores bitmap words by word position.
type WordStore interface {
	LoadWord(pos int16) (Word, error)
	StoreWord(pos int16, w Word) error
}

// =============================================================================
// Tick Bitmap
// =============================================================================

// Bitmap manages tick initialization state on top of a WordStore.
type Bitmap struct {
	store WordStore
}

// New creates a bitmap over store.
func New(store WordStore) *Bitmap {
	return &Bitmap{store: store}
}

// compress divides tick by spacing, rounding toward negative infinity.
func compress(tick, spacing int32) int32 {
	c := tick / spacing
	if tick < 0 && tick%spacing != 0 {
		c--
	}
	return c
}

// position splits a compressed tick into word and bit positions.
func position(compressed int32) (int16, uint8) {
	return int16(compressed >> 8), uint8(compressed & 0xff)
}

// FlipTick toggles the tick's initialized state.
func (b *Bitmap) FlipTick(tick, spacing int32) error {
	if spacing <= 0 {
		return ErrInvalidTickSpacing
	}
	if tick%spacing != 0 {
		return fmt.Errorf("%w: tick=%d spacing=%d", ErrTickNotAligned, tick, spacing)
	}
	wp, bp := position(tick / spacing)
	w, err := b.store.LoadWord(wp)
	if err != nil {
		return err
	}
	w[bp/64] ^= 1 << (bp % 64)
	return b.store.StoreWord(wp, w)
}

// IsInitialized returns whether a tick is initialized.
func (b *Bitmap) IsInitialized(tick, spacing int32) (bool, error) {
	if spacing <= 0 {
		return false, ErrInvalidTickSpacing
	}
	if tick%spacing != 0 {
		return false, nil
	}
	wp, bp := position(tick / spacing)
	w, err := b.store.LoadWord(wp)
	if err != nil {
		return false, err
	}
	return w[bp/64]&(1<<(bp%64)) != 0, nil
}

// =============================================================================
// Next Initialized Tick Search
// =============================================================================

// Next searches the word containing the starting point. With lte it returns
// the greatest initialized tick <= tick, otherwise the smallest initialized
// tick > tick. When the word holds no such tick it returns the last tick of
// the word in the search direction and false.
func (b *Bitmap) Next(tick, spacing int32, lte bool) (int32, bool, error) {
	if spacing <= 0 {
		return 0, false, ErrInvalidTickSpacing
	}
	compressed := compress(tick, spacing)
	if !lte {
		compressed++
	}
	wp, bp := position(compressed)
	w, err := b.store.LoadWord(wp)
	if err != nil {
		return 0, false, err
	}
	base := int32(wp) * 256

	if lte {
		if bit, ok := highestAtOrBelow(w, bp); ok {
			return (base + int32(bit)) * spacing, true, nil
		}
		return base * spacing, false, nil
	}
	if bit, ok := lowestAtOrAbove(w, bp); ok {
		return (base + int32(bit)) * spacing, true, nil
	}
	return (base + 255) * spacing, false, nil
}

// Search repeats Next across up to skipAhead additional words and clamps the
// result to the valid tick range. The returned tick is either initialized
// or a word boundary / range bound to stop at.
func (b *Bitmap) Search(tick, spacing int32, lte bool, skipAhead uint32) (int32, bool, error) {
	for words := uint32(0); ; words++ {
		next, initialized, err := b.Next(tick, spacing, lte)
		if err != nil {
			return 0, false, err
		}
		if lte {
			if next <= fixedpoint.MinTick {
				return fixedpoint.MinTick, initialized && next == fixedpoint.MinTick, nil
			}
			if initialized || words >= skipAhead {
				return next, initialized, nil
			}
			tick = next - 1
		} else {
			if next >= fixedpoint.MaxTick {
				return fixedpoint.MaxTick, initialized && next == fixedpoint.MaxTick, nil
			}
			if initialized || words >= skipAhead {
				return next, initialized, nil
			}
			tick = next
		}
	}
}

func highestAtOrBelow(w Word, bp uint8) (int, bool) {
	limb := int(bp / 64)
	for i := limb; i >= 0; i-- {
		v := w[i]
		if i == limb {
			shift := bp%64 + 1
			if shift < 64 {
				v &= uint64(1)<<shift - 1
			}
		}
		if v != 0 {
			return i*64 + 63 - bits.LeadingZeros64(v), true
		}
	}
	return 0, false
}

func lowestAtOrAbove(w Word, bp uint8) (int, bool) {
	limb := int(bp / 64)
	for i := limb; i < 4; i++ {
		v := w[i]
		if i == limb {
			v &= ^(uint64(1)<<(bp%64) - 1)
		}
		if v != 0 {
			return i*64 + bits.TrailingZeros64(v), true
		}
	}
	return 0, false
}
