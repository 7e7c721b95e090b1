package search

import (
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/keift/chessanalyzer/eval"
	"github.com/keift/chessanalyzer/rules"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

const entrySize = 16

const minSizePowerOf2 = 16

// 16 bytes (entrySize)
type TableEntry struct {
	hash  uint64
	score int32
	play  rules.MoveKey
	depth uint8
	flag  uint8
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag != 0
}

func (t TableEntry) Depth() int {
	return int(t.depth)
}

func (t TableEntry) Flag() uint8 {
	return t.flag
}

func (t TableEntry) Move() rules.MoveKey {
	return t.play
}

// TranspositionTable caches search results of one search. It is not shared
// between searches and takes no locks.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64

	created  uint64
	lookups  uint64
	hits     uint64
	rejected uint64
	// slot held by a different position
	t2collisions uint64
}

// Reset sizes the table to the largest power of two that fits in sizeMB
// megabytes and in fractionOfMemory of system memory, then clears it.
func (t *TranspositionTable) Reset(sizeMB int, fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	budget := float64(sizeMB) * 1024 * 1024
	if fractionOfMemory > 0 && totalMem > 0 {
		budget = math.Min(budget, fractionOfMemory*float64(totalMem))
	}
	desiredNElems := budget / entrySize
	t.sizePowerOf2 = minSizePowerOf2
	if desiredNElems >= 1 {
		t.sizePowerOf2 = max(int(math.Log2(desiredNElems)), minSizePowerOf2)
	}
	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	if len(t.table) == numElems {
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")

	t.created = 0
	t.lookups = 0
	t.hits = 0
	t.rejected = 0
	t.t2collisions = 0
}

func (t *TranspositionTable) lookup(zval uint64) TableEntry {
	t.lookups++
	idx := zval & t.sizeMask
	entry := t.table[idx]
	if entry.hash != zval {
		if entry.valid() {
			// There is another unrelated node at this position.
			t.t2collisions++
		}
		return TableEntry{}
	}
	t.hits++
	return entry
}

// store keeps the deeper of the incoming and the resident entry. Ties go
// to the incoming entry.
func (t *TranspositionTable) store(zval uint64, tentry TableEntry) {
	idx := zval & t.sizeMask
	if old := t.table[idx]; old.valid() && tentry.depth < old.depth {
		t.rejected++
		return
	}
	tentry.hash = zval
	t.table[idx] = tentry
	t.created++
}

// Mate scores are stored relative to the node, so that a transposition
// reached at a different ply still reports the correct distance to mate.
func scoreToTT(score, ply int) int32 {
	switch {
	case score >= eval.MateBound:
		return int32(score + ply)
	case score <= -eval.MateBound:
		return int32(score - ply)
	}
	return int32(score)
}

func scoreFromTT(score int32, ply int) int {
	s := int(score)
	switch {
	case s >= eval.MateBound:
		return s - ply
	case s <= -eval.MateBound:
		return s + ply
	}
	return s
}

// Stats returns created, lookups, hits, rejected, t2 collision counters.
func (t *TranspositionTable) Stats() (uint64, uint64, uint64, uint64, uint64) {
	return t.created, t.lookups, t.hits, t.rejected, t.t2collisions
}

func (t *TranspositionTable) Size() int {
	return len(t.table)
}
