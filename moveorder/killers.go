package moveorder

import (
	"github.com/keift/chessanalyzer/rules"
)

// MaxPly bounds the search ply the tables keep track of.
const MaxPly = 128

const MaxKillers = 2

// KillerTable remembers, per ply, the last two quiet moves that caused a
// beta cutoff.
type KillerTable struct {
	killers [MaxPly][MaxKillers]rules.MoveKey
}

// Store records m as the first killer at ply, moving the previous first
// killer to the second slot. Captures and promotions are ignored.
func (k *KillerTable) Store(ply int, m rules.Move) {
	if ply >= MaxPly || !m.IsQuiet() {
		return
	}
	key := m.Key()
	if k.killers[ply][0] == key {
		return
	}
	k.killers[ply][1] = k.killers[ply][0]
	k.killers[ply][0] = key
}

// Slot returns 0 or 1 if key is a killer at ply, -1 otherwise.
func (k *KillerTable) Slot(ply int, key rules.MoveKey) int {
	if ply >= MaxPly || key == rules.NullKey {
		return -1
	}
	for i, kk := range k.killers[ply] {
		if kk == key {
			return i
		}
	}
	return -1
}

func (k *KillerTable) Clear() {
	k.killers = [MaxPly][MaxKillers]rules.MoveKey{}
}
