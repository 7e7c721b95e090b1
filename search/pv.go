package search

import (
	"strings"

	"github.com/keift/chessanalyzer/rules"
)

// PVLine is the principal variation below a node.
type PVLine struct {
	Moves []rules.Move
}

func (pv *PVLine) Clear() {
	pv.Moves = pv.Moves[:0]
}

// Update sets the line to m followed by the child's line.
func (pv *PVLine) Update(m rules.Move, child *PVLine) {
	pv.Moves = append(pv.Moves[:0], m)
	pv.Moves = append(pv.Moves, child.Moves...)
}

func (pv *PVLine) String() string {
	var sb strings.Builder
	for i, m := range pv.Moves {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(m.UCI())
	}
	return sb.String()
}
