package moveorder

import (
	"github.com/notnil/chess"

	"github.com/keift/chessanalyzer/rules"
)

// HistoryTable scores quiet moves by the cutoffs they produced, per side
// and from/to square.
type HistoryTable struct {
	scores [3][64][64]int
}

// Add credits a quiet move with depth squared.
func (h *HistoryTable) Add(m rules.Move, depth int) {
	if !m.IsQuiet() || depth <= 0 {
		return
	}
	h.scores[m.Piece.Color()][m.From][m.To] += depth * depth
}

func (h *HistoryTable) Get(c chess.Color, from, to chess.Square) int {
	return h.scores[c][from][to]
}

func (h *HistoryTable) Clear() {
	h.scores = [3][64][64]int{}
}
