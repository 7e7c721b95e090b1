// Package moveorder ranks candidate moves so that alpha-beta search sees the
// most promising ones first.
package moveorder

import (
	"slices"

	"github.com/notnil/chess"

	"github.com/keift/chessanalyzer/rules"
)

// Priority bands, highest first. Scores inside a band never reach the next
// band up.
const (
	HashMoveOffset  = 1_000_000_000
	CaptureOffset   = 10_000_000
	PromotionOffset = 5_000_000
	Killer0Offset   = 4_000_000
	Killer1Offset   = 3_000_000

	// keeps history*64 below Killer1Offset
	historyCap = 40_000
)

// ScoredMove is a move with its ordering priority. SEE is filled in for
// captures and promotions only.
type ScoredMove struct {
	rules.Move
	Score int
	SEE   int
}

// Orderer holds the killer and history tables of one search.
type Orderer struct {
	Killers KillerTable
	History HistoryTable
}

func New() *Orderer {
	return &Orderer{}
}

// pieceRank orders piece types for MVV-LVA.
var pieceRank = [7]int{
	chess.Pawn: 1, chess.Knight: 2, chess.Bishop: 3,
	chess.Rook: 4, chess.Queen: 5, chess.King: 6,
}

// MVVLVA prefers the most valuable victim, then the least valuable
// attacker.
func MVVLVA(m rules.Move) int {
	return 16*pieceRank[m.Captured.Type()] - pieceRank[m.Piece.Type()]
}

// centrality is larger for destination squares nearer the center.
func centrality(sq chess.Square) int {
	f, r := 2*int(sq.File())-7, 2*int(sq.Rank())-7
	return 56 - 4*(abs(f)+abs(r))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (o *Orderer) score(board *[64]chess.Piece, m rules.Move, ply int,
	hashMove rules.MoveKey) ScoredMove {

	sm := ScoredMove{Move: m}
	if m.IsCapture() || m.IsPromotion() {
		sm.SEE = SEE(board, m)
	}
	key := m.Key()
	switch {
	case key == hashMove:
		sm.Score = HashMoveOffset
	case m.IsCapture():
		sm.Score = CaptureOffset + sm.SEE*128 + MVVLVA(m)
	case m.IsPromotion():
		sm.Score = PromotionOffset + SeeValues[m.Promo]
	default:
		switch o.Killers.Slot(ply, key) {
		case 0:
			sm.Score = Killer0Offset
		case 1:
			sm.Score = Killer1Offset
		default:
			h := min(o.History.Get(m.Piece.Color(), m.From, m.To), historyCap)
			sm.Score = h*64 + centrality(m.To)
		}
	}
	return sm
}

// Order scores and sorts moves, best first. Equal scores keep generation
// order, so the result is deterministic.
func (o *Orderer) Order(board *[64]chess.Piece, moves []rules.Move, ply int,
	hashMove rules.MoveKey) []ScoredMove {

	scored := make([]ScoredMove, len(moves))
	for i, m := range moves {
		scored[i] = o.score(board, m, ply, hashMove)
	}
	sortScored(scored)
	return scored
}

// OrderTactical is used by quiescence search: captures and promotions by
// SEE then MVV-LVA, anything else (check evasions) after them.
func (o *Orderer) OrderTactical(board *[64]chess.Piece, moves []rules.Move) []ScoredMove {
	scored := make([]ScoredMove, len(moves))
	for i, m := range moves {
		sm := ScoredMove{Move: m}
		if m.IsCapture() || m.IsPromotion() {
			sm.SEE = SEE(board, m)
			sm.Score = CaptureOffset + sm.SEE*128
			if m.IsCapture() {
				sm.Score += MVVLVA(m)
			}
		} else {
			sm.Score = centrality(m.To)
		}
		scored[i] = sm
	}
	sortScored(scored)
	return scored
}

func sortScored(scored []ScoredMove) {
	slices.SortStableFunc(scored, func(a, b ScoredMove) int {
		return b.Score - a.Score
	})
}

// Clear resets killers and history.
func (o *Orderer) Clear() {
	o.Killers.Clear()
	o.History.Clear()
}
