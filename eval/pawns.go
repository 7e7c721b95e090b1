package eval

import (
	"github.com/notnil/chess"
)

// relativeRank counts ranks from c's own back rank.
func relativeRank(sq chess.Square, c chess.Color) int {
	if c == chess.White {
		return int(sq.Rank())
	}
	return 7 - int(sq.Rank())
}

func (e *Evaluator) isPassed(pawns *pawnMap, sq chess.Square, c chess.Color) bool {
	f, r := int(sq.File()), int(sq.Rank())
	for _, enemy := range pawns.squares[c.Other()] {
		ef, er := int(enemy.File()), int(enemy.Rank())
		if ef < f-1 || ef > f+1 {
			continue
		}
		if (c == chess.White && er > r) || (c == chess.Black && er < r) {
			return false
		}
	}
	return true
}

func (e *Evaluator) pawnStructure(pawns *pawnMap, c chess.Color) (mg, eg int) {
	p := e.params
	files := &pawns.files[c]
	for f := 0; f < 8; f++ {
		n := files[f]
		if n == 0 {
			continue
		}
		if n > 1 {
			mg -= p.DoubledPawn.MG * (n - 1)
			eg -= p.DoubledPawn.EG * (n - 1)
		}
		left := f > 0 && files[f-1] > 0
		right := f < 7 && files[f+1] > 0
		if !left && !right {
			mg -= p.IsolatedPawn.MG * n
			eg -= p.IsolatedPawn.EG * n
		}
	}
	for _, sq := range pawns.squares[c] {
		if !e.isPassed(pawns, sq, c) {
			continue
		}
		r := min(max(relativeRank(sq, c), 1), 6)
		mg += p.PassedPawn[r]
		eg += 2 * p.PassedPawn[r]
	}
	return mg, eg
}

// kingSafety scores the pawn shield on the three files around the king.
func (e *Evaluator) kingSafety(pawns *pawnMap, king chess.Square, c chess.Color) (mg, eg int) {
	p := e.params
	dir := 1
	if c == chess.Black {
		dir = -1
	}
	f, r := int(king.File()), int(king.Rank())
	shield := 0
	for df := -1; df <= 1; df++ {
		nf := f + df
		if nf < 0 || nf > 7 {
			continue
		}
		switch {
		case pawns.has(c, nf, r+dir):
			shield += p.ShieldNear
		case pawns.has(c, nf, r+2*dir):
			shield += p.ShieldFar
		default:
			shield -= p.ShieldMissing
		}
	}
	mg = shield
	eg = shield / 3
	if pawns.files[c][f] == 0 {
		mg -= p.KingOpenFile
	}
	return mg, eg
}

func (e *Evaluator) rookFiles(pawns *pawnMap, rooks []chess.Square, c chess.Color) (mg, eg int) {
	p := e.params
	for _, sq := range rooks {
		f := sq.File()
		if pawns.files[c][f] > 0 {
			continue
		}
		if pawns.files[c.Other()][f] == 0 {
			mg += p.RookOpenFile.MG
			eg += p.RookOpenFile.EG
		} else {
			mg += p.RookSemiOpenFile.MG
			eg += p.RookSemiOpenFile.EG
		}
	}
	return mg, eg
}
