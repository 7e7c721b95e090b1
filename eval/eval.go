// Package eval scores chess positions with a tapered middlegame/endgame
// evaluation.
package eval

import (
	"github.com/notnil/chess"
)

const (
	Mate = 100000
	Draw = 0
	// MateBound separates mate scores from ordinary evaluations.
	MateBound = Mate - 1000
)

// MatedIn is the score for the side to move being checkmated at ply.
// Faster mates score further from zero.
func MatedIn(ply int) int {
	return -Mate + ply
}

func MateIn(ply int) int {
	return Mate - ply
}

func IsMateScore(score int) bool {
	return score >= MateBound || score <= -MateBound
}

// Board is what the evaluator needs to know about a position.
type Board interface {
	Board() *[64]chess.Piece
	Turn() chess.Color
	InCheck() bool
}

type Evaluator struct {
	params   *Params
	maxPhase int
}

// NewEvaluator uses the default parameters when p is nil.
func NewEvaluator(p *Params) *Evaluator {
	if p == nil {
		p = DefaultParams()
	}
	return &Evaluator{params: p, maxPhase: p.MaxPhase()}
}

func (e *Evaluator) Params() *Params {
	return e.params
}

func sign(c chess.Color) int {
	if c == chess.White {
		return 1
	}
	return -1
}

// pawnMap records pawn counts per file and pawn squares, per color.
type pawnMap struct {
	files   [3][8]int
	squares [3][]chess.Square
}

func (m *pawnMap) has(c chess.Color, f, r int) bool {
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return false
	}
	for _, sq := range m.squares[c] {
		if int(sq.File()) == f && int(sq.Rank()) == r {
			return true
		}
	}
	return false
}

// Evaluate returns the score in centipawns from White's point of view. The
// position must not be terminal.
func (e *Evaluator) Evaluate(b Board) int {
	board := b.Board()
	p := e.params

	var mg, eg, phase int
	var bishops [3]int
	var kings [3]chess.Square
	var rooks [3][]chess.Square
	pawns := &pawnMap{}

	for i, pc := range board {
		if pc == chess.NoPiece {
			continue
		}
		sq := chess.Square(i)
		c, t := pc.Color(), pc.Type()
		s := sign(c)
		idx := pstIndex(sq, c)
		mg += s * (p.MaterialMG.Of(t) + pstMG[t][idx])
		eg += s * (p.MaterialEG.Of(t) + pstEG[t][idx])
		phase += p.Phase.Of(t)

		switch t {
		case chess.Pawn:
			pawns.files[c][sq.File()]++
			pawns.squares[c] = append(pawns.squares[c], sq)
		case chess.Bishop:
			bishops[c]++
		case chess.Rook:
			rooks[c] = append(rooks[c], sq)
		case chess.King:
			kings[c] = sq
		}
	}
	if phase > e.maxPhase {
		phase = e.maxPhase
	}

	for _, c := range [2]chess.Color{chess.White, chess.Black} {
		s := sign(c)
		if bishops[c] >= 2 {
			mg += s * p.BishopPair.MG
			eg += s * p.BishopPair.EG
		}
		pmg, peg := e.pawnStructure(pawns, c)
		kmg, keg := e.kingSafety(pawns, kings[c], c)
		rmg, reg := e.rookFiles(pawns, rooks[c], c)
		mg += s * (pmg + kmg + rmg)
		eg += s * (peg + keg + reg)
	}

	turn := b.Turn()
	mg += sign(turn) * p.Tempo
	eg += sign(turn) * p.Tempo
	if b.InCheck() {
		mg -= sign(turn) * p.InCheck
		eg -= sign(turn) * p.InCheck
	}

	return (mg*phase + eg*(e.maxPhase-phase)) / e.maxPhase
}

// Relative returns Evaluate from the side to move's point of view.
func (e *Evaluator) Relative(b Board) int {
	return sign(b.Turn()) * e.Evaluate(b)
}

// NonPawnMaterial sums the middlegame value of c's knights, bishops, rooks
// and queens.
func (e *Evaluator) NonPawnMaterial(board *[64]chess.Piece, c chess.Color) int {
	total := 0
	for _, pc := range board {
		if pc == chess.NoPiece || pc.Color() != c || pc.Type() == chess.Pawn {
			continue
		}
		total += e.params.MaterialMG.Of(pc.Type())
	}
	return total
}
