package rules

import (
	"math/bits"

	"github.com/notnil/chess"
)

// Bitboard is a set of squares, bit i standing for chess.Square(i).
type Bitboard uint64

func (b Bitboard) Has(sq chess.Square) bool {
	return b&(1<<uint(sq)) != 0
}

var (
	knightJumps [64]Bitboard
	kingJumps   [64]Bitboard
	// pawnAttackers[c][sq] holds the squares from which a pawn of color c
	// attacks sq.
	pawnAttackers [3][64]Bitboard

	rookDirs   = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func onBoard(f, r int) bool {
	return f >= 0 && f < 8 && r >= 0 && r < 8
}

func jumpTable(deltas [][2]int) [64]Bitboard {
	var t [64]Bitboard
	for sq := 0; sq < 64; sq++ {
		f, r := sq%8, sq/8
		for _, d := range deltas {
			if onBoard(f+d[0], r+d[1]) {
				t[sq] |= 1 << uint((r+d[1])*8+f+d[0])
			}
		}
	}
	return t
}

func init() {
	knightJumps = jumpTable([][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}})
	kingJumps = jumpTable([][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1},
		{-1, 0}, {-1, -1}, {0, -1}, {1, -1}})
	pawnAttackers[chess.White] = jumpTable([][2]int{{-1, -1}, {1, -1}})
	pawnAttackers[chess.Black] = jumpTable([][2]int{{-1, 1}, {1, 1}})
}

// Occupancy returns the set of non-empty squares.
func Occupancy(board *[64]chess.Piece) Bitboard {
	var occ Bitboard
	for sq, p := range board {
		if p != chess.NoPiece {
			occ |= 1 << uint(sq)
		}
	}
	return occ
}

// ColorMask returns the squares holding pieces of color c.
func ColorMask(board *[64]chess.Piece, c chess.Color) Bitboard {
	var m Bitboard
	for sq, p := range board {
		if p != chess.NoPiece && p.Color() == c {
			m |= 1 << uint(sq)
		}
	}
	return m
}

// Attackers returns every piece of either color attacking sq, considering
// only pieces present in occ. Sliders see through squares missing from occ,
// which is how exchange evaluation uncovers x-ray attackers.
func Attackers(board *[64]chess.Piece, occ Bitboard, sq chess.Square) Bitboard {
	var att Bitboard
	for _, c := range [2]chess.Color{chess.White, chess.Black} {
		for bb := pawnAttackers[c][sq] & occ; bb != 0; bb &= bb - 1 {
			from := bb.First()
			if board[from] == PieceOf(chess.Pawn, c) {
				att |= 1 << uint(from)
			}
		}
	}
	for bb := knightJumps[sq] & occ; bb != 0; bb &= bb - 1 {
		from := bb.First()
		if board[from].Type() == chess.Knight {
			att |= 1 << uint(from)
		}
	}
	for bb := kingJumps[sq] & occ; bb != 0; bb &= bb - 1 {
		from := bb.First()
		if board[from].Type() == chess.King {
			att |= 1 << uint(from)
		}
	}
	att |= slide(board, occ, sq, rookDirs, chess.Rook)
	att |= slide(board, occ, sq, bishopDirs, chess.Bishop)
	return att
}

func slide(board *[64]chess.Piece, occ Bitboard, sq chess.Square,
	dirs [4][2]int, kind chess.PieceType) Bitboard {

	var att Bitboard
	f0, r0 := int(sq.File()), int(sq.Rank())
	for _, d := range dirs {
		for f, r := f0+d[0], r0+d[1]; onBoard(f, r); f, r = f+d[0], r+d[1] {
			s := chess.Square(r*8 + f)
			if !occ.Has(s) {
				continue
			}
			if t := board[s].Type(); t == kind || t == chess.Queen {
				att |= 1 << uint(s)
			}
			break
		}
	}
	return att
}

// First returns the lowest square in the set.
func (b Bitboard) First() chess.Square {
	return chess.Square(bits.TrailingZeros64(uint64(b)))
}

func (b Bitboard) Count() int {
	return bits.OnesCount64(uint64(b))
}

// Attacked reports whether any piece of color by attacks sq.
func Attacked(board *[64]chess.Piece, sq chess.Square, by chess.Color) bool {
	return Attackers(board, Occupancy(board), sq)&ColorMask(board, by) != 0
}

// KingSquare returns the square of c's king, or NoSquare.
func KingSquare(board *[64]chess.Piece, c chess.Color) chess.Square {
	king := PieceOf(chess.King, c)
	for sq, p := range board {
		if p == king {
			return chess.Square(sq)
		}
	}
	return chess.NoSquare
}
