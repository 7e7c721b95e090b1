package zobrist

import (
	"github.com/notnil/chess"
	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// Castling right bits, as used by Castling.
const (
	WhiteKingSide uint8 = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
)

// DefaultSeed keeps keys identical across processes, so hashes (and
// therefore search results) are reproducible.
var DefaultSeed = [32]byte{
	0x6d, 0x61, 0x63, 0x6f, 0x6e, 0x64, 0x6f, 0x2d,
	0x63, 0x68, 0x65, 0x73, 0x73, 0x2d, 0x7a, 0x6f,
	0x62, 0x72, 0x69, 0x73, 0x74, 0x2d, 0x6b, 0x65,
	0x79, 0x73, 0x2d, 0x76, 0x31, 0x00, 0x00, 0x01,
}

// Default is the shared, read-only key set.
var Default = New(DefaultSeed)

// generate a zobrist hash for a chess position.
// https://www.chessprogramming.org/Zobrist_Hashing
type Zobrist struct {
	blackToMove uint64

	pieceTable [12][64]uint64
	castling   [16]uint64
	enPassant  [8]uint64
}

// New builds a key set from a 32-byte seed.
func New(seed [32]byte) *Zobrist {
	z := &Zobrist{}
	z.Initialize(seed)
	return z
}

func (z *Zobrist) Initialize(seed [32]byte) {
	rng := frand.NewCustom(seed[:], 1024, 12)
	for i := range z.pieceTable {
		for j := range z.pieceTable[i] {
			z.pieceTable[i][j] = rng.Uint64n(bignum) + 1
		}
	}
	// each right gets a key; a rights set is the xor of its members.
	var single [4]uint64
	for i := range single {
		single[i] = rng.Uint64n(bignum) + 1
	}
	for rights := range z.castling {
		for i := range single {
			if rights&(1<<i) != 0 {
				z.castling[rights] ^= single[i]
			}
		}
	}
	for i := range z.enPassant {
		z.enPassant[i] = rng.Uint64n(bignum) + 1
	}
	z.blackToMove = rng.Uint64n(bignum) + 1
}

func pieceIndex(p chess.Piece) int {
	return (int(p.Color())-1)*6 + int(p.Type()) - 1
}

// Piece returns the key for p standing on sq. NoPiece hashes to zero.
func (z *Zobrist) Piece(p chess.Piece, sq chess.Square) uint64 {
	if p == chess.NoPiece {
		return 0
	}
	return z.pieceTable[pieceIndex(p)][sq]
}

// Side is xored in whenever the side to move changes.
func (z *Zobrist) Side() uint64 {
	return z.blackToMove
}

func (z *Zobrist) Castling(rights uint8) uint64 {
	return z.castling[rights&0xf]
}

// EnPassant keys only the file of the target square.
func (z *Zobrist) EnPassant(sq chess.Square) uint64 {
	if sq == chess.NoSquare {
		return 0
	}
	return z.enPassant[sq.File()]
}

// Hash computes a key from scratch.
func (z *Zobrist) Hash(board *[64]chess.Piece, turn chess.Color, rights uint8,
	ep chess.Square) uint64 {

	key := uint64(0)
	for sq, p := range board {
		key ^= z.Piece(p, chess.Square(sq))
	}
	if turn == chess.Black {
		key ^= z.blackToMove
	}
	key ^= z.Castling(rights)
	key ^= z.EnPassant(ep)
	return key
}
