package zobrist

import (
	"testing"

	"github.com/matryer/is"
	"github.com/notnil/chess"
)

func TestDeterministicKeys(t *testing.T) {
	is := is.New(t)
	z := New(DefaultSeed)
	is.Equal(*z, *Default)

	other := DefaultSeed
	other[0] ^= 0xff
	is.True(New(other).Piece(chess.WhiteKing, chess.E1) != Default.Piece(chess.WhiteKing, chess.E1))
}

func TestKeysDistinct(t *testing.T) {
	is := is.New(t)
	seen := map[uint64]bool{}
	pieces := []chess.Piece{
		chess.WhiteKing, chess.WhiteQueen, chess.WhiteRook, chess.WhiteBishop, chess.WhiteKnight, chess.WhitePawn,
		chess.BlackKing, chess.BlackQueen, chess.BlackRook, chess.BlackBishop, chess.BlackKnight, chess.BlackPawn,
	}
	for _, p := range pieces {
		for sq := chess.A1; sq <= chess.H8; sq++ {
			k := Default.Piece(p, sq)
			is.True(k != 0)
			is.True(!seen[k])
			seen[k] = true
		}
	}
	is.Equal(len(seen), 12*64)
	is.Equal(Default.Piece(chess.NoPiece, chess.E4), uint64(0))
}

func TestCastlingKeys(t *testing.T) {
	is := is.New(t)
	is.Equal(Default.Castling(0), uint64(0))
	all := WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
	is.Equal(Default.Castling(all),
		Default.Castling(WhiteKingSide)^Default.Castling(WhiteQueenSide)^
			Default.Castling(BlackKingSide)^Default.Castling(BlackQueenSide))
	// losing one right changes the key by exactly that right's key
	is.Equal(Default.Castling(all)^Default.Castling(all&^BlackQueenSide), Default.Castling(BlackQueenSide))
}

func TestEnPassantKeys(t *testing.T) {
	is := is.New(t)
	is.Equal(Default.EnPassant(chess.NoSquare), uint64(0))
	is.Equal(Default.EnPassant(chess.E3), Default.EnPassant(chess.E6))
	is.True(Default.EnPassant(chess.E3) != Default.EnPassant(chess.D3))
}

func TestHash(t *testing.T) {
	is := is.New(t)
	var board [64]chess.Piece
	is.Equal(Default.Hash(&board, chess.White, 0, chess.NoSquare), uint64(0))
	is.Equal(Default.Hash(&board, chess.Black, 0, chess.NoSquare), Default.Side())

	board[chess.E1] = chess.WhiteKing
	board[chess.E8] = chess.BlackKing
	h := Default.Hash(&board, chess.White, WhiteKingSide, chess.E6)
	is.Equal(h, Default.Piece(chess.WhiteKing, chess.E1)^Default.Piece(chess.BlackKing, chess.E8)^
		Default.Castling(WhiteKingSide)^Default.EnPassant(chess.E6))

	// moving the king is two xors
	board[chess.E1], board[chess.E2] = chess.NoPiece, chess.WhiteKing
	h2 := Default.Hash(&board, chess.White, WhiteKingSide, chess.E6)
	is.Equal(h2, h^Default.Piece(chess.WhiteKing, chess.E1)^Default.Piece(chess.WhiteKing, chess.E2))
}
