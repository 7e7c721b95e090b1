package rules

import (
	"github.com/notnil/chess"
)

// Kind is a set of move classification flags, computed once when the move
// is generated.
type Kind uint8

const (
	Capture Kind = 1 << iota
	Promotion
	Castle
	EnPassant
	DoublePush
	Check
)

func (k Kind) Has(flag Kind) bool {
	return k&flag != 0
}

// MoveKey identifies a move by its squares and promotion piece. It fits in
// 16 bits and is never zero for a real move.
type MoveKey uint16

const NullKey MoveKey = 0

// Move is a legal move together with the metadata the engine needs.
type Move struct {
	From     chess.Square
	To       chess.Square
	Promo    chess.PieceType
	Piece    chess.Piece
	Captured chess.Piece
	Kind     Kind

	raw *chess.Move
}

func (m Move) IsCapture() bool {
	return m.Kind.Has(Capture)
}

func (m Move) IsPromotion() bool {
	return m.Kind.Has(Promotion)
}

// IsQuiet reports whether the move neither captures nor promotes.
func (m Move) IsQuiet() bool {
	return !m.Kind.Has(Capture | Promotion)
}

func (m Move) GivesCheck() bool {
	return m.Kind.Has(Check)
}

func (m Move) Key() MoveKey {
	return MoveKey(uint16(m.From) | uint16(m.To)<<6 | uint16(m.Promo)<<12)
}

// UCI renders the move in long algebraic notation, e.g. e7e8q.
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promo != chess.NoPieceType {
		s += PromoString(m.Promo)
	}
	return s
}

func (m Move) String() string {
	return m.UCI()
}

// PromoString returns the lowercase letter of a promotion piece.
func PromoString(pt chess.PieceType) string {
	switch pt {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	}
	return ""
}

var pieceTable = [3][7]chess.Piece{
	{},
	{chess.NoPiece, chess.WhiteKing, chess.WhiteQueen, chess.WhiteRook,
		chess.WhiteBishop, chess.WhiteKnight, chess.WhitePawn},
	{chess.NoPiece, chess.BlackKing, chess.BlackQueen, chess.BlackRook,
		chess.BlackBishop, chess.BlackKnight, chess.BlackPawn},
}

// PieceOf returns the piece of the given type and color.
func PieceOf(pt chess.PieceType, c chess.Color) chess.Piece {
	return pieceTable[c][pt]
}

func newMove(board *[64]chess.Piece, raw *chess.Move) Move {
	m := Move{
		From:  raw.S1(),
		To:    raw.S2(),
		Promo: raw.Promo(),
		Piece: board[raw.S1()],
		raw:   raw,
	}
	color := m.Piece.Color()
	switch {
	case raw.HasTag(chess.EnPassant):
		m.Kind |= Capture | EnPassant
		m.Captured = PieceOf(chess.Pawn, color.Other())
	case raw.HasTag(chess.Capture):
		m.Kind |= Capture
		m.Captured = board[m.To]
	}
	if m.Promo != chess.NoPieceType {
		m.Kind |= Promotion
	}
	if raw.HasTag(chess.KingSideCastle) || raw.HasTag(chess.QueenSideCastle) {
		m.Kind |= Castle
	}
	if m.Piece.Type() == chess.Pawn && (m.To-m.From == 16 || m.From-m.To == 16) {
		m.Kind |= DoublePush
	}
	if raw.HasTag(chess.Check) {
		m.Kind |= Check
	}
	return m
}

// captureSquare is where the captured piece stood; it differs from To only
// for en passant.
func (m Move) captureSquare() chess.Square {
	if !m.Kind.Has(EnPassant) {
		return m.To
	}
	if m.Piece.Color() == chess.White {
		return m.To - 8
	}
	return m.To + 8
}

// castleRook returns the rook's origin and destination for a castling move.
func (m Move) castleRook() (chess.Square, chess.Square) {
	if m.To.File() == chess.FileG {
		return m.To + 1, m.To - 1
	}
	return m.To - 2, m.To + 1
}
