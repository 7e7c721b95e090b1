package rules

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/notnil/chess"

	"github.com/keift/chessanalyzer/testhelpers"
)

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	p, err := Parse(fen)
	if err != nil {
		t.Fatalf("parse %q: %v", fen, err)
	}
	return p
}

func libraryBoard(p *Position) [64]chess.Piece {
	var b [64]chess.Piece
	for sq := range b {
		b[sq] = p.top().pos.Board().Piece(chess.Square(sq))
	}
	return b
}

func TestParse(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.StartFEN)
	is.Equal(p.FEN(), testhelpers.StartFEN)
	is.Equal(p.Turn(), chess.White)
	is.Equal(len(p.LegalMoves()), 20)
	is.Equal(p.Castling(), uint8(0xf))
	is.Equal(p.EnPassant(), chess.NoSquare)
	is.True(!p.InCheck())
}

func TestParseFourFields(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
	is.Equal(p.FEN(), testhelpers.StartFEN)
}

func TestParseErrors(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{
		"",
		"not a fen",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		// no black king
		"8/8/8/8/8/8/8/K7 w - - 0 1",
		// two white kings
		"k7/8/8/8/8/8/8/K6K w - - 0 1",
		// pawn on the back rank
		"k6P/8/8/8/8/8/8/K7 w - - 0 1",
		// black is in check with white to move
		"k7/8/8/8/8/8/8/R6K w - - 0 1",
	} {
		_, err := Parse(fen)
		is.True(errors.Is(err, ErrInvalidFEN))
	}
}

func TestMoveKinds(t *testing.T) {
	is := is.New(t)

	p := mustParse(t, testhelpers.EnPassantFEN)
	m, err := p.FindMove("e5f6")
	is.NoErr(err)
	is.True(m.Kind.Has(EnPassant))
	is.True(m.IsCapture())
	is.Equal(m.Captured, chess.BlackPawn)

	m, err = p.FindMove("c2c4")
	is.NoErr(err)
	is.True(m.Kind.Has(DoublePush))
	is.True(m.IsQuiet())

	p = mustParse(t, testhelpers.KiwipeteFEN)
	m, err = p.FindMove("e1g1")
	is.NoErr(err)
	is.True(m.Kind.Has(Castle))
	m, err = p.FindMove("e2a6")
	is.NoErr(err)
	is.Equal(m.Captured, chess.BlackBishop)
	is.Equal(m.Piece, chess.WhiteBishop)

	p = mustParse(t, testhelpers.PromotionFEN)
	m, err = p.FindMove("a7a8q")
	is.NoErr(err)
	is.True(m.IsPromotion())
	is.True(!m.IsQuiet())
	is.Equal(m.UCI(), "a7a8q")

	p = mustParse(t, testhelpers.MateInOneFEN)
	m, err = p.FindMove(testhelpers.MateInOneMove)
	is.NoErr(err)
	is.True(m.GivesCheck())

	_, err = p.FindMove("a1b3")
	is.True(errors.Is(err, ErrIllegalMove))
}

func TestMoveKeysAreDistinct(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.PromotionFEN)
	seen := map[MoveKey]bool{}
	for _, m := range p.LegalMoves() {
		is.True(m.Key() != NullKey)
		is.True(!seen[m.Key()])
		seen[m.Key()] = true
	}
}

// walk makes every legal move to the given depth and checks that the
// incremental board and hash agree with ones computed from scratch, and that
// undo restores the position exactly.
func walk(t *testing.T, is *is.I, p *Position, depth int) {
	if depth == 0 {
		return
	}
	fen, hash, ply := p.FEN(), p.Hash(), p.Ply()
	for _, m := range p.LegalMoves() {
		p.Make(m)
		is.Equal(*p.Board(), libraryBoard(p))
		is.Equal(p.Hash(), p.Keys().Hash(p.Board(), p.Turn(), p.Castling(), p.EnPassant()))
		is.Equal(m.GivesCheck(), Attacked(p.Board(), KingSquare(p.Board(), p.Turn()), p.Turn().Other()))
		walk(t, is, p, depth-1)
		p.Undo()
		is.Equal(p.FEN(), fen)
		is.Equal(p.Hash(), hash)
		is.Equal(p.Ply(), ply)
	}
}

func TestMakeUndo(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{
		testhelpers.StartFEN,
		testhelpers.KiwipeteFEN,
		testhelpers.EnPassantFEN,
		testhelpers.PromotionFEN,
	} {
		walk(t, is, mustParse(t, fen), 2)
	}
}

func TestNullMove(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.EnPassantFEN)
	hash := p.Hash()
	p.MakeNull()
	is.Equal(p.Turn(), chess.Black)
	is.True(p.LastMoveNull())
	is.Equal(p.EnPassant(), chess.NoSquare)
	is.Equal(p.Hash(), p.Keys().Hash(p.Board(), p.Turn(), p.Castling(), p.EnPassant()))
	is.True(len(p.LegalMoves()) > 0)
	p.Undo()
	is.Equal(p.Hash(), hash)
	is.Equal(p.Turn(), chess.White)
}

func TestUndoPastRootPanics(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.StartFEN)
	defer func() {
		is.True(recover() != nil)
	}()
	p.Undo()
}

func TestMakeForeignMovePanics(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.StartFEN)
	m, err := p.FindMove("e2e4")
	is.NoErr(err)
	p.Make(m)
	defer func() {
		is.True(recover() != nil)
	}()
	// e2e4 belongs to the previous position
	p.Make(m)
}

func TestTerminalStates(t *testing.T) {
	is := is.New(t)

	p := mustParse(t, testhelpers.CheckmatedFEN)
	is.True(p.InCheck())
	is.True(p.IsCheckmate())
	is.True(!p.IsStalemate())
	is.True(p.IsTerminal())

	p = mustParse(t, testhelpers.StalemateFEN)
	is.True(!p.InCheck())
	is.True(p.IsStalemate())
	is.True(p.IsTerminal())

	p = mustParse(t, testhelpers.KnightDrawFEN)
	is.True(p.IsInsufficientMaterial())
	is.True(p.IsDraw())

	p = mustParse(t, "8/8/4k3/8/8/3BK3/8/8 w - - 99 80")
	is.True(p.IsInsufficientMaterial())
	is.True(!p.IsFiftyMoveDraw())
	m, err := p.FindMove("e3d4")
	is.NoErr(err)
	p.Make(m)
	is.True(p.IsFiftyMoveDraw())

	p = mustParse(t, testhelpers.StartFEN)
	is.True(!p.IsTerminal())
}

func TestInsufficientMaterial(t *testing.T) {
	for _, tc := range []struct {
		fen  string
		want bool
	}{
		{"8/8/4k3/8/8/4K3/8/8 w - - 0 1", true},
		{"8/8/4k3/8/8/3NK3/8/8 w - - 0 1", true},
		// bishops on the same color
		{"8/8/4k1b1/8/8/3BK3/8/8 w - - 0 1", true},
		// opposite colors can still mate
		{"8/8/3bk3/8/8/3BK3/8/8 w - - 0 1", false},
		{"8/8/4k3/8/8/2NNK3/8/8 w - - 0 1", false},
		{"8/8/4k3/8/8/3PK3/8/8 w - - 0 1", false},
		{"8/8/4k3/8/8/3RK3/8/8 w - - 0 1", false},
	} {
		tc := tc
		t.Run(tc.fen, func(t *testing.T) {
			is := is.New(t)
			is.Equal(mustParse(t, tc.fen).IsInsufficientMaterial(), tc.want)
		})
	}
}

func TestThreefoldRepetition(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.StartFEN)
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	for round := 0; round < 2; round++ {
		for _, uci := range shuffle {
			is.True(!p.IsThreefoldRepetition())
			m, err := p.FindMove(uci)
			is.NoErr(err)
			p.Make(m)
		}
	}
	// the start position has now occurred three times
	is.True(p.IsThreefoldRepetition())
	is.True(p.IsDraw())
	p.Undo()
	is.True(!p.IsThreefoldRepetition())
}
