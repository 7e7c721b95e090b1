package rules

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"github.com/keift/chessanalyzer/zobrist"
)

var (
	ErrInvalidFEN  = errors.New("invalid fen")
	ErrIllegalMove = errors.New("illegal move")
)

// frame is one node of the make/undo stack.
type frame struct {
	pos      *chess.Position
	board    [64]chess.Piece
	hash     uint64
	halfmove int
	castle   uint8
	ep       chess.Square
	// null marks a frame reached by passing the turn.
	null bool

	moves     []Move
	generated bool
	// 0 unknown, 1 not in check, 2 in check
	check int8
}

// Position is a chess position with a make/undo stack. It is not safe for
// concurrent use; every search owns its own Position.
type Position struct {
	keys   *zobrist.Zobrist
	frames []frame
}

// Parse reads a FEN string. Four-field FENs get default move counters.
// Positions that cannot arise in a legal game (missing kings, pawns on the
// back ranks, the side not to move in check) are rejected.
func Parse(fen string) (p *Position, err error) {
	fields := strings.Fields(fen)
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 6:
	default:
		return nil, fmt.Errorf("%w: expected 4 or 6 fields, got %d", ErrInvalidFEN, len(fields))
	}
	halfmove, err := strconv.Atoi(fields[4])
	if err != nil || halfmove < 0 {
		return nil, fmt.Errorf("%w: bad halfmove clock %q", ErrInvalidFEN, fields[4])
	}
	defer func() {
		// the rules library panics on some malformed boards
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	cp := chess.NewGame(opt).Position()

	f := frame{pos: cp, halfmove: halfmove}
	for sq := range f.board {
		f.board[sq] = cp.Board().Piece(chess.Square(sq))
	}
	if err := validate(&f.board, cp.Turn()); err != nil {
		return nil, err
	}
	f.castle = castleBits(cp)
	f.ep = cp.EnPassantSquare()

	p = &Position{keys: zobrist.Default}
	f.hash = p.keys.Hash(&f.board, cp.Turn(), f.castle, f.ep)
	p.frames = append(make([]frame, 0, 128), f)
	return p, nil
}

func validate(board *[64]chess.Piece, turn chess.Color) error {
	for _, c := range [2]chess.Color{chess.White, chess.Black} {
		kings := 0
		for _, pc := range board {
			if pc == PieceOf(chess.King, c) {
				kings++
			}
		}
		if kings != 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrInvalidFEN, c.Name(), kings)
		}
	}
	for sq, pc := range board {
		if pc.Type() != chess.Pawn {
			continue
		}
		if r := chess.Square(sq).Rank(); r == chess.Rank1 || r == chess.Rank8 {
			return fmt.Errorf("%w: pawn on %s", ErrInvalidFEN, chess.Square(sq))
		}
	}
	if Attacked(board, KingSquare(board, turn.Other()), turn) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidFEN)
	}
	return nil
}

func castleBits(cp *chess.Position) uint8 {
	var bits uint8
	cr := cp.CastleRights()
	if cr.CanCastle(chess.White, chess.KingSide) {
		bits |= zobrist.WhiteKingSide
	}
	if cr.CanCastle(chess.White, chess.QueenSide) {
		bits |= zobrist.WhiteQueenSide
	}
	if cr.CanCastle(chess.Black, chess.KingSide) {
		bits |= zobrist.BlackKingSide
	}
	if cr.CanCastle(chess.Black, chess.QueenSide) {
		bits |= zobrist.BlackQueenSide
	}
	return bits
}

func (p *Position) top() *frame {
	return &p.frames[len(p.frames)-1]
}

// FEN serializes the current position.
func (p *Position) FEN() string {
	return p.top().pos.String()
}

func (p *Position) String() string {
	return p.FEN()
}

// Draw renders the board as text, white at the bottom.
func (p *Position) Draw() string {
	return p.top().pos.Board().Draw()
}

func (p *Position) Turn() chess.Color {
	return p.top().pos.Turn()
}

// Board returns the current placement. The array must not be modified.
func (p *Position) Board() *[64]chess.Piece {
	return &p.top().board
}

func (p *Position) Hash() uint64 {
	return p.top().hash
}

func (p *Position) Castling() uint8 {
	return p.top().castle
}

func (p *Position) EnPassant() chess.Square {
	return p.top().ep
}

func (p *Position) HalfMoveClock() int {
	return p.top().halfmove
}

// Ply is the number of moves made (and not undone) since Parse.
func (p *Position) Ply() int {
	return len(p.frames) - 1
}

// Keys returns the zobrist key set hashes are computed with.
func (p *Position) Keys() *zobrist.Zobrist {
	return p.keys
}

// LastMoveNull reports whether the most recent Make was a null move.
func (p *Position) LastMoveNull() bool {
	return p.top().null
}

func (p *Position) InCheck() bool {
	f := p.top()
	if f.check == 0 {
		f.check = 1
		turn := f.pos.Turn()
		if Attacked(&f.board, KingSquare(&f.board, turn), turn.Other()) {
			f.check = 2
		}
	}
	return f.check == 2
}

func (p *Position) generate() []Move {
	f := p.top()
	if !f.generated {
		raw := f.pos.ValidMoves()
		f.moves = make([]Move, len(raw))
		for i, m := range raw {
			f.moves[i] = newMove(&f.board, m)
		}
		f.generated = true
	}
	return f.moves
}

// LegalMoves returns the legal moves in generation order. The caller owns
// the returned slice.
func (p *Position) LegalMoves() []Move {
	return slices.Clone(p.generate())
}

// HasLegalMoves avoids the copy made by LegalMoves.
func (p *Position) HasLegalMoves() bool {
	return len(p.generate()) > 0
}

// FindMove looks up a legal move by its UCI string.
func (p *Position) FindMove(uci string) (Move, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	for _, m := range p.generate() {
		if m.UCI() == uci {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s in %s", ErrIllegalMove, uci, p.FEN())
}

// Make plays m, which must be one of the current position's legal moves.
func (p *Position) Make(m Move) {
	cur := p.top()
	if m.raw == nil || !slices.ContainsFunc(p.generate(), func(l Move) bool { return l.raw == m.raw }) {
		panic(fmt.Sprintf("rules: %s is not legal in %s", m.UCI(), cur.pos.String()))
	}
	next := frame{
		pos:      cur.pos.Update(m.raw),
		board:    cur.board,
		halfmove: cur.halfmove + 1,
	}
	h := cur.hash ^ p.keys.Side()

	if m.Captured != chess.NoPiece {
		csq := m.captureSquare()
		next.board[csq] = chess.NoPiece
		h ^= p.keys.Piece(m.Captured, csq)
	}
	placed := m.Piece
	if m.Promo != chess.NoPieceType {
		placed = PieceOf(m.Promo, m.Piece.Color())
	}
	next.board[m.From] = chess.NoPiece
	next.board[m.To] = placed
	h ^= p.keys.Piece(m.Piece, m.From) ^ p.keys.Piece(placed, m.To)

	if m.Kind.Has(Castle) {
		rf, rt := m.castleRook()
		rook := next.board[rf]
		next.board[rf] = chess.NoPiece
		next.board[rt] = rook
		h ^= p.keys.Piece(rook, rf) ^ p.keys.Piece(rook, rt)
	}
	if m.Piece.Type() == chess.Pawn || m.Captured != chess.NoPiece {
		next.halfmove = 0
	}

	next.castle = castleBits(next.pos)
	next.ep = next.pos.EnPassantSquare()
	h ^= p.keys.Castling(cur.castle) ^ p.keys.Castling(next.castle)
	h ^= p.keys.EnPassant(cur.ep) ^ p.keys.EnPassant(next.ep)
	next.hash = h
	if m.GivesCheck() {
		next.check = 2
	} else {
		next.check = 1
	}
	p.frames = append(p.frames, next)
}

// MakeNull passes the turn. It must not be called while in check.
func (p *Position) MakeNull() {
	cur := p.top()
	if p.InCheck() {
		panic("rules: null move while in check")
	}
	fields := strings.Fields(cur.pos.String())
	fields[1] = cur.pos.Turn().Other().String()
	fields[3] = "-"
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		panic(fmt.Sprintf("rules: null move from %s: %v", cur.pos.String(), err))
	}
	next := frame{
		pos:      chess.NewGame(opt).Position(),
		board:    cur.board,
		halfmove: cur.halfmove + 1,
		castle:   cur.castle,
		ep:       chess.NoSquare,
		null:     true,
		check:    1,
	}
	next.hash = cur.hash ^ p.keys.Side() ^ p.keys.EnPassant(cur.ep)
	p.frames = append(p.frames, next)
}

// Undo takes back the last Make or MakeNull.
func (p *Position) Undo() {
	if len(p.frames) == 1 {
		panic("rules: undo past the root position")
	}
	p.frames[len(p.frames)-1] = frame{}
	p.frames = p.frames[:len(p.frames)-1]
}

func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsFiftyMoveDraw reports whether a hundred plies passed without a pawn
// move or capture.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.top().halfmove >= 100
}

// IsThreefoldRepetition counts occurrences of the current position since the
// last irreversible move. Positions before Parse are unknown and not
// counted, and repetitions are not tracked across a null move.
func (p *Position) IsThreefoldRepetition() bool {
	cur := p.top()
	last := len(p.frames) - 1
	count := 1
	for i := last - 1; i >= 0 && i >= last-cur.halfmove; i-- {
		if p.frames[i+1].null {
			break
		}
		if (last-i)%2 == 0 && p.frames[i].hash == cur.hash {
			count++
			if count >= 3 {
				return true
			}
		}
	}
	return false
}

// IsInsufficientMaterial covers K v K, K+minor v K and bishops that all
// stand on one square color.
func (p *Position) IsInsufficientMaterial() bool {
	var minors, knights int
	var bishopColors [2]int
	for sq, pc := range p.top().board {
		switch pc.Type() {
		case chess.NoPieceType, chess.King:
		case chess.Knight:
			minors++
			knights++
		case chess.Bishop:
			minors++
			s := chess.Square(sq)
			bishopColors[(int(s.File())+int(s.Rank()))%2]++
		default:
			return false
		}
	}
	if minors <= 1 {
		return true
	}
	// any number of bishops on one color cannot mate
	return knights == 0 && (bishopColors[0] == 0 || bishopColors[1] == 0)
}

// IsDraw reports draws by rule, not stalemate.
func (p *Position) IsDraw() bool {
	return p.IsFiftyMoveDraw() || p.IsInsufficientMaterial() || p.IsThreefoldRepetition()
}

// IsTerminal reports whether the game is over in this position.
func (p *Position) IsTerminal() bool {
	return !p.HasLegalMoves() || p.IsDraw()
}
