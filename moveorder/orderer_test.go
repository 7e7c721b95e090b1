package moveorder

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/keift/chessanalyzer/rules"
	"github.com/keift/chessanalyzer/testhelpers"
)

func TestKillerTable(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.KiwipeteFEN)
	k := &KillerTable{}

	quiet1 := mustMove(t, p, "a2a3")
	quiet2 := mustMove(t, p, "g2g3")
	capture := mustMove(t, p, "e2a6")

	k.Store(3, quiet1)
	is.Equal(k.Slot(3, quiet1.Key()), 0)
	k.Store(3, quiet2)
	is.Equal(k.Slot(3, quiet2.Key()), 0)
	is.Equal(k.Slot(3, quiet1.Key()), 1)
	// storing the first killer again does not evict the second
	k.Store(3, quiet2)
	is.Equal(k.Slot(3, quiet1.Key()), 1)

	k.Store(3, capture)
	is.Equal(k.Slot(3, capture.Key()), -1)
	is.Equal(k.Slot(4, quiet1.Key()), -1)
	is.Equal(k.Slot(3, rules.NullKey), -1)

	// out of range plies are ignored
	k.Store(MaxPly+5, quiet1)
	is.Equal(k.Slot(MaxPly+5, quiet1.Key()), -1)
}

func TestHistoryTable(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.KiwipeteFEN)
	h := &HistoryTable{}

	quiet := mustMove(t, p, "a2a3")
	capture := mustMove(t, p, "e2a6")
	h.Add(quiet, 3)
	h.Add(quiet, 4)
	is.Equal(h.Get(quiet.Piece.Color(), quiet.From, quiet.To), 9+16)
	h.Add(capture, 5)
	is.Equal(h.Get(capture.Piece.Color(), capture.From, capture.To), 0)
}

func TestOrderBands(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.KiwipeteFEN)
	o := New()

	hash := mustMove(t, p, "e1g1")
	killer := mustMove(t, p, "a2a4")
	historyMove := mustMove(t, p, "g2g3")
	o.Killers.Store(0, killer)
	o.History.Add(historyMove, 6)

	ordered := o.Order(p.Board(), p.LegalMoves(), 0, hash.Key())
	is.Equal(len(ordered), len(p.LegalMoves()))
	is.Equal(ordered[0].Move.Key(), hash.Key())

	seenQuiet := false
	killerIdx, historyIdx := -1, -1
	for i, sm := range ordered[1:] {
		if sm.IsCapture() {
			// captures come before any quiet move
			is.True(!seenQuiet)
		} else {
			seenQuiet = true
		}
		if sm.Key() == killer.Key() {
			killerIdx = i
		}
		if sm.Key() == historyMove.Key() {
			historyIdx = i
		}
	}
	is.True(killerIdx >= 0)
	// the history move leads the plain quiet moves, right after the killer
	is.Equal(historyIdx, killerIdx+1)
	is.True(ordered[historyIdx+1].Score > ordered[historyIdx+2].Score)
}

func TestOrderCapturesBySEE(t *testing.T) {
	p := mustParse(t, testhelpers.KiwipeteFEN)
	ordered := New().Order(p.Board(), p.LegalMoves(), 0, rules.NullKey)
	var prev *ScoredMove
	for i := range ordered {
		sm := &ordered[i]
		if !sm.IsCapture() {
			break
		}
		if prev != nil {
			assert.GreaterOrEqual(t, prev.SEE, sm.SEE)
			if prev.SEE == sm.SEE {
				assert.GreaterOrEqual(t, MVVLVA(prev.Move), MVVLVA(sm.Move))
			}
		}
		prev = sm
	}
	assert.NotNil(t, prev)
}

func TestOrderPromotion(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.PromotionFEN)
	ordered := New().Order(p.Board(), p.LegalMoves(), 0, rules.NullKey)
	is.Equal(ordered[0].UCI(), "a7a8q")
	is.Equal(ordered[1].UCI(), "a7a8r")
	is.True(ordered[3].Score >= PromotionOffset)
	is.True(ordered[4].Score < PromotionOffset)
}

func TestOrderIsDeterministic(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.ItalianFEN)
	a := New().Order(p.Board(), p.LegalMoves(), 2, rules.NullKey)
	b := New().Order(p.Board(), p.LegalMoves(), 2, rules.NullKey)
	is.Equal(len(a), len(b))
	for i := range a {
		is.Equal(a[i].Key(), b[i].Key())
	}
}

func TestOrderTactical(t *testing.T) {
	is := is.New(t)
	p := mustParse(t, testhelpers.KiwipeteFEN)
	moves := p.LegalMoves()
	tactical := make([]rules.Move, 0, len(moves))
	for _, m := range moves {
		if m.IsCapture() {
			tactical = append(tactical, m)
		}
	}
	ordered := New().OrderTactical(p.Board(), tactical)
	is.Equal(len(ordered), len(tactical))
	for i := 1; i < len(ordered); i++ {
		is.True(ordered[i-1].SEE >= ordered[i].SEE)
	}
}
