package search

import (
	"github.com/keift/chessanalyzer/eval"
	"github.com/keift/chessanalyzer/moveorder"
	"github.com/keift/chessanalyzer/rules"
)

const (
	Infinity = 1_000_000_000

	nullMinDepth        = 4
	checkExtensionDepth = 3
	lmrMinDepth         = 3
	lmrMinIndex         = 3
	seePruneDepth       = 3
	seePruneMargin      = -100
	maxQuiescencePly    = 10
	maxSearchPly        = moveorder.MaxPly - 1
)

// negamax returns the score of the current position from the side to move's
// point of view. A non-nil error means the search was stopped; the score is
// then meaningless and the caller must unwind without using it.
func (s *Solver) negamax(depth, alpha, beta, ply int, pv *PVLine, allowNull bool) (int, error) {
	if err := s.checkStop(); err != nil {
		return 0, err
	}
	s.nodes++
	pv.Clear()
	pos := s.pos

	if ply > 0 {
		// mate and stalemate outrank the draw rules
		if !pos.HasLegalMoves() {
			if pos.InCheck() {
				return eval.MatedIn(ply), nil
			}
			return eval.Draw, nil
		}
		if pos.IsDraw() {
			return eval.Draw, nil
		}
	}
	if ply >= maxSearchPly {
		return s.evaluator.Relative(pos), nil
	}

	pvNode := beta-alpha > 1
	hashMove := rules.NullKey
	entry := s.ttable.lookup(pos.Hash())
	if entry.valid() {
		hashMove = entry.play
		// exact hits would leave the PV short, so PV nodes search on
		if ply > 0 && entry.Depth() >= depth && !pvNode {
			score := scoreFromTT(entry.score, ply)
			switch entry.flag {
			case TTExact:
				return score, nil
			case TTLower:
				alpha = max(alpha, score)
			case TTUpper:
				beta = min(beta, score)
			}
			if alpha >= beta {
				return score, nil
			}
		}
	}
	// the window actually searched, for classifying the stored bound
	alphaOrig, betaOrig := alpha, beta

	if depth <= 0 {
		return s.quiescence(alpha, beta, ply, 0)
	}

	inCheck := pos.InCheck()
	if allowNull && ply > 0 && !inCheck && depth >= nullMinDepth &&
		!eval.IsMateScore(beta) &&
		s.evaluator.NonPawnMaterial(pos.Board(), pos.Turn()) >= s.evaluator.Params().MaterialMG.Rook {

		r := 2
		if depth >= 7 {
			r = 3
		}
		pos.MakeNull()
		score, err := s.negamax(depth-1-r, -beta, -beta+1, ply+1, &PVLine{}, false)
		pos.Undo()
		if err != nil {
			return 0, err
		}
		score = -score
		if score >= beta {
			s.nullCutoffs++
			if eval.IsMateScore(score) {
				// a null move cannot prove a mate
				score = beta
			}
			return score, nil
		}
	}

	moves := pos.LegalMoves()
	ordered := s.order.Order(pos.Board(), moves, ply, hashMove)

	bestScore := -Infinity
	var bestMove rules.Move
	childPV := &PVLine{}

	for i, sm := range ordered {
		if ply == 0 {
			// root moves are checked individually
			if err := s.checkStop(); err != nil {
				return 0, err
			}
		}
		if ply > 0 && i > 0 && !inCheck && depth <= seePruneDepth &&
			sm.IsCapture() && sm.SEE < seePruneMargin {
			continue
		}

		newDepth := depth - 1
		givesCheck := sm.GivesCheck()
		if givesCheck && depth <= checkExtensionDepth {
			newDepth++
		}

		pos.Make(sm.Move)
		var score int
		var err error
		if i >= lmrMinIndex && depth >= lmrMinDepth && sm.IsQuiet() && !givesCheck && !inCheck {
			r := 1
			if depth >= 6 && i >= 8 {
				r = 2
			}
			score, err = s.negamax(newDepth-r, -alpha-1, -alpha, ply+1, childPV, true)
			score = -score
			if err == nil && score > alpha {
				score, err = s.negamax(newDepth, -beta, -alpha, ply+1, childPV, true)
				score = -score
			}
		} else {
			score, err = s.negamax(newDepth, -beta, -alpha, ply+1, childPV, true)
			score = -score
		}
		pos.Undo()
		if err != nil {
			return 0, err
		}

		if score > bestScore {
			bestScore = score
			bestMove = sm.Move
			if score > alpha {
				alpha = score
				pv.Update(sm.Move, childPV)
			}
		}
		if alpha >= beta {
			s.order.Killers.Store(ply, sm.Move)
			s.order.History.Add(sm.Move, depth)
			break
		}
	}

	flag := uint8(TTExact)
	if bestScore <= alphaOrig {
		flag = TTUpper
	} else if bestScore >= betaOrig {
		flag = TTLower
	}
	tentry := TableEntry{
		score: scoreToTT(bestScore, ply),
		play:  bestMove.Key(),
		depth: uint8(depth),
		flag:  flag,
	}
	if s.storeHook != nil {
		s.storeHook(bestScore, alphaOrig, betaOrig, flag)
	}
	s.ttable.store(pos.Hash(), tentry)
	return bestScore, nil
}

// quiescence resolves captures, promotions and check evasions until the
// position is quiet, standing pat on the static evaluation.
func (s *Solver) quiescence(alpha, beta, ply, qply int) (int, error) {
	if err := s.checkStop(); err != nil {
		return 0, err
	}
	s.nodes++
	s.qnodes++
	pos := s.pos

	inCheck := pos.InCheck()
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		if inCheck {
			return eval.MatedIn(ply), nil
		}
		return eval.Draw, nil
	}
	if pos.IsDraw() {
		return eval.Draw, nil
	}
	if qply >= maxQuiescencePly || ply >= maxSearchPly {
		return s.evaluator.Relative(pos), nil
	}

	best := -Infinity
	if !inCheck {
		standPat := s.evaluator.Relative(pos)
		if standPat >= beta {
			return standPat, nil
		}
		best = standPat
		alpha = max(alpha, standPat)
		tactical := moves[:0]
		for _, m := range moves {
			if m.IsCapture() || m.IsPromotion() {
				tactical = append(tactical, m)
			}
		}
		moves = tactical
	}

	for _, sm := range s.order.OrderTactical(pos.Board(), moves) {
		if !inCheck && sm.IsCapture() && sm.SEE < 0 {
			continue
		}
		pos.Make(sm.Move)
		score, err := s.quiescence(-beta, -alpha, ply+1, qply+1)
		pos.Undo()
		if err != nil {
			return 0, err
		}
		score = -score
		if score > best {
			best = score
			alpha = max(alpha, score)
		}
		if alpha >= beta {
			break
		}
	}
	return best, nil
}
