package moveorder

import (
	"github.com/notnil/chess"

	"github.com/keift/chessanalyzer/rules"
)

// SeeValues are the piece values used for exchange evaluation and
// MVV-LVA, indexed by piece type.
var SeeValues = [7]int{
	chess.King:   20000,
	chess.Queen:  900,
	chess.Rook:   500,
	chess.Bishop: 330,
	chess.Knight: 320,
	chess.Pawn:   100,
}

// cheapest first
var attackerOrder = [6]chess.PieceType{
	chess.Pawn, chess.Knight, chess.Bishop, chess.Rook, chess.Queen, chess.King,
}

// SEE statically evaluates the exchange started by m on its destination
// square: both sides keep recapturing with their least valuable attacker
// and each may stop whenever continuing would lose material. The result is
// the material balance for the moving side. Pins are ignored.
func SEE(board *[64]chess.Piece, m rules.Move) int {
	var gain [40]int
	to := m.To
	occ := rules.Occupancy(board)
	masks := [3]rules.Bitboard{
		chess.White: rules.ColorMask(board, chess.White),
		chess.Black: rules.ColorMask(board, chess.Black),
	}

	onSquare := SeeValues[m.Piece.Type()]
	if m.Captured != chess.NoPiece {
		gain[0] = SeeValues[m.Captured.Type()]
	}
	if m.Promo != chess.NoPieceType {
		gain[0] += SeeValues[m.Promo] - SeeValues[chess.Pawn]
		onSquare = SeeValues[m.Promo]
	}
	occ &^= 1 << uint(m.From)
	if m.Kind.Has(rules.EnPassant) {
		// the captured pawn stands beside the destination
		occ &^= 1 << uint(int(m.From.Rank())*8+int(to.File()))
	}

	side := m.Piece.Color().Other()
	d := 0
	for d < len(gain)-1 {
		attackers := rules.Attackers(board, occ, to) & occ & masks[side]
		if attackers == 0 {
			break
		}
		from, pt := leastValuable(board, attackers)
		if pt == chess.King {
			// the king may only take when nothing defends the square
			rest := occ &^ (1 << uint(from))
			if rules.Attackers(board, rest, to)&rest&masks[side.Other()] != 0 {
				break
			}
		}
		d++
		gain[d] = onSquare - gain[d-1]
		occ &^= 1 << uint(from)
		onSquare = SeeValues[pt]
		side = side.Other()
	}
	for ; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

func leastValuable(board *[64]chess.Piece, attackers rules.Bitboard) (chess.Square, chess.PieceType) {
	for _, pt := range attackerOrder {
		for bb := attackers; bb != 0; bb &= bb - 1 {
			sq := bb.First()
			if board[sq].Type() == pt {
				return sq, pt
			}
		}
	}
	return chess.NoSquare, chess.NoPieceType
}
