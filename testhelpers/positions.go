// Package testhelpers holds positions shared by the package tests.
package testhelpers

import (
	"strings"
)

const (
	StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	// Kiwipete, the usual move generator torture position.
	KiwipeteFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	// Back rank mate: a1a8.
	MateInOneFEN  = "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"
	MateInOneMove = "a1a8"
	// The same mate with the halfmove clock at 99.
	MateAtFiftyMoveFEN = "6k1/5ppp/8/8/8/8/8/R5K1 w - - 99 80"
	// The same mate for black.
	BlackMateInOneFEN  = "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1"
	BlackMateInOneMove = "a8a1"
	// Fool's mate, white to move and mated.
	CheckmatedFEN = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	StalemateFEN  = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	// The g7 rook is pinned along the long diagonal.
	PinnedRookStalemateFEN = "7k/4N1r1/8/8/2K5/8/8/BB6 b - - 0 1"
	// e5f6 captures en passant.
	EnPassantFEN  = "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3"
	PromotionFEN  = "8/P6k/8/8/8/8/8/K7 w - - 0 1"
	KnightDrawFEN = "8/8/4k3/8/8/3NK3/8/8 w - - 0 1"
	// d5c7 forks king and rook.
	ForkFEN  = "r3k3/ppp2ppp/8/3N4/8/8/PPP2PPP/4K3 w - - 0 1"
	ForkMove = "d5c7"
	// A quiet middlegame used for symmetry and benchmark runs.
	ItalianFEN = "r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/3P1N2/PPP2PPP/RNBQK2R w KQkq - 0 5"
)

// MirrorFEN flips the board vertically and swaps the colors of every piece
// and of the side to move. The mirrored position is equivalent with the
// roles of white and black exchanged.
func MirrorFEN(fen string) string {
	fields := strings.Fields(fen)
	ranks := strings.Split(fields[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	fields[0] = swapCase(strings.Join(ranks, "/"))
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	if fields[2] != "-" {
		c := swapCase(fields[2])
		// keep the conventional KQkq order
		var b strings.Builder
		for _, r := range "KQkq" {
			if strings.ContainsRune(c, r) {
				b.WriteRune(r)
			}
		}
		fields[2] = b.String()
	}
	if fields[3] != "-" {
		rank := fields[3][1]
		fields[3] = string(fields[3][0]) + string('1'+'8'-rank)
	}
	return strings.Join(fields, " ")
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, s)
}
