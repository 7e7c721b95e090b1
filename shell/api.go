package shell

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/moveorder"
	"github.com/keift/chessanalyzer/rules"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) setPosition(pos *rules.Position) {
	sc.pos = pos
	sc.played = nil
	sc.lastResult = nil
}

func (sc *ShellController) position(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return sc.show(cmd)
	}
	fen := strings.Join(cmd.args, " ")
	if fen == "startpos" {
		fen = startFEN
	}
	pos, err := rules.Parse(fen)
	if err != nil {
		return nil, err
	}
	sc.setPosition(pos)
	return sc.show(cmd)
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	sb.WriteString(sc.pos.Draw())
	sb.WriteString("\n")
	sb.WriteString(sc.pos.FEN())
	if len(sc.played) > 0 {
		sb.WriteString("\nmoves: " + strings.Join(sc.played, " "))
	}
	switch {
	case sc.pos.IsCheckmate():
		sb.WriteString("\ncheckmate")
	case sc.pos.IsStalemate():
		sb.WriteString("\nstalemate")
	case sc.pos.IsDraw():
		sb.WriteString("\ndraw")
	case sc.pos.InCheck():
		sb.WriteString("\ncheck")
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) fen(cmd *shellcmd) (*Response, error) {
	return msg(sc.pos.FEN()), nil
}

func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	ucis := lo.Map(sc.pos.LegalMoves(), func(m rules.Move, _ int) string { return m.UCI() })
	slices.Sort(ucis)
	return msg(fmt.Sprintf("%d legal moves: %s", len(ucis), strings.Join(ucis, " "))), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("play <uci> [<uci>...]")
	}
	made := 0
	for _, uci := range cmd.args {
		m, err := sc.pos.FindMove(uci)
		if err != nil {
			for ; made > 0; made-- {
				sc.pos.Undo()
				sc.played = sc.played[:len(sc.played)-1]
			}
			return nil, err
		}
		sc.pos.Make(m)
		sc.played = append(sc.played, m.UCI())
		made++
	}
	sc.lastResult = nil
	return sc.show(cmd)
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.played) == 0 {
		return nil, errors.New("nothing to undo")
	}
	sc.pos.Undo()
	sc.played = sc.played[:len(sc.played)-1]
	sc.lastResult = nil
	return sc.show(cmd)
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	score, err := sc.analyzer.Evaluate(sc.pos.FEN())
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("static evaluation: %+d (white's point of view)", score)), nil
}

func (sc *ShellController) see(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("see <uci>")
	}
	m, err := sc.pos.FindMove(cmd.args[0])
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("SEE of %s: %d", m.UCI(), moveorder.SEE(sc.pos.Board(), m))), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	depth, err := cmd.options.IntDefault("depth", 0)
	if err != nil {
		return nil, err
	}
	ms, err := cmd.options.IntDefault("time", 0)
	if err != nil {
		return nil, err
	}
	if depth < 0 || ms < 0 {
		return nil, errors.New("depth and time must not be negative")
	}
	res, err := sc.analyzer.Analyze(context.Background(), sc.pos.FEN(), analyzer.Options{
		Depth:        depth,
		ThinkingTime: time.Duration(ms) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	sc.lastResult = res
	if res.Move == nil {
		return msg("no move: the game is over"), nil
	}
	return msg(fmt.Sprintf("best move: %s\nscore: %d\ndepth: %d\nnodes: %d\ntime: %d ms\npv: %s",
		res.Move, res.Score, res.Depth, res.Nodes, res.ElapsedMs, strings.Join(res.PV, " "))), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}
