package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/keift/chessanalyzer/rules"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
	// Moves is set for commands that take legal moves as arguments.
	Moves bool
}

var commandMetadata = map[string]CommandMetadata{
	"analyze":  {Options: []string{"-depth", "-time"}},
	"position": {Args: []string{"startpos"}},
	"help":     {Args: []string{"analyze", "see", "position"}},
	"play":     {Moves: true},
	"see":      {Moves: true},
}

var commandNames = []string{
	"help", "position", "show", "fen", "moves", "play", "undo", "eval",
	"see", "analyze", "exit",
}

var depthValues = []string{"4", "6", "8", "10", "12"}
var timeValues = []string{"500", "1200", "2500", "5000", "10000"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch lastCompleteField {
		case "-depth":
			completions = depthValues
		case "-time":
			completions = timeValues
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				switch {
				case strings.HasPrefix(prefix, "-"):
					completions = metadata.Options
				case metadata.Moves && c.sc != nil && c.sc.pos != nil:
					completions = lo.Map(c.sc.pos.LegalMoves(), func(m rules.Move, _ int) string { return m.UCI() })
				case len(metadata.Args) > 0:
					completions = metadata.Args
				default:
					completions = metadata.Options
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
