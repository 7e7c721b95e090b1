package eval

import (
	"errors"
	"fmt"
	"os"

	"github.com/notnil/chess"
	"gopkg.in/yaml.v3"
)

var ErrInvalidParams = errors.New("invalid evaluation parameters")

// PieceValues holds one number per piece type. Kings are never counted.
type PieceValues struct {
	Pawn   int `yaml:"pawn"`
	Knight int `yaml:"knight"`
	Bishop int `yaml:"bishop"`
	Rook   int `yaml:"rook"`
	Queen  int `yaml:"queen"`
}

func (v PieceValues) Of(pt chess.PieceType) int {
	switch pt {
	case chess.Pawn:
		return v.Pawn
	case chess.Knight:
		return v.Knight
	case chess.Bishop:
		return v.Bishop
	case chess.Rook:
		return v.Rook
	case chess.Queen:
		return v.Queen
	}
	return 0
}

// Score is a middlegame/endgame pair.
type Score struct {
	MG int `yaml:"mg"`
	EG int `yaml:"eg"`
}

// Params are the tunable weights of the evaluation. Piece-square tables
// are fixed.
type Params struct {
	MaterialMG PieceValues `yaml:"material_mg"`
	MaterialEG PieceValues `yaml:"material_eg"`
	Phase      PieceValues `yaml:"phase"`

	BishopPair   Score `yaml:"bishop_pair"`
	DoubledPawn  Score `yaml:"doubled_pawn"`
	IsolatedPawn Score `yaml:"isolated_pawn"`
	// indexed by rank counted from the pawn's own side; the endgame
	// weight is twice the table value.
	PassedPawn [7]int `yaml:"passed_pawn"`

	ShieldNear    int `yaml:"shield_near"`
	ShieldFar     int `yaml:"shield_far"`
	ShieldMissing int `yaml:"shield_missing"`
	KingOpenFile  int `yaml:"king_open_file"`

	RookOpenFile     Score `yaml:"rook_open_file"`
	RookSemiOpenFile Score `yaml:"rook_semi_open_file"`

	Tempo   int `yaml:"tempo"`
	InCheck int `yaml:"in_check"`
}

// DefaultParams returns PeSTO material with hand-tuned positional terms.
func DefaultParams() *Params {
	return &Params{
		MaterialMG: PieceValues{Pawn: 82, Knight: 337, Bishop: 365, Rook: 477, Queen: 1025},
		MaterialEG: PieceValues{Pawn: 94, Knight: 281, Bishop: 297, Rook: 512, Queen: 936},
		Phase:      PieceValues{Pawn: 0, Knight: 1, Bishop: 1, Rook: 2, Queen: 4},

		BishopPair:   Score{35, 45},
		DoubledPawn:  Score{8, 6},
		IsolatedPawn: Score{10, 8},
		PassedPawn:   [7]int{0, 0, 10, 22, 40, 65, 95},

		ShieldNear:    12,
		ShieldFar:     6,
		ShieldMissing: 8,
		KingOpenFile:  18,

		RookOpenFile:     Score{18, 14},
		RookSemiOpenFile: Score{10, 8},

		Tempo:   10,
		InCheck: 20,
	}
}

// MaxPhase is the phase of the initial position; it is the middlegame end
// of the taper.
func (p *Params) MaxPhase() int {
	return 16*p.Phase.Pawn + 4*p.Phase.Knight + 4*p.Phase.Bishop +
		4*p.Phase.Rook + 2*p.Phase.Queen
}

func (p *Params) Validate() error {
	if p.MaxPhase() <= 0 {
		return fmt.Errorf("%w: phase weights must be positive", ErrInvalidParams)
	}
	if p.MaterialMG.Rook <= 0 || p.MaterialEG.Rook <= 0 {
		return fmt.Errorf("%w: rook value must be positive", ErrInvalidParams)
	}
	return nil
}

// LoadParams reads a YAML file. Keys missing from the file keep their
// default values.
func LoadParams(path string) (*Params, error) {
	bts, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := DefaultParams()
	if err := yaml.Unmarshal(bts, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
