// Package rules replays move sequences against the rules of chess and reports
// whose turn it is and whether the resulting position is terminal.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/mcoot/signedchess/internal/model"
)

// ErrIllegalMove is returned when a notation does not match a legal move in the replayed position
var ErrIllegalMove = errors.New("illegal move")

// Position is the outcome of replaying a move sequence
type Position struct {
	Turn     model.Color
	Terminal bool
	Reason   model.Reason // Empty unless Terminal
	FEN      string
	Board    string // Text diagram, white at the bottom
}

// Authority replays move sequences
type Authority interface {
	Evaluate(moves []string) (Position, error)
}

// Chess is an in-process rules authority for standard chess.
// Moves are accepted in SAN ("Nf3", "exd5", "O-O", "e8=Q+") or UCI ("g1f3").
type Chess struct{}

// New creates a standard chess rules authority
func New() *Chess {
	return &Chess{}
}

var _ Authority = (*Chess)(nil)

// Evaluate replays moves from the initial position
func (c *Chess) Evaluate(moves []string) (Position, error) {
	game := chess.NewGame()
	for i, notation := range moves {
		move, ok := findMove(game, notation)
		if !ok {
			return Position{}, fmt.Errorf("%w: ply %d %q", ErrIllegalMove, i+1, notation)
		}
		if err := game.Move(move); err != nil {
			return Position{}, fmt.Errorf("%w: ply %d %q: %v", ErrIllegalMove, i+1, notation, err)
		}
	}

	pos := Position{
		Turn:  model.White,
		FEN:   game.Position().String(),
		Board: game.Position().Board().Draw(),
	}
	if game.Position().Turn() == chess.Black {
		pos.Turn = model.Black
	}

	if game.Outcome() != chess.NoOutcome {
		pos.Terminal = true
		pos.Reason = reasonFor(game.Method())
		return pos, nil
	}

	// Repetition and fifty-move draws are only claimable, but still end the game here
	for _, draw := range game.EligibleDraws() {
		switch draw {
		case chess.ThreefoldRepetition:
			pos.Terminal = true
			pos.Reason = model.ReasonThreefoldRepetition
			return pos, nil
		case chess.FiftyMoveRule:
			pos.Terminal = true
			pos.Reason = model.ReasonGameOver
		}
	}

	return pos, nil
}

// findMove matches a notation against the legal moves of the current position
func findMove(game *chess.Game, notation string) (*chess.Move, bool) {
	want := normalize(notation)
	if want == "" {
		return nil, false
	}
	pos := game.Position()
	san, uci := chess.AlgebraicNotation{}, chess.UCINotation{}
	for _, m := range game.ValidMoves() {
		if normalize(san.Encode(pos, m)) == want {
			return m, true
		}
		if uci.Encode(pos, m) == want {
			return m, true
		}
	}
	return nil, false
}

var annotations = strings.NewReplacer("+", "", "#", "", "!", "", "?", "", "e.p.", "")

// normalize strips check, mate and commentary annotations
func normalize(notation string) string {
	s := annotations.Replace(strings.TrimSpace(notation))
	switch s {
	case "0-0":
		return "O-O"
	case "0-0-0":
		return "O-O-O"
	}
	return s
}

func reasonFor(method chess.Method) model.Reason {
	switch method {
	case chess.Checkmate:
		return model.ReasonCheckmate
	case chess.Stalemate:
		return model.ReasonStalemate
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return model.ReasonThreefoldRepetition
	case chess.InsufficientMaterial:
		return model.ReasonInsufficientMaterial
	default:
		return model.ReasonGameOver
	}
}
