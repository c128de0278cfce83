package rules

import (
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/signedchess/internal/model"
)

func TestEvaluateEmptyIsWhiteToMove(t *testing.T) {
	pos, err := New().Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, model.White, pos.Turn)
	assert.False(t, pos.Terminal)
}

func TestEvaluateDescribesPosition(t *testing.T) {
	pos, err := New().Evaluate([]string{"e4"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pos.FEN, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq "), pos.FEN)
	assert.NotEmpty(t, pos.Board)
}

func TestEvaluateTurnFollowsParity(t *testing.T) {
	pos, err := New().Evaluate([]string{"e4"})
	require.NoError(t, err)
	assert.Equal(t, model.Black, pos.Turn)

	pos, err = New().Evaluate([]string{"e4", "e5"})
	require.NoError(t, err)
	assert.Equal(t, model.White, pos.Turn)
}

func TestEvaluateAcceptsAnnotatedAndUCIMoves(t *testing.T) {
	pos, err := New().Evaluate([]string{"e2e4", "e5", "Nf3!", "Nc6", "Bb5", "a6", "Bxc6", "dxc6", "0-0"})
	require.NoError(t, err)
	assert.Equal(t, model.Black, pos.Turn)
	assert.False(t, pos.Terminal)
}

func TestEvaluateRejectsIllegalMove(t *testing.T) {
	_, err := New().Evaluate([]string{"e4", "e4"})
	assert.ErrorIs(t, err, ErrIllegalMove)

	_, err = New().Evaluate([]string{""})
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestEvaluateCheckmate(t *testing.T) {
	pos, err := New().Evaluate([]string{"f3", "e5", "g4", "Qh4#"})
	require.NoError(t, err)
	assert.True(t, pos.Terminal)
	assert.Equal(t, model.ReasonCheckmate, pos.Reason)
}

func TestEvaluateStalemate(t *testing.T) {
	moves := []string{
		"e3", "a5", "Qh5", "Ra6", "Qxa5", "h5", "h4", "Rah6", "Qxc7", "f6",
		"Qxd7+", "Kf7", "Qxb7", "Qd3", "Qxb8", "Qh7", "Qxc8", "Kg6", "Qe6",
	}
	pos, err := New().Evaluate(moves)
	require.NoError(t, err)
	assert.True(t, pos.Terminal)
	assert.Equal(t, model.ReasonStalemate, pos.Reason)
}

func TestEvaluateThreefoldRepetition(t *testing.T) {
	moves := []string{"Nf3", "Nf6", "Ng1", "Ng8", "Nf3", "Nf6", "Ng1", "Ng8"}
	pos, err := New().Evaluate(moves)
	require.NoError(t, err)
	assert.True(t, pos.Terminal)
	assert.Equal(t, model.ReasonThreefoldRepetition, pos.Reason)
}

func TestEvaluateRejectsMovesAfterMate(t *testing.T) {
	_, err := New().Evaluate([]string{"f3", "e5", "g4", "Qh4#", "a3"})
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestReasonFor(t *testing.T) {
	tests := []struct {
		name   string
		method chess.Method
		want   model.Reason
	}{
		{"checkmate", chess.Checkmate, model.ReasonCheckmate},
		{"stalemate", chess.Stalemate, model.ReasonStalemate},
		{"threefold", chess.ThreefoldRepetition, model.ReasonThreefoldRepetition},
		{"fivefold", chess.FivefoldRepetition, model.ReasonThreefoldRepetition},
		{"insufficient material", chess.InsufficientMaterial, model.ReasonInsufficientMaterial},
		{"seventy-five moves", chess.SeventyFiveMoveRule, model.ReasonGameOver},
		{"fifty moves", chess.FiftyMoveRule, model.ReasonGameOver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reasonFor(tt.method))
		})
	}
}
