package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/services/session"
	"github.com/mcoot/signedchess/internal/signature"
)

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a session playing white with the --key key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := cfg.LoadKey(cfg.KeyName)
			if err != nil {
				return err
			}

			var result CreateResult
			body := map[string]string{"whitePublicKey": kp.PublicKey}
			if err := client.Post(cmd.Context(), "/session", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <session-id>",
		Short: "Join a session as black with the --key key pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := cfg.LoadKey(cfg.KeyName)
			if err != nil {
				return err
			}

			body := map[string]string{"blackPublicKey": kp.PublicKey}
			return postSession(cmd, fmt.Sprintf("/session/%s/join", args[0]), body)
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id>",
		Short: "Show the current state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SessionResult

			if err := client.Get(cmd.Context(), fmt.Sprintf("/session/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result.Session)
			return nil
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <session-id> <move>",
		Short: "Sign and submit a move in algebraic notation",
		Long: `Sign "<session-id>|<move>" with the --key key pair and submit it.

Moves are standard algebraic notation (e4, Nf3, O-O, e8=Q) or UCI (e2e4).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, notation := model.SessionID(args[0]), args[1]

			if err := session.ValidateNotation(notation); err != nil {
				return err
			}

			kp, err := cfg.LoadKey(cfg.KeyName)
			if err != nil {
				return err
			}

			sig, err := signature.Sign(kp.PrivateKey, signature.MoveMessage(id, notation))
			if err != nil {
				return err
			}

			body := map[string]string{
				"move":      notation,
				"publicKey": kp.PublicKey,
				"signature": sig,
			}
			return postSession(cmd, fmt.Sprintf("/session/%s/move", id), body)
		},
	}
}

func newUndoCmd() *cobra.Command {
	return newReviewCmd("undo", "Take back the last move of a finished game")
}

func newRedoCmd() *cobra.Command {
	return newReviewCmd("redo", "Replay the most recently undone move")
}

func newResetCmd() *cobra.Command {
	return newReviewCmd("reset", "Clear the move list of a finished game")
}

func newReviewCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postSession(cmd, fmt.Sprintf("/session/%s/%s", args[0], action), nil)
		},
	}
}

func postSession(cmd *cobra.Command, path string, body any) error {
	var result SessionResult

	if err := client.Post(cmd.Context(), path, body, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	out.Print(result.Session)
	return nil
}
