// Command movelog edits a chess move list stored one notation per line.
//
//	movelog <add|undo|redo|list|clear> <file> [move]
//
// The file is only read. The resulting list is printed to stdout and undo
// prints the removed move to stderr. Exit codes: 1 usage, 2 missing move,
// 3 unknown command, 4 illegal move.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/signedchess/internal/history"
	"github.com/mcoot/signedchess/internal/rules"
)

// Exit codes understood by the server's history process adapter
const (
	exitUsage          = 1
	exitMissingMove    = 2
	exitUnknownCommand = 3
	exitIllegalMove    = 4
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	_, _ = fmt.Fprintln(stderr, err)
	switch {
	case errors.Is(err, history.ErrMissingMove):
		return exitMissingMove
	case errors.Is(err, history.ErrUnknownCommand):
		return exitUnknownCommand
	case errors.Is(err, rules.ErrIllegalMove):
		return exitIllegalMove
	default:
		return exitUsage
	}
}

func newCmd(stdout, stderr io.Writer) *cobra.Command {
	var skipRules bool

	root := &cobra.Command{
		Use:   "movelog <add|undo|redo|list|clear> <file> [move]",
		Short: "Edit a chess move list file and print the result",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("usage: movelog <add|undo|redo|list|clear> <file> [move]")
			}
			return fmt.Errorf("%w: %q", history.ErrUnknownCommand, args[0])
		},
	}
	root.PersistentFlags().BoolVar(&skipRules, "no-rules", false, "skip legality checks on added moves")

	run := func(command history.Command) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			var arg string
			if len(args) > 1 {
				arg = args[1]
			}
			var authority rules.Authority
			if !skipRules {
				authority = rules.New()
			}
			return apply(stdout, stderr, authority, command, args[0], arg)
		}
	}

	withMove := []history.Command{history.CommandAdd, history.CommandRedo}
	for _, command := range withMove {
		root.AddCommand(&cobra.Command{
			Use:   string(command) + " <file> [move]",
			Short: "Append a move and print the list",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  run(command),
		})
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "undo <file>",
			Short: "Remove the last move, printing it to stderr",
			Args:  cobra.ExactArgs(1),
			RunE:  run(history.CommandUndo),
		},
		&cobra.Command{
			Use:   "list <file>",
			Short: "Print the list",
			Args:  cobra.ExactArgs(1),
			RunE:  run(history.CommandList),
		},
		&cobra.Command{
			Use:   "clear <file>",
			Short: "Print an empty list",
			Args:  cobra.ExactArgs(1),
			RunE:  run(history.CommandClear),
		},
	)

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	root.SilenceErrors = true
	root.SilenceUsage = true

	return root
}

func apply(stdout, stderr io.Writer, authority rules.Authority, command history.Command, path, arg string) error {
	moves, err := readMoves(path)
	if err != nil {
		return err
	}

	res, err := history.Validate(authority, moves, command, arg)
	if err != nil {
		return err
	}

	if res.Removed != "" {
		_, _ = fmt.Fprintln(stderr, res.Removed)
	}
	for _, m := range res.Moves {
		if _, err := fmt.Fprintln(stdout, m); err != nil {
			return err
		}
	}
	return nil
}

// readMoves loads the list; a missing file is an empty list
func readMoves(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return history.ParseMoves(string(data)), nil
}
