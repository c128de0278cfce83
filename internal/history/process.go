package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long output pipes are drained after the process is killed
const waitDelay = 500 * time.Millisecond

// ProcessConfig configures the external history executable
type ProcessConfig struct {
	// Path to an executable implementing `<command> <file> [move]`
	Path string
	// Timeout bounds each invocation
	Timeout time.Duration
	// TempDir holds the move files handed to the executable. Empty uses os.TempDir().
	TempDir string
}

// DefaultProcessConfig returns the default external authority settings
func DefaultProcessConfig() ProcessConfig {
	return ProcessConfig{
		Path:    "movelog",
		Timeout: 5 * time.Second,
	}
}

// Process applies commands by running an external executable. The move list is
// written to a temporary file, the resulting list is read from stdout and the
// move removed by undo from stderr.
type Process struct {
	cfg    ProcessConfig
	logger *slog.Logger
}

// NewProcess creates an external-process authority
func NewProcess(cfg ProcessConfig, logger *slog.Logger) *Process {
	return &Process{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "history-process")),
	}
}

var _ Authority = (*Process)(nil)

// Apply implements Authority
func (p *Process) Apply(ctx context.Context, moves []string, cmd Command, arg string) (Result, error) {
	f, err := os.CreateTemp(p.cfg.TempDir, "moves_*.txt")
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	_, err = f.WriteString(FormatMoves(moves))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	// Moves follow "--" so a notation such as "-h" is never parsed as a flag
	args := []string{string(cmd), path}
	if arg != "" {
		args = append(args, "--", arg)
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, p.cfg.Path, args...)
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = waitDelay

	start := time.Now()
	err = c.Run()
	duration := time.Since(start)

	if ctx.Err() != nil {
		p.logger.Warn("history process timed out",
			slog.String("command", string(cmd)),
			slog.Duration("duration", duration))
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			msg := strings.TrimSpace(stderr.String())
			p.logger.Info("history process rejected command",
				slog.String("command", string(cmd)),
				slog.Int("exit_code", exitErr.ExitCode()),
				slog.String("stderr", msg))
			return Result{}, fmt.Errorf("%w: %s", ErrRejected, msg)
		}
		p.logger.Error("history process failed",
			slog.String("command", string(cmd)),
			slog.String("error", err.Error()))
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	p.logger.Debug("history process completed",
		slog.String("command", string(cmd)),
		slog.Duration("duration", duration))

	res := Result{Moves: ParseMoves(stdout.String())}
	if cmd == CommandUndo {
		res.Removed = strings.TrimSpace(stderr.String())
	}
	return res, nil
}
