package toolproto

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// SubprocessConfig describes how to launch the tool server.
type SubprocessConfig struct {
	Command string
	Args    []string
	Env     []string
}

// StartSubprocess launches the tool server and returns a client speaking over
// its stdio. The subprocess lives for the duration of the workflow run; Close
// terminates it.
func StartSubprocess(ctx context.Context, cfg SubprocessConfig, opts Options) (*Client, error) {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		return nil, errors.New("tool server command is required")
	}

	cmd := exec.CommandContext(ctx, command, cfg.Args...)
	cmd.Env = append(os.Environ(), cfg.Env...)
	// Server diagnostics go straight through; the protocol owns stdout.
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open tool server stdin: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open tool server stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start tool server %q: %w", command, err)
	}

	if opts.Logger != nil {
		opts.Logger.Info("tool server started",
			zap.String("command", command),
			zap.Int("pid", cmd.Process.Pid),
		)
	}

	closeFn := func() error {
		// Closing stdin asks the server to exit; kill if it lingers.
		stdin.Close()
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		return cmd.Wait()
	}

	return New(stdout, stdin, closeFn, opts), nil
}
