package cliframe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// RunCommand runs an external command and returns its standard output.
// A non-zero exit status becomes an error carrying the command's
// standard error output.
func (a *Application) RunCommand(ctx context.Context, argv ...string) ([]byte, error) {
	code, stdout, stderr, err := a.RunCommandUnchecked(ctx, nil, argv...)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		msg := fmt.Sprintf("command failed: %s\n%s", strings.Join(argv, " "), stderr)
		a.logger.Error("external command failed",
			zap.Strings("argv", argv),
			zap.Int("exit_code", code))
		return stdout, errors.New(msg)
	}
	return stdout, nil
}

// RunCommandUnchecked runs an external command, feeding it stdin, and
// returns its exit status along with its standard output and error.
// The returned error covers only failures to run the command at all.
func (a *Application) RunCommandUnchecked(ctx context.Context, stdin []byte, argv ...string) (int, []byte, []byte, error) {
	if len(argv) == 0 {
		return -1, nil, nil, errors.New("empty command")
	}
	a.logger.Debug("run external command", zap.Strings("argv", argv))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), stdout.Bytes(), stderr.Bytes(), nil
	}
	if err != nil {
		return -1, nil, nil, fmt.Errorf("run %s: %w", argv[0], err)
	}
	return 0, stdout.Bytes(), stderr.Bytes(), nil
}
