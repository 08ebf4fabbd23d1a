package compress

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/logging"
)

// Exec runs an external compiler: the script is written to its stdin and the
// compressed script is read from its stdout. Anything on stderr is logged as
// a warning. The call blocks until the process exits.
type Exec struct {
	command string
	args    []string
	logger  logging.Logger
}

// NewExec creates a compressor running command with args.
func NewExec(command string, args []string, logger logging.Logger) *Exec {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exec{
		command: command,
		args:    append([]string(nil), args...),
		logger:  logger.WithComponent("compressor"),
	}
}

// NewJar creates a compressor running java -jar jar with args.
func NewJar(jar string, args []string, logger logging.Logger) *Exec {
	return NewExec("java", append([]string{"-jar", jar}, args...), logger)
}

// Argv returns the full command line.
func (e *Exec) Argv() []string {
	return append([]string{e.command}, e.args...)
}

// Compress implements Compressor.
func (e *Exec) Compress(ctx context.Context, script string) (string, error) {
	argv := e.Argv()
	e.logger.Debug(ctx, "compressing inline script", "command", strings.Join(argv, " "), "bytes", len(script))

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = strings.NewReader(script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if diag := strings.TrimSpace(stderr.String()); diag != "" {
		e.logger.Warn(ctx, nil, "compressor diagnostics", "command", e.command, "stderr", diag)
	}

	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errs.NewCompressionError(
			errs.ErrCodeCompressorFailed,
			fmt.Sprintf("%s failed", e.command),
			err,
		)
	}

	return strings.TrimSpace(stdout.String()), nil
}
