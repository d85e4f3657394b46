package disk

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jbweber/ironvirt/internal/logger"
)

// ErrCommandFailed is returned when an external tool exits non-zero.
var ErrCommandFailed = errors.New("command failed")

// Runner executes an external tool and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. A non-zero exit yields ErrCommandFailed
// with the tool's output attached.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger.FromContext(ctx).DebugContext(ctx, "running command", "cmd", name, "args", strings.Join(args, " "))

	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%w: %s: %v\nOutput: %s", ErrCommandFailed, name, err, string(output))
	}
	return output, nil
}
