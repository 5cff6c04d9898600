package separate

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Separator splits an audio file into per-instrument stems under outDir,
// leaving <instrument>.mp3 and <instrument>.midi files there.
type Separator interface {
	Separate(ctx context.Context, input, outDir string) error
}

// CommandSeparator runs an external separation program. The placeholders
// {input} and {out} in Args are replaced per call.
type CommandSeparator struct {
	Bin  string
	Args []string
	Log  *zap.Logger
}

// Error carries the captured output of a failed separation run.
type Error struct {
	Err    error
	Output string
}

func (e *Error) Error() string {
	return "Conversion process failed: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (c *CommandSeparator) args(input, outDir string) []string {
	r := strings.NewReplacer("{input}", input, "{out}", outDir)
	res := make([]string, len(c.Args))
	for i, a := range c.Args {
		res[i] = r.Replace(a)
	}
	return res
}

func (c *CommandSeparator) Separate(ctx context.Context, input, outDir string) error {
	if _, err := exec.LookPath(c.Bin); err != nil {
		return errors.Wrapf(err, "separator %v not found in PATH", c.Bin)
	}

	args := c.args(input, outDir)
	cmd := exec.CommandContext(ctx, c.Bin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("running separator", zap.String("bin", c.Bin), zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		return &Error{Err: err, Output: out.String()}
	}
	log.Debug("separator finished", zap.String("output", out.String()))
	return nil
}
