package mixdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// Mixer overlays audio stems into a single mp3 stream.
type Mixer interface {
	Mix(ctx context.Context, inputs []string, w io.Writer) error
}

// FFmpeg mixes with an ffmpeg binary's amix filter.
type FFmpeg struct {
	Bin string
}

func (f *FFmpeg) bin() string {
	if f.Bin == "" {
		return "ffmpeg"
	}
	return f.Bin
}

// Args builds the ffmpeg invocation for several inputs, writing mp3 to stdout.
func (f *FFmpeg) Args(inputs []string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	filter := fmt.Sprintf("amix=inputs=%d:duration=longest:normalize=0", len(inputs))
	return append(args, "-filter_complex", filter, "-c:a", "libmp3lame", "-b:a", "320k", "-f", "mp3", "pipe:1")
}

func (f *FFmpeg) Mix(ctx context.Context, inputs []string, w io.Writer) error {
	switch len(inputs) {
	case 0:
		return errors.New("No audio to combine")
	case 1:
		return copyFile(inputs[0], w)
	}

	cmd := exec.CommandContext(ctx, f.bin(), f.Args(inputs)...)
	var stderr bytes.Buffer
	cmd.Stdout = w
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "ffmpeg mix failed: %s", stderr.String())
	}
	return nil
}

func copyFile(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "could not open %v", path)
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return errors.Wrap(err, "could not copy audio")
}
