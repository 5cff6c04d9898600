package file

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/jsphweid/stemviz/model"
)

var ErrInvalidPath = errors.New("Invalid file path")

func JobDir(root, jobID string) string {
	return filepath.Join(root, jobID)
}

// StemPath is where the separator leaves an instrument's stem, ext being
// "mp3" or "midi".
func StemPath(root, jobID, instrument, ext string) string {
	return filepath.Join(root, jobID, instrument+"."+ext)
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// InstrumentFiles lists the stems present for an instrument as paths
// relative to root, empty for missing ones.
func InstrumentFiles(root, jobID, instrument string) model.InstrumentFiles {
	var res model.InstrumentFiles
	if Exists(StemPath(root, jobID, instrument, "mp3")) {
		res.MP3 = jobID + "/" + instrument + ".mp3"
	}
	if Exists(StemPath(root, jobID, instrument, "midi")) {
		res.MIDI = jobID + "/" + instrument + ".midi"
	}
	return res
}

// SafeJoin resolves rel under root, refusing anything that would escape it.
func SafeJoin(root, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	for _, part := range strings.Split(clean, string(filepath.Separator)) {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	return filepath.Join(root, clean), nil
}

// SaveUpload copies r into dir under the base name of filename.
func SaveUpload(dir, filename string, r io.Reader) (string, error) {
	name := filepath.Base(filepath.FromSlash(filename))
	if name == "." || name == string(filepath.Separator) || name == ".." {
		return "", ErrInvalidPath
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "could not create %v", dir)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "could not create %v", path)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", errors.Wrapf(err, "could not write %v", path)
	}
	return path, nil
}
