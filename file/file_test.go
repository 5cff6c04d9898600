package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/stemviz/model"
)

func TestSafeJoin(t *testing.T) {
	cases := map[string]bool{
		"job/piano.mp3":        true,
		"job/./piano.midi":     true,
		"../etc/passwd":        false,
		"job/../../etc/passwd": false,
		"/etc/passwd":          false,
		"":                     false,
	}

	for rel, ok := range cases {
		t.Run(rel, func(t *testing.T) {
			path, err := SafeJoin("/data", rel)
			if ok {
				assert.NoError(t, err)
				assert.True(t, strings.HasPrefix(path, "/data/"))
			} else {
				assert.ErrorIs(t, err, ErrInvalidPath)
			}
		})
	}
}

func TestInstrumentFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(JobDir(root, "j1"), 0755))
	require.NoError(t, os.WriteFile(StemPath(root, "j1", "piano", "mp3"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(StemPath(root, "j1", "piano", "midi"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(StemPath(root, "j1", "bass", "midi"), []byte("x"), 0644))

	assert := assert.New(t)
	assert.Equal(model.InstrumentFiles{MP3: "j1/piano.mp3", MIDI: "j1/piano.midi"}, InstrumentFiles(root, "j1", "piano"))
	assert.Equal(model.InstrumentFiles{MIDI: "j1/bass.midi"}, InstrumentFiles(root, "j1", "bass"))
	assert.Equal(model.InstrumentFiles{}, InstrumentFiles(root, "j1", "guitar"))
}

func TestSaveUpload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	path, err := SaveUpload(dir, "../../song.mp3", strings.NewReader("audio"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "song.mp3"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))

	_, err = SaveUpload(dir, "..", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidPath)
}
