package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/stemviz/db"
	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/separate"
)

const testJob = "0f8fad5b-d9cb-469f-a165-70867728950e"

func midiBytes(t *testing.T, key uint8) []byte {
	var tr smf.Track
	tr.Add(0, midi.NoteOn(0, key, 100))
	tr.Add(480, midi.NoteOff(0, key))
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	require.NoError(t, s.Add(tr))

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

// fakeSeparator writes the given stems into the output dir.
type fakeSeparator struct {
	stems map[string][]byte
	err   error
	input string
}

func (f *fakeSeparator) Separate(_ context.Context, input, outDir string) error {
	f.input = input
	if f.err != nil {
		return f.err
	}
	if f.stems == nil {
		return nil
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	for name, data := range f.stems {
		if err := os.WriteFile(filepath.Join(outDir, name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

type fakeMixer struct {
	inputs []string
}

func (f *fakeMixer) Mix(_ context.Context, inputs []string, w io.Writer) error {
	f.inputs = inputs
	_, err := io.WriteString(w, "mixed:"+strings.Join(inputs, ","))
	return err
}

func newTestServer(t *testing.T, sep separate.Separator) (*Server, *fakeMixer) {
	store, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	root := t.TempDir()
	mixer := &fakeMixer{}
	return &Server{
		UploadDir:    filepath.Join(root, "uploads"),
		SeparatedDir: filepath.Join(root, "separated"),
		StaticDir:    filepath.Join(root, "static"),
		Separator:    sep,
		Mixer:        mixer,
		Jobs:         store,
		NewID:        func() string { return testJob },
		Now:          func() time.Time { return time.Unix(1700000000, 0) },
	}, mixer
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	part.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	var res model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Error
}

func TestConvert(t *testing.T) {
	sep := &fakeSeparator{stems: map[string][]byte{}}
	s, _ := newTestServer(t, sep)
	sep.stems["piano.midi"] = midiBytes(t, 60)
	sep.stems["piano.mp3"] = []byte("mp3")
	sep.stems["bass.mp3"] = []byte("mp3")

	w := do(s, uploadRequest(t, "song.mp3", []byte("audio")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res model.ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	assert := assert.New(t)
	assert.Equal(testJob, res.JobID)
	assert.Equal(filepath.Join(s.UploadDir, testJob, "song.mp3"), sep.input)
	assert.Equal(model.InstrumentFiles{MP3: testJob + "/piano.mp3", MIDI: testJob + "/piano.midi"}, res.InstrumentFiles["piano"])
	assert.Equal(model.InstrumentFiles{MP3: testJob + "/bass.mp3"}, res.InstrumentFiles["bass"])
	assert.Equal(model.InstrumentFiles{}, res.InstrumentFiles["guitar"])
	assert.Equal([]model.NoteEvent{{Position: 0, Duration: 0.5, Pitch: 60}}, res.VisualizationData["piano"])
	assert.Empty(res.VisualizationData["guitar"])
	assert.Contains(w.Body.String(), `"guitar":[]`)

	job, err := s.Jobs.Get(context.Background(), testJob)
	require.NoError(t, err)
	assert.Equal("song.mp3", job.Source)
}

func TestConvertRejectsMissingFile(t *testing.T) {
	s, _ := newTestServer(t, &fakeSeparator{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := do(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file part in the request", decodeError(t, w))
}

func TestConvertRejectsEmptyFilename(t *testing.T) {
	s, _ := newTestServer(t, &fakeSeparator{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("file", ""))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := do(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No selected file", decodeError(t, w))
}

func TestConvertSeparatorFailure(t *testing.T) {
	sep := &fakeSeparator{err: &separate.Error{Err: errors.New("exit status 1"), Output: "demucs exploded"}}
	s, _ := newTestServer(t, sep)

	w := do(s, uploadRequest(t, "song.mp3", []byte("audio")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var res model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, model.ErrorResponse{Error: "Conversion process failed", Details: "demucs exploded"}, res)
}

func TestConvertMissingOutput(t *testing.T) {
	s, _ := newTestServer(t, &fakeSeparator{})

	w := do(s, uploadRequest(t, "song.mp3", []byte("audio")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "MIDI conversion failed", decodeError(t, w))
}

// seedJob converts once so a job with stems exists.
func seedJob(t *testing.T, stems map[string][]byte) (*Server, *fakeMixer) {
	s, mixer := newTestServer(t, &fakeSeparator{stems: stems})
	w := do(s, uploadRequest(t, "song.mp3", []byte("audio")))
	require.Equal(t, http.StatusOK, w.Code)
	return s, mixer
}

func downloadRequest(path string, body model.DownloadRequest) *http.Request {
	data, _ := json.Marshal(body)
	return httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
}

func TestDownloadCombinedValidation(t *testing.T) {
	s, _ := seedJob(t, map[string][]byte{"piano.mp3": []byte("a")})

	cases := []struct {
		body   model.DownloadRequest
		status int
		msg    string
	}{
		{model.DownloadRequest{JobID: testJob}, http.StatusBadRequest, "No instruments selected"},
		{model.DownloadRequest{JobID: "nope", Instruments: []string{"piano"}}, http.StatusNotFound, "Job not found"},
		{model.DownloadRequest{JobID: testJob, Instruments: []string{"../piano"}}, http.StatusBadRequest, "Invalid instrument"},
		{model.DownloadRequest{JobID: testJob, Instruments: []string{"piano", "bass"}}, http.StatusNotFound, "MP3 file for bass not found."},
	}
	for _, c := range cases {
		t.Run(c.msg, func(t *testing.T) {
			w := do(s, downloadRequest("/download_combined", c.body))
			assert.Equal(t, c.status, w.Code)
			assert.Equal(t, c.msg, decodeError(t, w))
		})
	}
}

func TestDownloadCombined(t *testing.T) {
	s, mixer := seedJob(t, map[string][]byte{"piano.mp3": []byte("a"), "bass.mp3": []byte("b")})

	w := do(s, downloadRequest("/download_combined", model.DownloadRequest{
		JobID:       testJob,
		Instruments: []string{"piano", "bass", "piano"},
	}))
	require.Equal(t, http.StatusOK, w.Code)

	assert := assert.New(t)
	assert.Equal("audio/mpeg", w.Header().Get("Content-Type"))
	assert.Contains(w.Header().Get("Content-Disposition"), "combined.mp3")
	assert.Len(mixer.inputs, 2)
	assert.True(strings.HasPrefix(w.Body.String(), "mixed:"))
}

func TestDownloadCombinedMidi(t *testing.T) {
	s, _ := seedJob(t, map[string][]byte{"piano.midi": midiBytes(t, 60), "bass.midi": midiBytes(t, 36)})

	w := do(s, downloadRequest("/download_combined_midi", model.DownloadRequest{
		JobID:       testJob,
		Instruments: []string{"piano", "bass"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "combined.midi")

	combined, err := smf.ReadFrom(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Len(t, combined.Tracks, 2)

	w = do(s, downloadRequest("/download_combined_midi", model.DownloadRequest{
		JobID:       testJob,
		Instruments: []string{"guitar"},
	}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MIDI file for guitar not found.", decodeError(t, w))
}

func TestDownloadFile(t *testing.T) {
	s, _ := seedJob(t, map[string][]byte{"piano.mp3": []byte("pianodata")})

	w := do(s, httptest.NewRequest(http.MethodGet, "/download/"+testJob+"/piano.mp3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pianodata", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "piano.mp3")

	w = do(s, httptest.NewRequest(http.MethodGet, "/download/"+testJob+"/guitar.mp3", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found", decodeError(t, w))

	w = do(s, httptest.NewRequest(http.MethodGet, "/download/"+testJob, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, httptest.NewRequest(http.MethodGet, "/download/../uploads/"+testJob+"/song.mp3", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid file path", decodeError(t, w))
}

func TestStaticIndex(t *testing.T) {
	s, _ := newTestServer(t, &fakeSeparator{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, os.MkdirAll(s.StaticDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(s.StaticDir, "main.html"), []byte("<html></html>"), 0644))
	w = do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html></html>", w.Body.String())
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, &fakeSeparator{})
	req := httptest.NewRequest(http.MethodOptions, "/convert", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	w := httptest.NewRecorder()
	s.Handler([]string{"http://localhost:3000"}).ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
