package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/db"
	"github.com/jsphweid/stemviz/file"
	"github.com/jsphweid/stemviz/midi"
	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/util"
)

// decodeDownload validates a combined download request, writing the error
// response itself when it returns false.
func (s *Server) decodeDownload(w http.ResponseWriter, r *http.Request) (model.DownloadRequest, bool) {
	var req model.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}

	req.Instruments = util.Dedupe(req.Instruments)
	if len(req.Instruments) == 0 {
		writeError(w, http.StatusBadRequest, "No instruments selected")
		return req, false
	}
	for _, instrument := range req.Instruments {
		if instrument == "" || strings.ContainsAny(instrument, `/\`) || strings.Contains(instrument, "..") {
			writeError(w, http.StatusBadRequest, "Invalid instrument")
			return req, false
		}
	}

	if _, err := s.Jobs.Get(r.Context(), req.JobID); err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return req, false
		}
		s.log().Error("could not load job", zap.String("job", req.JobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not load job")
		return req, false
	}
	return req, true
}

func attach(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandleDownloadCombined overlays the selected instruments' mp3 stems.
func (s *Server) HandleDownloadCombined(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeDownload(w, r)
	if !ok {
		return
	}

	var inputs []string
	for _, instrument := range req.Instruments {
		path := file.StemPath(s.SeparatedDir, req.JobID, instrument, "mp3")
		if !file.Exists(path) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("MP3 file for %s not found.", instrument))
			return
		}
		inputs = append(inputs, path)
	}

	var buf bytes.Buffer
	if err := s.Mixer.Mix(r.Context(), inputs, &buf); err != nil {
		s.log().Error("mix failed", zap.String("job", req.JobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not combine MP3 files")
		return
	}
	attach(w, "audio/mpeg", "combined.mp3", buf.Bytes())
}

// HandleDownloadCombinedMidi merges the selected instruments' midi stems,
// one track each.
func (s *Server) HandleDownloadCombinedMidi(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeDownload(w, r)
	if !ok {
		return
	}

	var parts []midi.Part
	for _, instrument := range req.Instruments {
		path := file.StemPath(s.SeparatedDir, req.JobID, instrument, "midi")
		if !file.Exists(path) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("MIDI file for %s not found.", instrument))
			return
		}
		parsed, err := midi.ReadMidiFile(path)
		if err != nil {
			s.log().Error("could not read midi stem", zap.String("path", path), zap.Error(err))
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error loading %s MIDI", instrument))
			return
		}
		parts = append(parts, midi.Part{Instrument: instrument, File: parsed})
	}

	combined, err := midi.Combine(parts)
	var buf bytes.Buffer
	if err == nil {
		err = midi.Write(combined, &buf)
	}
	if err != nil {
		s.log().Error("could not combine midi", zap.String("job", req.JobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not combine MIDI files")
		return
	}
	attach(w, "audio/midi", "combined.midi", buf.Bytes())
}

// HandleDownload serves a single stem by its path relative to the
// separated directory.
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]
	path, err := file.SafeJoin(s.SeparatedDir, rel)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file path")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleStatic(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.StaticDir, name)
		if !file.Exists(path) {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}
