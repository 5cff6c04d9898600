package server

import (
	"errors"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/constants"
	"github.com/jsphweid/stemviz/file"
	"github.com/jsphweid/stemviz/midi"
	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/separate"
)

func (s *Server) maxUpload() int64 {
	if s.MaxUpload > 0 {
		return s.MaxUpload
	}
	return constants.MaxUploadSize
}

// HandleConvert takes a multipart upload in field "file", separates it and
// answers with the stem files and note data per instrument.
func (s *Server) HandleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload())
	upload, header, err := r.FormFile("file")
	if err != nil {
		if r.MultipartForm != nil && len(r.MultipartForm.Value["file"]) > 0 {
			writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		writeError(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	defer upload.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	jobID := s.newID()
	log := s.log().With(zap.String("job", jobID))

	input, err := file.SaveUpload(filepath.Join(s.UploadDir, jobID), header.Filename, upload)
	if err != nil {
		log.Error("could not save upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not save upload")
		return
	}

	outDir := file.JobDir(s.SeparatedDir, jobID)
	if err := s.Separator.Separate(r.Context(), input, outDir); err != nil {
		log.Error("separation failed", zap.Error(err))
		res := model.ErrorResponse{Error: "Conversion process failed"}
		var sepErr *separate.Error
		if errors.As(err, &sepErr) {
			res.Details = sepErr.Output
		} else {
			res.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	if !file.Exists(outDir) {
		writeError(w, http.StatusInternalServerError, "MIDI conversion failed")
		return
	}

	res := model.ConvertResponse{
		JobID:             jobID,
		InstrumentFiles:   make(map[string]model.InstrumentFiles),
		VisualizationData: make(model.VisualizationBatch),
	}
	for _, instrument := range model.Instruments {
		files := file.InstrumentFiles(s.SeparatedDir, jobID, instrument)
		res.InstrumentFiles[instrument] = files

		notes := make([]model.NoteEvent, 0)
		if files.MIDI != "" {
			extracted, err := midi.ExtractNotesFromFile(file.StemPath(s.SeparatedDir, jobID, instrument, "midi"))
			if err != nil {
				log.Warn("skipping unreadable midi stem", zap.String("instrument", instrument), zap.Error(err))
			} else {
				notes = extracted
			}
		}
		res.VisualizationData[instrument] = notes
	}

	job := model.Job{ID: jobID, Source: header.Filename, CreatedAt: s.now()}
	if err := s.Jobs.Save(r.Context(), job); err != nil {
		log.Error("could not save job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not save job")
		return
	}

	log.Info("converted", zap.String("source", header.Filename))
	writeJSON(w, http.StatusOK, res)
}
