package model

type InstrumentFiles struct {
	MP3  string `json:"mp3"`
	MIDI string `json:"midi"`
}

type ConvertResponse struct {
	JobID             string                     `json:"job_id"`
	InstrumentFiles   map[string]InstrumentFiles `json:"instrument_files"`
	VisualizationData VisualizationBatch         `json:"visualization_data"`

	// Skipped counts notes dropped while decoding, it is never sent.
	Skipped int `json:"-"`
}

type DownloadRequest struct {
	Instruments []string `json:"instruments"`
	JobID       string   `json:"job_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
