package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/model"
)

// Kind selects one of the combined download endpoints.
type Kind string

const (
	KindMP3  Kind = "mp3"
	KindMIDI Kind = "midi"
)

func (k Kind) path() (string, error) {
	switch k {
	case KindMP3:
		return "/download_combined", nil
	case KindMIDI:
		return "/download_combined_midi", nil
	}
	return "", fmt.Errorf("unknown download kind %q", string(k))
}

// Filename is the name the server attaches the download under.
func (k Kind) Filename() string {
	if k == KindMIDI {
		return "combined.midi"
	}
	return "combined.mp3"
}

// APIError is a failure reported by the server, its message passed through
// untouched.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     *zap.Logger
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient}
}

func (c *Client) log() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// Convert uploads the file at path and returns the conversion result. A
// response without visualization data yields an empty batch.
func (c *Client) Convert(ctx context.Context, path string) (*model.ConvertResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %v", path)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, errors.Wrap(err, "could not build upload")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, errors.Wrap(err, "could not read upload")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "could not build upload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/convert", &body)
	if err != nil {
		return nil, errors.Wrap(err, "could not create request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not reach server")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var res model.ConvertResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "could not decode conversion response")
	}
	if res.VisualizationData == nil {
		res.VisualizationData = make(model.VisualizationBatch)
	}
	if res.Skipped > 0 {
		c.log().Warn("dropped undecodable notes", zap.String("job", res.JobID), zap.Int("skipped", res.Skipped))
	}
	return &res, nil
}

// DownloadCombined streams the combined file for the selected instruments
// into w.
func (c *Client) DownloadCombined(ctx context.Context, kind Kind, dr model.DownloadRequest, w io.Writer) error {
	path, err := kind.path()
	if err != nil {
		return err
	}
	data, err := json.Marshal(dr)
	if err != nil {
		return errors.Wrap(err, "could not encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return errors.Wrap(err, "could not reach server")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	_, err = io.Copy(w, resp.Body)
	return errors.Wrap(err, "could not read download")
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var res model.ErrorResponse
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &res); err == nil && res.Error != "" {
		apiErr.Message = res.Error
		apiErr.Details = res.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
