package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/db"
	"github.com/jsphweid/stemviz/mixdown"
	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/separate"
)

// Server converts uploads into stems and serves the results. Each job's
// stems live in SeparatedDir/<job id>.
type Server struct {
	UploadDir    string
	SeparatedDir string
	StaticDir    string
	MaxUpload    int64

	Separator separate.Separator
	Mixer     mixdown.Mixer
	Jobs      db.JobStore
	Log       *zap.Logger

	NewID func() string
	Now   func() time.Time
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.New().String()
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Router wires the routes. Paths are not cleaned so traversal attempts
// reach the download handler and are rejected there.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true).SkipClean(true)
	router.Use(s.logRequests)
	router.HandleFunc("/convert", s.HandleConvert).Methods("POST")
	router.HandleFunc("/download_combined", s.HandleDownloadCombined).Methods("POST")
	router.HandleFunc("/download_combined_midi", s.HandleDownloadCombinedMidi).Methods("POST")
	router.HandleFunc("/download/{path:.*}", s.HandleDownload).Methods("GET")
	router.HandleFunc("/", s.handleStatic("main.html")).Methods("GET")
	router.HandleFunc("/style.css", s.handleStatic("style.css")).Methods("GET")
	router.HandleFunc("/script.js", s.handleStatic("script.js")).Methods("GET")
	return router
}

// Handler is the router behind CORS for the given origins.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.Router())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}
