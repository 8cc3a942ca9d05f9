// Package mockbackend serves the storage and function endpoints of the
// hosted backend locally, for offline runs and tests.
package mockbackend

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/httpclient"
	"github.com/oukeidos/skinscan/internal/logger"
)

// Options controls latency and failure injection.
type Options struct {
	// Key, when set, must match the apikey header.
	Key string
	// UploadLatency delays every storage write.
	UploadLatency time.Duration
	// AnalysisLatency delays the function response.
	AnalysisLatency time.Duration
	// FailUploadsMatching makes uploads whose path contains it return 500.
	FailUploadsMatching string
	// AnalysisStatus, when not 0 or 200, is returned by the function.
	AnalysisStatus int
	// AnalysisError makes the function answer 200 with an error field.
	AnalysisError string
}

type Server struct {
	opts Options

	mu          sync.Mutex
	objects     map[string][]byte
	invocations int
}

func New(opts Options) *Server {
	return &Server{opts: opts, objects: make(map[string][]byte)}
}

// Router exposes the backend routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods("GET")

	api := r.NewRoute().Subrouter()
	api.Use(s.requireKey, logRequests)
	api.HandleFunc("/storage/v1/object/{bucket}/{path:.+}", s.handleUpload).Methods("POST", "PUT")
	api.HandleFunc("/functions/v1/{function}", s.handleInvoke).Methods("POST")
	return r
}

// Objects lists stored object keys as bucket/path, sorted.
func (s *Server) Objects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Invocations counts function calls.
func (s *Server) Invocations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invocations
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Key != "" && r.Header.Get("apikey") != s.opts.Key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("Mock backend request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := vars["bucket"] + "/" + vars["path"]

	if !sleep(r.Context(), s.opts.UploadLatency) {
		return
	}
	if m := s.opts.FailUploadsMatching; m != "" && strings.Contains(vars["path"], m) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "injected upload failure"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, httpclient.MaxResponseBytes*8))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty object"})
		return
	}

	s.mu.Lock()
	_, exists := s.objects[key]
	if exists && r.Header.Get("x-upsert") != "true" {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Duplicate", "message": "The resource already exists"})
		return
	}
	s.objects[key] = data
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"Key": key})
}

type invokeRequest struct {
	SessionID  string   `json:"sessionId"`
	ImagePaths []string `json:"imagePaths"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.invocations++
	s.mu.Unlock()

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if !sleep(r.Context(), s.opts.AnalysisLatency) {
		return
	}
	if st := s.opts.AnalysisStatus; st != 0 && st != http.StatusOK {
		writeJSON(w, st, map[string]string{"error": http.StatusText(st)})
		return
	}
	if s.opts.AnalysisError != "" {
		writeJSON(w, http.StatusOK, map[string]string{"error": s.opts.AnalysisError})
		return
	}
	if req.SessionID == "" || len(req.ImagePaths) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sessionId and imagePaths are required"})
		return
	}
	if missing := s.missing(req.ImagePaths); missing != "" {
		writeJSON(w, http.StatusOK, map[string]string{"error": "object not found: " + missing})
		return
	}
	writeJSON(w, http.StatusOK, Fabricate(req.SessionID, len(req.ImagePaths)))
}

// missing returns the first path not stored in any bucket.
func (s *Server) missing(paths []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		found := false
		for k := range s.objects {
			if strings.HasSuffix(k, "/"+p) {
				found = true
				break
			}
		}
		if !found {
			return p
		}
	}
	return ""
}

// Fabricate builds a stable, schema-valid analysis for sessionID.
func Fabricate(sessionID string, images int) analysis.Payload {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	seed := h.Sum32()

	types := []string{"oily", "dry", "combination", "normal", "sensitive"}
	scores := make(map[string]int)
	for i, name := range analysis.StandardScores {
		scores[name] = 40 + int((seed>>(uint(i)*3))%55)
	}
	skinType := types[seed%uint32(len(types))]
	return analysis.Payload{
		ScanID:    "mock-" + sessionID,
		SessionID: sessionID,
		SkinType:  skinType,
		Scores:    scores,
		Concerns:  []string{"dehydration"},
		Summary:   "Analysis generated by the local mock backend from " + strconv.Itoa(images) + " photo(s).",
		Routine: []analysis.Product{
			{Step: "cleanse", Name: "Gentle Gel Cleanser", Reason: "Removes oil without stripping."},
			{Step: "moisturize", Name: "Barrier Cream", Reason: "Supports " + skinType + " skin."},
			{Step: "protect", Name: "SPF 50 Fluid", Reason: "Daily UV protection."},
		},
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
