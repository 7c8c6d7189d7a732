// Package server exposes the pipeline and the predictor over HTTP: train on
// the assembled features, score single applicants, report accuracy and
// feature importances.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ChronoBoot/loan-score/internal/config"
	"github.com/ChronoBoot/loan-score/internal/datasource"
	"github.com/ChronoBoot/loan-score/internal/datasource/httpds"
	"github.com/ChronoBoot/loan-score/internal/features"
	"github.com/ChronoBoot/loan-score/internal/frame"
	"github.com/ChronoBoot/loan-score/internal/model"
	csvparser "github.com/ChronoBoot/loan-score/internal/parser/csv"
	"github.com/ChronoBoot/loan-score/internal/schema"
	"github.com/ChronoBoot/loan-score/internal/storage"
)

// Artifact names written under DataDir and SchemaDir.
const (
	FeatureFile = "loans_processed.csv"
	SchemaFile  = "data_structure.json"
)

// FeatureTable is the feature-store table name used when persistence is on.
const FeatureTable = "loan_features"

// Logger matches *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Server holds one predictor guarded by a mutex. Training replaces it;
// predict, evaluate and importance queries read it.
type Server struct {
	cfg config.Service
	log Logger

	mu        sync.Mutex
	predictor *model.Predictor
}

// New returns a server for the given configuration.
func New(cfg config.Service, log Logger) *Server {
	return &Server{cfg: cfg, log: log, predictor: model.NewPredictor()}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/train", s.handleTrain)
	r.Post("/predict", s.handlePredict)
	r.Get("/evaluate", s.handleEvaluate)
	r.Post("/most-important-features", s.handleMostImportant)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type trainRequest struct {
	SamplingFrequency int    `json:"sampling_frequency"`
	TargetVariable    string `json:"target_variable"`
	Rewrite           bool   `json:"rewrite"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.SamplingFrequency == 0 {
		req.SamplingFrequency = s.cfg.SamplingFrequency
	}
	if req.TargetVariable == "" {
		req.TargetVariable = s.cfg.TargetVariable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.ensureFeatures(r.Context(), req.SamplingFrequency, req.Rewrite)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	predictor := model.NewPredictor()
	if err := predictor.Train(data, req.TargetVariable); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.predictor = predictor

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "model trained successfully",
		"rows":    data.NumRows(),
	})
}

type predictRequest struct {
	Loan map[string]any `json:"loan"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pred, err := s.predictor.Predict(req.Loan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"prediction": pred})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.predictor.Accuracy()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"accuracy": acc})
}

type mostImportantRequest struct {
	NumFeatures int `json:"nb_features"`
}

func (s *Server) handleMostImportant(w http.ResponseWriter, r *http.Request) {
	var req mostImportantRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	top, err := s.predictor.MostImportant(req.NumFeatures)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": top})
}

// ensureFeatures returns the training feature table, assembling it from the
// source CSVs when rewrite is set or no feature CSV exists yet. Assembling
// also refreshes the schema descriptor and, when configured, the feature
// store.
func (s *Server) ensureFeatures(ctx context.Context, samplingRate int, rewrite bool) (*frame.Table, error) {
	path := filepath.Join(s.cfg.DataDir, FeatureFile)
	if !rewrite {
		if _, err := os.Stat(path); err == nil {
			return s.readFeatures(ctx, path)
		}
	}

	loader := &datasource.Loader{
		BaseURL: s.cfg.SourceBaseURL,
		Client:  httpds.NewClient(httpds.Config{}),
		Logger:  s.log,
	}
	if err := loader.Ensure(ctx, s.cfg.DataDir, features.SourceFiles); err != nil {
		return nil, err
	}

	asm := features.NewAssembler(s.cfg.DataDir)
	asm.Logger = s.log
	data, err := asm.WriteFeatures(ctx, samplingRate, true, FeatureFile)
	if err != nil {
		return nil, err
	}

	profile := schema.Profile(data)
	if err := profile.WriteFile(s.cfg.SchemaDir, SchemaFile); err != nil {
		return nil, err
	}

	if s.cfg.StorageKind != "" {
		if err := s.persist(ctx, data, profile); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (s *Server) readFeatures(ctx context.Context, path string) (*frame.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("server: open %s: %w", path, err)
	}
	defer f.Close()

	t, err := csvparser.ReadTable(ctx, f, config.Options{})
	if err != nil {
		return nil, fmt.Errorf("server: read %s: %w", path, err)
	}
	return t, nil
}

func (s *Server) persist(ctx context.Context, data *frame.Table, profile schema.Schema) error {
	repo, err := storage.New(ctx, storage.Config{Kind: s.cfg.StorageKind, DSN: s.cfg.StorageDSN})
	if err != nil {
		return err
	}
	defer repo.Close()

	n, err := repo.ReplaceFeatures(ctx, FeatureTable, storage.FeatureColumns(data), storage.FeatureRows(data))
	if err != nil {
		return err
	}
	s.log.Printf("stage=persist table=%s rows=%d", FeatureTable, n)

	doc, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return repo.SaveSchema(ctx, SchemaFile, doc)
}

func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("server: decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
