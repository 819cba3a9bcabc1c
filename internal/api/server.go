package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/VerseVault/internal/model"
	"github.com/dharsanguruparan/VerseVault/internal/processing"
	"github.com/dharsanguruparan/VerseVault/internal/queue"
	"github.com/dharsanguruparan/VerseVault/internal/status"
)

// Store is the record access the API needs beyond the status service.
type Store interface {
	status.Store
	CreateDocument(ctx context.Context, doc *model.Document) error
	ListVerses(ctx context.Context, bookID string, chapter int) ([]model.Verse, error)
}

// Submitter schedules processing of a document.
type Submitter interface {
	Submit(ctx context.Context, documentID string) error
}

// Server exposes processing triggers and document status.
type Server struct {
	addr      string
	store     Store
	status    *status.Service
	submitter Submitter
	logger    logrus.FieldLogger

	server *http.Server
	once   sync.Once
}

// New constructs a Server.
func New(addr string, store Store, submitter Submitter, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		addr:      addr,
		store:     store,
		status:    status.NewService(store),
		submitter: submitter,
		logger:    logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.handleRegister)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleDocument)
			r.Post("/process", s.handleProcess)
			r.Get("/status", s.handleStatus)
			r.Get("/logs", s.handleLogs)
			r.Get("/chapters/{number}/verses", s.handleVerses)
		})
	})
	return r
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:              s.addr,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.logger.WithField("addr", s.addr).Info("api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	StorageRef  string `json:"storageRef"`
}

// handleRegister records a document whose bytes already live at storageRef.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<20)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FileName == "" || req.StorageRef == "" {
		respondError(w, http.StatusBadRequest, "fileName and storageRef are required")
		return
	}
	if !supportedRef(req.StorageRef) {
		respondError(w, http.StatusBadRequest, "storageRef must be an http(s), s3:// or base64 reference")
		return
	}
	doc := &model.Document{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		StorageRef:  req.StorageRef,
	}
	if err := s.store.CreateDocument(r.Context(), doc); err != nil {
		s.logger.WithError(err).Error("create document")
		respondError(w, http.StatusInternalServerError, "failed to store document")
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

func supportedRef(ref string) bool {
	for _, prefix := range []string{"http://", "https://", "s3://", "data:", "base64:"} {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if !doc.Status.CanTransition(model.StatusProcessing) {
		respondError(w, http.StatusConflict, "document is already "+string(doc.Status))
		return
	}
	err = s.submitter.Submit(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, queue.ErrAlreadyQueued):
		respondError(w, http.StatusConflict, "document is already being processed")
		return
	case errors.Is(err, processing.ErrQueueFull):
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	default:
		s.logger.WithError(err).WithField("document_id", id).Error("submit processing")
		respondError(w, http.StatusInternalServerError, "failed to queue job")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"documentId": id,
		"status":     string(model.ProcessingActive),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.status.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetDocument(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	logs, err := s.store.ListLogs(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if logs == nil {
		logs = []model.LogEntry{}
	}
	respondJSON(w, http.StatusOK, logs)
}

func (s *Server) handleVerses(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "chapter number must be an integer")
		return
	}
	book, err := s.store.BookByDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	verses, err := s.store.ListVerses(r.Context(), book.ID, number)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if verses == nil {
		verses = []model.Verse{}
	}
	respondJSON(w, http.StatusOK, verses)
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.WithError(err).Error("store error")
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Warn("encode response")
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}
