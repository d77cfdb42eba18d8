// Package api exposes the briefing store over a local REST interface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pbaille/linkloom/internal/briefing"
	"github.com/pbaille/linkloom/internal/classifier"
	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/export"
	"github.com/pbaille/linkloom/internal/ident"
	"github.com/pbaille/linkloom/internal/ingest"
	"github.com/pbaille/linkloom/internal/logger"
)

const maxUploadSize = 32 << 20

// Server handles HTTP requests for the briefing store
type Server struct {
	store     *briefing.Store
	clf       *classifier.Classifier
	ingester  *ingest.Ingester
	ids       ident.Provider
	shareBase string
	addr      string
	log       logger.Logger
}

// Config carries the Server's collaborators
type Config struct {
	Store     *briefing.Store
	Provider  ident.Provider
	ShareBase string
	Addr      string
	Logger    logger.Logger
}

// New creates a new API server
func New(cfg Config) *Server {
	if cfg.Provider == nil {
		cfg.Provider = ident.System{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	clf := classifier.New(cfg.Provider)
	return &Server{
		store:     cfg.Store,
		clf:       clf,
		ingester:  ingest.New(clf, cfg.Store, cfg.Logger),
		ids:       cfg.Provider,
		shareBase: cfg.ShareBase,
		addr:      cfg.Addr,
		log:       cfg.Logger,
	}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(withCORS)

	r.Get("/health", s.health)
	r.Get("/state", s.getState)
	r.Post("/import", s.importShared)

	r.Route("/briefings", func(r chi.Router) {
		r.Get("/", s.listBriefings)
		r.Post("/", s.createBriefing)
		r.Get("/{id}", s.getBriefing)
		r.Delete("/{id}", s.deleteBriefing)
	})

	r.Route("/active", func(r chi.Router) {
		r.Get("/", s.getActive)
		r.Put("/", s.selectBriefing)
		r.Put("/title", s.setTitle)
		r.Post("/items", s.addItems)
		r.Post("/files", s.uploadFiles)
		r.Patch("/sources/{id}", s.updateSource)
		r.Delete("/sources/{id}", s.deleteSource)
		r.Patch("/notes/{id}", s.updateNote)
		r.Delete("/notes/{id}", s.deleteNote)
		r.Post("/clear", s.clear)
		r.Get("/markdown", s.markdown)
		r.Get("/share", s.share)
	})

	return r
}

// Run starts the HTTP server and stops it when ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", logger.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Any("duration", time.Since(start)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.State())
}

// BriefingSummary is one row of the briefing list
type BriefingSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Sources   int       `json:"sources"`
	Notes     int       `json:"notes"`
	UpdatedAt time.Time `json:"updatedAt"`
	Active    bool      `json:"active"`
}

func (s *Server) listBriefings(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	summaries := make([]BriefingSummary, 0, len(state.Briefings))
	for _, b := range state.ByRecency() {
		summaries = append(summaries, BriefingSummary{
			ID:        b.ID,
			Title:     b.Title,
			Sources:   len(b.Sources),
			Notes:     len(b.Notes),
			UpdatedAt: b.UpdatedAt,
			Active:    b.ID == state.ActiveID(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"briefings":        summaries,
		"activeBriefingId": state.ActiveBriefingID,
	})
}

// CreateBriefingRequest is the request body for creating a briefing
type CreateBriefingRequest struct {
	Title string `json:"title"`
}

func (s *Server) createBriefing(w http.ResponseWriter, r *http.Request) {
	var req CreateBriefingRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	b, err := s.store.Create(strings.TrimSpace(req.Title))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBriefing(w http.ResponseWriter, r *http.Request) {
	id, ok := s.findBriefing(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	state := s.store.State()
	i := state.Index(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "briefing not found")
		return
	}
	writeJSON(w, http.StatusOK, state.Briefings[i])
}

func (s *Server) deleteBriefing(w http.ResponseWriter, r *http.Request) {
	id, ok := s.findBriefing(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := s.store.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getActive(w http.ResponseWriter, r *http.Request) {
	b, ok := s.active(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// SelectRequest is the request body for changing the active briefing
type SelectRequest struct {
	ID string `json:"id"`
}

func (s *Server) selectBriefing(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := s.findBriefing(w, req.ID)
	if !ok {
		return
	}
	if err := s.store.Select(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	b, _ := s.store.Active()
	writeJSON(w, http.StatusOK, b)
}

// TitleRequest is the request body for renaming the active briefing
type TitleRequest struct {
	Title string `json:"title"`
}

func (s *Server) setTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := s.active(w); !ok {
		return
	}
	s.respondActive(w, s.store.SetTitle(req.Title))
}

// AddItemsRequest is the request body for adding raw text
type AddItemsRequest struct {
	Text string `json:"text"`
	// URLOnly requires Text to be a single valid URL
	URLOnly bool `json:"url_only,omitempty"`
}

func (s *Server) addItems(w http.ResponseWriter, r *http.Request) {
	var req AddItemsRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if _, ok := s.active(w); !ok {
		return
	}

	var res classifier.Result
	if req.URLOnly {
		src, ok := s.clf.TryClassifyURL(strings.TrimSpace(req.Text))
		if !ok {
			writeError(w, http.StatusBadRequest, "text is not a valid http(s) URL")
			return
		}
		res = classifier.Result{Sources: []domain.Source{src}, Notes: []domain.Note{}}
	} else {
		res = s.clf.Classify(req.Text)
	}

	if err := s.store.AddItems(res.Sources, res.Notes); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) uploadFiles(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.active(w); !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	results := []FileResult{}
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				results = append(results, fileResult(ingest.Result{Name: fh.Filename, Err: err}))
				continue
			}
			results = append(results, fileResult(s.ingester.Ingest(fh.Filename, fh.Header.Get("Content-Type"), f)))
			_ = f.Close()
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"files": results})
}

// FileResult reports what one uploaded file contributed
type FileResult struct {
	ingest.Result
	Error string `json:"error,omitempty"`
}

func fileResult(r ingest.Result) FileResult {
	out := FileResult{Result: r}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

// UpdateSourceRequest is the request body for editing a source
type UpdateSourceRequest struct {
	Title *string `json:"title,omitempty"`
	URL   *string `json:"url,omitempty"`
}

func (s *Server) updateSource(w http.ResponseWriter, r *http.Request) {
	var req UpdateSourceRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := s.findItem(w, s.store.FindSource, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if req.URL != nil {
		if err := s.store.UpdateSource(id, briefing.URLPatch(*req.URL)); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.Title != nil {
		if err := s.store.CommitSourceTitle(id, *req.Title); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	src, _ := s.store.SourceByID(id)
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) deleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := s.findItem(w, s.store.FindSource, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := s.store.DeleteSource(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateNoteRequest is the request body for editing a note
type UpdateNoteRequest struct {
	Text string `json:"text"`
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := s.findItem(w, s.store.FindNote, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	s.respondActive(w, s.store.CommitNote(id, req.Text))
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := s.findItem(w, s.store.FindNote, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := s.store.DeleteNote(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.active(w); !ok {
		return
	}
	s.respondActive(w, s.store.Clear())
}

func (s *Server) markdown(w http.ResponseWriter, r *http.Request) {
	b, ok := s.active(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.SuggestFilename(b.Title)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, export.RenderMarkdown(b))
}

// ShareResponse carries the share payload and the full link
type ShareResponse struct {
	Payload string `json:"payload"`
	URL     string `json:"url"`
}

func (s *Server) share(w http.ResponseWriter, r *http.Request) {
	b, ok := s.active(w)
	if !ok {
		return
	}
	payload, err := export.EncodeShare(b)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	link, err := export.ShareURL(s.shareBase, b)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{Payload: payload, URL: link})
}

// ImportRequest is the request body for importing a share link
type ImportRequest struct {
	URL string `json:"url"`
}

func (s *Server) importShared(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decode(w, r, &req) {
		return
	}

	payload, ok := export.ParseShareURL(req.URL)
	if !ok {
		writeError(w, http.StatusBadRequest, "no share payload found")
		return
	}
	b, err := export.DecodeShare(payload, s.ids)
	if err != nil {
		s.log.Warn("skipping share import", logger.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Import(b); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) active(w http.ResponseWriter) (domain.Briefing, bool) {
	b, ok := s.store.Active()
	if !ok {
		writeError(w, http.StatusConflict, "no active briefing")
	}
	return b, ok
}

func (s *Server) respondActive(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	b, _ := s.store.Active()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) findBriefing(w http.ResponseWriter, prefix string) (string, bool) {
	return s.findItem(w, s.store.FindBriefing, prefix)
}

func (s *Server) findItem(w http.ResponseWriter, find func(string) (string, error), prefix string) (string, bool) {
	id, err := find(prefix)
	switch {
	case err == nil:
		return id, true
	case errors.Is(err, briefing.ErrAmbiguous):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusNotFound, err.Error())
	}
	return "", false
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// decodeOptional accepts an empty body
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
