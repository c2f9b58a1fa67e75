package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"mailtriage/internal/config"
	"mailtriage/internal/domain"
	"mailtriage/internal/pipeline"
	"mailtriage/internal/store"
	"mailtriage/internal/triage"
	"mailtriage/internal/whitelist"
)

// SummaryStore exposes the last recorded pipeline run.
type SummaryStore interface {
	GetSummary(ctx context.Context) (*domain.RunSummary, error)
}

// Runner triggers one pipeline run on demand.
type Runner interface {
	Run(ctx context.Context) (*domain.RunSummary, error)
}

// Handler is the HTTP surface over the partitions and the triage pipeline.
type Handler struct {
	cfg       *config.Config
	log       *logrus.Logger
	parts     *store.Partitions
	engine    *whitelist.Engine
	triager   *triage.Engine
	summaries SummaryStore
	runner    Runner
	auth      *AuthService

	// Connectivity probes for the status endpoint. Either may be nil.
	CheckStorage func(ctx context.Context) error
	CheckMail    func(ctx context.Context) error
}

func New(cfg *config.Config, log *logrus.Logger, parts *store.Partitions, engine *whitelist.Engine, triager *triage.Engine, summaries SummaryStore, runner Runner) (*Handler, error) {
	auth, err := NewAuthService(cfg.AdminPassword, cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:       cfg,
		log:       log,
		parts:     parts,
		engine:    engine,
		triager:   triager,
		summaries: summaries,
		runner:    runner,
		auth:      auth,
	}, nil
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Post("/login", h.login)

		r.Get("/status", h.status)
		r.Get("/counts", h.counts)
		r.Get("/partitions/{name}", h.listPartition)
		r.Get("/partitions/{name}/{key}", h.getRecord)
		r.Get("/sort", h.sortPreview)
		r.Get("/triage", h.triagePreview)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)
			r.Post("/sort", h.sortApply)
			r.Post("/triage", h.triageApply)
			r.Post("/resolve", h.resolve)
			r.Post("/run", h.run)
			r.Delete("/partitions/{name}/{key}", h.deleteRecord)
		})
	})

	return r
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.auth.ValidatePassword(req.Password); err != nil {
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return
	}
	token, err := h.auth.GenerateToken()
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"token": token})
}

type hopStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Storage hopStatus          `json:"storage"`
		Mail    hopStatus          `json:"mail"`
		LastRun *domain.RunSummary `json:"last_run,omitempty"`
	}{
		Storage: probe(r.Context(), h.CheckStorage),
		Mail:    probe(r.Context(), h.CheckMail),
	}

	if sum, err := h.summaries.GetSummary(r.Context()); err == nil {
		resp.LastRun = sum
	}
	writeJSON(w, resp)
}

func probe(ctx context.Context, check func(context.Context) error) hopStatus {
	if check == nil {
		return hopStatus{OK: false, Error: "not configured"}
	}
	if err := check(ctx); err != nil {
		return hopStatus{OK: false, Error: err.Error()}
	}
	return hopStatus{OK: true}
}

func (h *Handler) counts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := h.parts.Raw.Count(ctx)
	if err != nil {
		http.Error(w, "Failed to count partitions", http.StatusInternalServerError)
		return
	}
	filtered, err := h.parts.Filtered.Count(ctx)
	if err != nil {
		http.Error(w, "Failed to count partitions", http.StatusInternalServerError)
		return
	}

	counts := make(map[string]int)
	total := 0
	for _, name := range h.parts.CategoryNames() {
		part, err := h.parts.ForCategory(name)
		if err != nil {
			continue
		}
		n, err := part.Count(ctx)
		if err != nil {
			http.Error(w, "Failed to count partitions", http.StatusInternalServerError)
			return
		}
		counts[name] = n
		total += n
	}

	writeJSON(w, map[string]interface{}{
		"raw":      raw,
		"filtered": filtered,
		"total":    total,
		"counts":   counts,
	})
}

func (h *Handler) listPartition(w http.ResponseWriter, r *http.Request) {
	part, ok := h.resolvePartition(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if i, err := strconv.Atoi(l); err == nil && i > 0 && i <= 500 {
			limit = i
		}
	}

	keys, err := part.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list partition", http.StatusInternalServerError)
		return
	}

	// Newest last in key order; cap the record fetch, skip bad values.
	if len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}
	records := make(map[string]*domain.StoredRecord, len(keys))
	for _, key := range keys {
		rec, err := part.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, store.ErrBadRecord) {
				h.log.WithField("key", key).Warn("skipping malformed record")
				continue
			}
			http.Error(w, "Failed to read partition", http.StatusInternalServerError)
			return
		}
		if rec != nil {
			records[key] = rec
		}
	}

	writeJSON(w, map[string]interface{}{
		"keys":    keys,
		"records": records,
	})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	part, ok := h.resolvePartition(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}

	rec, err := part.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, store.ErrBadRecord) {
			http.Error(w, "Record is malformed", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "Failed to read record", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	part, ok := h.resolvePartition(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	if err := part.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		http.Error(w, "Failed to delete record", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sortPreview(w http.ResponseWriter, r *http.Request) {
	h.sort(w, r, false)
}

func (h *Handler) sortApply(w http.ResponseWriter, r *http.Request) {
	h.sort(w, r, true)
}

func (h *Handler) sort(w http.ResponseWriter, r *http.Request, apply bool) {
	items, err := pipeline.SortFiltered(r.Context(), h.log, h.engine, h.parts.Filtered, apply)
	if err != nil {
		http.Error(w, "Sort pass failed", http.StatusInternalServerError)
		return
	}

	tally := map[domain.Priority]int{}
	for _, it := range items {
		tally[it.Priority]++
	}
	writeJSON(w, map[string]interface{}{
		"total":   len(items),
		"applied": apply,
		"urgent":  tally[domain.PriorityUrgent],
		"high":    tally[domain.PriorityHigh],
		"medium":  tally[domain.PriorityMedium],
		"low":     tally[domain.PriorityLow],
		"emails":  items,
	})
}

func (h *Handler) triagePreview(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.triager.Scan(r.Context(), h.log, h.parts.Filtered)
	if err != nil {
		http.Error(w, "Triage scan failed", http.StatusInternalServerError)
		return
	}

	var totals domain.TriageTotals
	for _, d := range decisions {
		totals.Count(d.Level)
	}
	writeJSON(w, map[string]interface{}{
		"totals":    totals,
		"decisions": decisions,
	})
}

func (h *Handler) triageApply(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.triager.Scan(r.Context(), h.log, h.parts.Filtered)
	if err != nil {
		http.Error(w, "Triage scan failed", http.StatusInternalServerError)
		return
	}
	totals, err := triage.Apply(r.Context(), h.log, h.parts.Filtered, decisions)
	if err != nil {
		http.Error(w, "Triage apply failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"applied":   totals.Total,
		"totals":    totals,
		"decisions": decisions,
	})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	results, err := pipeline.ResolveTriaged(r.Context(), h.log, h.parts.Filtered)
	if err != nil {
		http.Error(w, "Resolve pass failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"resolved": len(results),
		"results":  results,
	})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		http.Error(w, "Pipeline runner not configured", http.StatusServiceUnavailable)
		return
	}
	sum, err := h.runner.Run(r.Context())
	if err != nil {
		http.Error(w, "Pipeline run failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sum)
}

func (h *Handler) resolvePartition(w http.ResponseWriter, name string) (store.Partition, bool) {
	switch name {
	case store.PartitionRaw:
		return h.parts.Raw, true
	case store.PartitionFiltered:
		return h.parts.Filtered, true
	}
	part, err := h.parts.ForCategory(name)
	if err != nil {
		http.Error(w, "Unknown partition", http.StatusNotFound)
		return nil, false
	}
	return part, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
