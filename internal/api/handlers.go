// Package api exposes the dashboard-facing HTTP surface: the filterable
// registro listing, sync trigger/status, export and health endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/brkops/painel-holmes/internal/parser"
	"github.com/brkops/painel-holmes/internal/storage/sqlite"
	syncsvc "github.com/brkops/painel-holmes/internal/sync"
	"github.com/brkops/painel-holmes/pkg/logger"
)

// Handler holds the API handlers' dependencies.
type Handler struct {
	records     *sqlite.RecordStorage
	syncService *syncsvc.Service
	logger      *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(records *sqlite.RecordStorage, syncService *syncsvc.Service, logger *logger.Logger) *Handler {
	return &Handler{
		records:     records,
		syncService: syncService,
		logger:      logger.Named("api-handler"),
	}
}

// registroView is one registro as served to the dashboard: the raw
// persisted fields plus the derived views recomputed on every read.
type registroView struct {
	ID         int64                  `json:"id"`
	Contrato   string                 `json:"contrato"`
	Autor      string                 `json:"autor"`
	Data       string                 `json:"data"`
	ExtraInfo  string                 `json:"extraInfo"`
	Numero     string                 `json:"numero"`
	Prazo      string                 `json:"prazo"`
	Status     string                 `json:"status"`
	Tipo       string                 `json:"tipo"`
	TipoLabel  string                 `json:"tipoLabel"`
	AutorInfo  parser.AutorInfo       `json:"autorInfo"`
	Pendencias []parser.PendenciaItem `json:"pendencias"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

type paginationView struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

type registrosResponse struct {
	Data       []registroView         `json:"data"`
	Pagination paginationView         `json:"pagination"`
	Stats      map[string]int         `json:"stats"`
	Contratos  []sqlite.ContratoCount `json:"contratos"`
	Tipos      []sqlite.TipoCount     `json:"tipos"`
}

// GetRegistros serves the filterable, sortable, paginated listing.
func (h *Handler) GetRegistros(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := sqlite.RegistroFilter{
		Search:    query.Get("search"),
		Status:    query.Get("status"),
		Tipo:      query.Get("tipo"),
		Contrato:  query.Get("contrato"),
		SortBy:    query.Get("sortBy"),
		SortOrder: query.Get("sortOrder"),
		Page:      parsePositiveInt(query.Get("page"), 1),
		PageSize:  parsePositiveInt(query.Get("pageSize"), 50),
	}
	if filter.SortBy == "" {
		filter.SortBy = "prazo"
	}

	records, total, err := h.records.ListRegistros(filter)
	if err != nil {
		h.logger.Error("Failed to list registros", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	stats, err := h.records.StatusCounts()
	if err != nil {
		h.logger.Error("Failed to load status counts", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	statsMap := make(map[string]int, len(stats))
	for _, s := range stats {
		statsMap[s.Status] = s.Total
	}

	contratos, err := h.records.ContratoCounts()
	if err != nil {
		h.logger.Error("Failed to load contrato counts", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	tipos, err := h.records.TipoCounts()
	if err != nil {
		h.logger.Error("Failed to load tipo counts", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	views := make([]registroView, 0, len(records))
	for _, record := range records {
		views = append(views, newRegistroView(record))
	}

	totalPages := (total + filter.PageSize - 1) / filter.PageSize

	h.respondJSON(w, http.StatusOK, registrosResponse{
		Data: views,
		Pagination: paginationView{
			Page:        filter.Page,
			PageSize:    filter.PageSize,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     filter.Page < totalPages,
			HasPrevious: filter.Page > 1,
		},
		Stats:     statsMap,
		Contratos: contratos,
		Tipos:     tipos,
	})
}

// newRegistroView derives the structured views for one registro. The
// derivations are pure and recomputed per request, never persisted.
func newRegistroView(record *sqlite.Registro) registroView {
	return registroView{
		ID:         record.ID,
		Contrato:   record.ContratoNumero,
		Autor:      record.Autor,
		Data:       record.Data,
		ExtraInfo:  record.ExtraInfo,
		Numero:     record.Numero,
		Prazo:      record.Prazo,
		Status:     record.Status,
		Tipo:       record.Tipo,
		TipoLabel:  parser.ExtractTipo(record.Data),
		AutorInfo:  parser.ParseAutor(record.Autor),
		Pendencias: parser.ParseExtraInfo(record.ExtraInfo),
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

// TriggerSync starts a sync run and reports its result. A run already in
// flight yields 409 without touching the upstream.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.syncService.IsRunning() {
		h.respondError(w, http.StatusConflict, "Sincronização já está em andamento")
		return
	}

	// The run is detached from the request context: a dashboard tab
	// closing must not abort a refresh that is already persisting data.
	result := h.syncService.Run(context.Background())

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	h.respondJSON(w, status, result)
}

// GetSyncStatus reports whether a run is in flight and the last sync log.
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	lastSync, err := h.syncService.LastSync()
	if err != nil {
		h.logger.Error("Failed to load last sync log", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"isRunning": h.syncService.IsRunning(),
		"lastSync":  lastSync,
	})
}

// GetHealth is the health check endpoint.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func parsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
