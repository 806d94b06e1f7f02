// Package sync implements the synchronization orchestrator: one full
// fetch-validate-persist cycle against the scraping API, guarded by an
// in-process single-flight flag.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brkops/painel-holmes/internal/storage/sqlite"
	"github.com/brkops/painel-holmes/internal/upstream"
	"github.com/brkops/painel-holmes/pkg/logger"
)

// Result is what a sync run reports back to its caller. Per-record and
// per-contract skips are not itemized here; they only show up as a lower
// RecordsProcessed count and in the server log.
type Result struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	RecordsProcessed int    `json:"recordsProcessed"`
}

// Fetcher fetches the full pendency dataset from the upstream API.
type Fetcher interface {
	Fetch(ctx context.Context) (*upstream.ScrapeResponse, error)
}

// RecordStore is the slice of the repository the orchestrator writes to.
type RecordStore interface {
	UpsertContrato(numero string, now time.Time) (int64, error)
	DeleteRegistrosByContrato(contratoID int64) error
	InsertRegistro(record *sqlite.Registro) (int64, error)
}

// SyncLogStore persists the audit trail of sync runs.
type SyncLogStore interface {
	Create(message string, startedAt time.Time) (int64, error)
	Finish(id int64, status, message string, recordsProcessed int, endedAt time.Time) error
	Last() (*sqlite.SyncLog, error)
}

// Service orchestrates sync runs. The running flag is process-local: two
// service instances without an external lock can sync concurrently, which
// is a known limitation, not an invariant.
type Service struct {
	fetcher Fetcher
	records RecordStore
	logs    SyncLogStore
	timeout time.Duration
	logger  *logger.Logger

	mu      sync.Mutex
	running bool
}

// NewService creates a new sync service. The timeout bounds one whole run's
// upstream fetch.
func NewService(fetcher Fetcher, records RecordStore, logs SyncLogStore, timeout time.Duration, logger *logger.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		records: records,
		logs:    logs,
		timeout: timeout,
		logger:  logger.Named("sync-service"),
	}
}

// IsRunning reports whether a sync run is currently in flight.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastSync returns the most recent sync log, or nil when no sync ever ran.
func (s *Service) LastSync() (*sqlite.SyncLog, error) {
	return s.logs.Last()
}

// Run executes one full sync cycle: fetch, validate, replace each
// contrato's registros, record the outcome. If a run is already in flight
// it returns immediately without contacting the upstream; callers retry
// later, there is no queue.
func (s *Service) Run(ctx context.Context) Result {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Result{Success: false, Message: "Sync já está em andamento", RecordsProcessed: 0}
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("Starting sync run")

	logID, err := s.logs.Create("Iniciando sincronização...", time.Now())
	if err != nil {
		s.logger.Error("Failed to create sync log", logger.Error(err))
		return Result{Success: false, Message: err.Error(), RecordsProcessed: 0}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := s.fetcher.Fetch(fetchCtx)
	if err != nil {
		return s.fail(logID, fmt.Errorf("falha ao buscar dados da API: %w", err))
	}

	if !payload.Success {
		return s.fail(logID, fmt.Errorf("API retornou sucesso=false"))
	}

	s.logger.Info("Processing contratos", logger.Int("count", len(payload.Data)))

	total := 0
	for _, contrato := range payload.Data {
		inserted, err := s.processContrato(&contrato)
		if err != nil {
			// Deliberate partial-failure policy: a broken contrato must
			// not block ingestion of the rest of the dataset.
			s.logger.Error("Failed to process contrato",
				logger.String("contrato", contrato.Contrato),
				logger.Error(err))
			continue
		}
		total += inserted
		s.logger.Debug("Processed contrato",
			logger.String("contrato", contrato.Contrato),
			logger.Int("registros", inserted))
	}

	if err := s.logs.Finish(logID, sqlite.SyncStatusSuccess, "Sincronização concluída com sucesso", total, time.Now()); err != nil {
		s.logger.Error("Failed to finish sync log", logger.Error(err))
	}

	s.logger.Info("Sync run completed", logger.Int("records_processed", total))

	return Result{Success: true, Message: "Sincronização concluída com sucesso", RecordsProcessed: total}
}

// processContrato upserts one contrato and replaces its registros with the
// incoming set. Individual registro insert failures are logged and
// skipped; the returned count covers successful inserts only.
func (s *Service) processContrato(contrato *upstream.ContratoPayload) (int, error) {
	now := time.Now()

	contratoID, err := s.records.UpsertContrato(contrato.Contrato, now)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert contrato: %w", err)
	}

	if err := s.records.DeleteRegistrosByContrato(contratoID); err != nil {
		return 0, fmt.Errorf("failed to clear registros: %w", err)
	}

	inserted := 0
	for _, registro := range contrato.Registros {
		record := &sqlite.Registro{
			ContratoID: contratoID,
			Autor:      registro.Autor,
			Data:       registro.Data,
			ExtraInfo:  registro.ExtraInfo,
			Numero:     registro.Numero,
			Prazo:      registro.Prazo,
			Status:     registro.Status,
			Tipo:       registro.Tipo,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := s.records.InsertRegistro(record); err != nil {
			s.logger.Error("Failed to insert registro",
				logger.String("contrato", contrato.Contrato),
				logger.String("numero", registro.Numero),
				logger.Error(err))
			continue
		}
		inserted++
	}

	return inserted, nil
}

// fail records a terminal error state and builds the caller-facing result.
func (s *Service) fail(logID int64, runErr error) Result {
	s.logger.Error("Sync run failed", logger.Error(runErr))

	msg := runErr.Error()
	if err := s.logs.Finish(logID, sqlite.SyncStatusError, "Erro: "+msg, 0, time.Now()); err != nil {
		s.logger.Error("Failed to finish sync log", logger.Error(err))
	}

	return Result{Success: false, Message: msg, RecordsProcessed: 0}
}
