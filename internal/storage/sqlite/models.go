package sqlite

import "time"

// Sync log status values. A log is created running and finished exactly
// once to success or error; rows are never deleted.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// Contrato is a tracked contract. Contratos are upserted on sync and never
// deleted; only their registros are replaced.
type Contrato struct {
	ID        int64     `json:"id"`
	Numero    string    `json:"numero"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registro is one pendency tied to a contrato. The autor, data and
// extra_info columns hold untrusted free text exactly as the upstream sent
// it; structured views are derived at read time, never persisted.
type Registro struct {
	ID             int64     `json:"id"`
	ContratoID     int64     `json:"contrato_id"`
	ContratoNumero string    `json:"contrato"`
	Autor          string    `json:"autor"`
	Data           string    `json:"data"`
	ExtraInfo      string    `json:"extra_info"`
	Numero         string    `json:"numero"`
	Prazo          string    `json:"prazo"`
	Status         string    `json:"status"`
	Tipo           string    `json:"tipo"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SyncLog is one synchronization attempt. EndedAt is nil while running.
type SyncLog struct {
	ID               int64      `json:"id"`
	Status           string     `json:"status"`
	Message          string     `json:"message"`
	RecordsProcessed int        `json:"recordsProcessed"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt"`
}

// RegistroFilter narrows and orders a registro listing.
type RegistroFilter struct {
	Search    string // matches autor, data, extra_info or numero
	Status    string
	Tipo      string
	Contrato  string // contrato numero, not id
	SortBy    string // prazo, createdAt, updatedAt, status, autor
	SortOrder string // asc or desc
	Page      int
	PageSize  int
}

// StatusCount is the number of registros per status label.
type StatusCount struct {
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// TipoCount is the number of registros per tipo label.
type TipoCount struct {
	Tipo  string `json:"tipo"`
	Total int    `json:"total"`
}

// ContratoCount is the number of registros per contrato.
type ContratoCount struct {
	Numero string `json:"numero"`
	Total  int    `json:"total"`
}
