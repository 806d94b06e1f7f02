package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/brkops/painel-holmes/pkg/logger"
)

// RecordStorage handles storage of contratos and their registros.
type RecordStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewRecordStorage creates a new SQLite record storage and ensures the
// schema exists.
func NewRecordStorage(db *sql.DB, logger *logger.Logger) (*RecordStorage, error) {
	storage := &RecordStorage{
		db:     db,
		logger: logger.Named("sqlite-records"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *RecordStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS contratos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			numero TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create contratos table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS registros (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			contrato_id INTEGER NOT NULL,
			autor TEXT NOT NULL,
			data TEXT NOT NULL,
			extra_info TEXT NOT NULL DEFAULT '',
			numero TEXT NOT NULL DEFAULT '',
			prazo TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			tipo TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (contrato_id) REFERENCES contratos(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create registros table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_registros_contrato_id ON registros(contrato_id)`,
		`CREATE INDEX IF NOT EXISTS idx_registros_status ON registros(status)`,
		`CREATE INDEX IF NOT EXISTS idx_registros_tipo ON registros(tipo)`,
		`CREATE INDEX IF NOT EXISTS idx_registros_prazo ON registros(prazo)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create registro index: %w", err)
		}
	}

	return nil
}

// UpsertContrato finds or creates a contrato by its external number. An
// existing contrato only gets its updated_at refreshed; contratos are never
// deleted.
func (s *RecordStorage) UpsertContrato(numero string, now time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM contratos WHERE numero = ?`, numero).Scan(&id)
	switch {
	case err == nil:
		_, err = s.db.Exec(
			`UPDATE contratos SET updated_at = ? WHERE id = ?`,
			now.Format(time.RFC3339), id,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to touch contrato: %w", err)
		}
		return id, nil
	case err == sql.ErrNoRows:
		result, err := s.db.Exec(
			`INSERT INTO contratos (numero, created_at, updated_at) VALUES (?, ?, ?)`,
			numero, now.Format(time.RFC3339), now.Format(time.RFC3339),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert contrato: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get last insert ID: %w", err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("failed to query contrato: %w", err)
	}
}

// DeleteRegistrosByContrato removes every registro owned by a contrato.
// Called before re-inserting the incoming set on each sync run.
func (s *RecordStorage) DeleteRegistrosByContrato(contratoID int64) error {
	if _, err := s.db.Exec(`DELETE FROM registros WHERE contrato_id = ?`, contratoID); err != nil {
		return fmt.Errorf("failed to delete registros: %w", err)
	}
	return nil
}

// InsertRegistro inserts a registro and returns its surrogate id. Ids are
// not stable across sync runs.
func (s *RecordStorage) InsertRegistro(record *Registro) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO registros
		(contrato_id, autor, data, extra_info, numero, prazo, status, tipo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ContratoID,
		record.Autor,
		record.Data,
		record.ExtraInfo,
		record.Numero,
		record.Prazo,
		record.Status,
		record.Tipo,
		record.CreatedAt.Format(time.RFC3339),
		record.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert registro: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// Sortable columns keyed by the API's camelCase names. Anything else falls
// back to prazo.
var sortColumns = map[string]string{
	"prazo":     "r.prazo",
	"createdAt": "r.created_at",
	"updatedAt": "r.updated_at",
	"status":    "r.status",
	"autor":     "r.autor",
}

// ListRegistros returns one page of registros matching the filter, plus the
// total number of matches before pagination.
func (s *RecordStorage) ListRegistros(filter RegistroFilter) ([]*Registro, int, error) {
	where, args := buildRegistroFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM registros r JOIN contratos c ON c.id = r.contrato_id` + where
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count registros: %w", err)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "r.prazo"
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	query := `SELECT r.id, r.contrato_id, c.numero, r.autor, r.data, r.extra_info, r.numero,
		r.prazo, r.status, r.tipo, r.created_at, r.updated_at
		FROM registros r JOIN contratos c ON c.id = r.contrato_id` + where +
		fmt.Sprintf(` ORDER BY %s %s LIMIT ? OFFSET ?`, column, order)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query registros: %w", err)
	}
	defer rows.Close()

	records, err := s.scanRegistroRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// ListAllRegistros returns every registro ordered by prazo descending.
// Used by the export endpoint.
func (s *RecordStorage) ListAllRegistros() ([]*Registro, error) {
	rows, err := s.db.Query(
		`SELECT r.id, r.contrato_id, c.numero, r.autor, r.data, r.extra_info, r.numero,
		r.prazo, r.status, r.tipo, r.created_at, r.updated_at
		FROM registros r JOIN contratos c ON c.id = r.contrato_id
		ORDER BY r.prazo DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query registros for export: %w", err)
	}
	defer rows.Close()

	return s.scanRegistroRows(rows)
}

// StatusCounts returns the number of registros per status label.
func (s *RecordStorage) StatusCounts() ([]StatusCount, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM registros GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Total); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TipoCounts returns the number of registros per tipo label.
func (s *RecordStorage) TipoCounts() ([]TipoCount, error) {
	rows, err := s.db.Query(`SELECT tipo, COUNT(*) FROM registros GROUP BY tipo`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tipo counts: %w", err)
	}
	defer rows.Close()

	var counts []TipoCount
	for rows.Next() {
		var c TipoCount
		if err := rows.Scan(&c.Tipo, &c.Total); err != nil {
			return nil, fmt.Errorf("failed to scan tipo count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ContratoCounts returns every contrato with its registro count, including
// contratos whose registros were all replaced away.
func (s *RecordStorage) ContratoCounts() ([]ContratoCount, error) {
	rows, err := s.db.Query(
		`SELECT c.numero, COUNT(r.id)
		FROM contratos c LEFT JOIN registros r ON r.contrato_id = c.id
		GROUP BY c.id ORDER BY c.numero`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contrato counts: %w", err)
	}
	defer rows.Close()

	var counts []ContratoCount
	for rows.Next() {
		var c ContratoCount
		if err := rows.Scan(&c.Numero, &c.Total); err != nil {
			return nil, fmt.Errorf("failed to scan contrato count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// buildRegistroFilter builds the WHERE clause and args for a filter.
func buildRegistroFilter(filter RegistroFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		clauses = append(clauses,
			`(r.autor LIKE ? OR r.data LIKE ? OR r.extra_info LIKE ? OR r.numero LIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if filter.Status != "" {
		clauses = append(clauses, `r.status = ?`)
		args = append(args, filter.Status)
	}
	if filter.Tipo != "" {
		clauses = append(clauses, `r.tipo = ?`)
		args = append(args, filter.Tipo)
	}
	if filter.Contrato != "" {
		clauses = append(clauses, `c.numero = ?`)
		args = append(args, filter.Contrato)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanRegistroRows scans database rows into Registro structs.
func (s *RecordStorage) scanRegistroRows(rows *sql.Rows) ([]*Registro, error) {
	var records []*Registro
	for rows.Next() {
		var record Registro
		var createdAt, updatedAt string

		if err := rows.Scan(
			&record.ID,
			&record.ContratoID,
			&record.ContratoNumero,
			&record.Autor,
			&record.Data,
			&record.ExtraInfo,
			&record.Numero,
			&record.Prazo,
			&record.Status,
			&record.Tipo,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registro: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		record.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
