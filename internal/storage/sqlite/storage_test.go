package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brkops/painel-holmes/pkg/logger"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRecordStorage(t *testing.T) *RecordStorage {
	t.Helper()
	storage, err := NewRecordStorage(newTestDB(t), logger.NewNop())
	require.NoError(t, err)
	return storage
}

func insertTestRegistro(t *testing.T, s *RecordStorage, contratoID int64, autor, status, tipo, numero, prazo string) int64 {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	id, err := s.InsertRegistro(&Registro{
		ContratoID: contratoID,
		Autor:      autor,
		Data:       tipo + " 0.0",
		ExtraInfo:  "Ação\nFulano\n01/12/2024",
		Numero:     numero,
		Prazo:      prazo,
		Status:     status,
		Tipo:       tipo,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	return id
}

func TestUpsertContrato(t *testing.T) {
	s := newTestRecordStorage(t)

	created := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	id1, err := s.UpsertContrato("4600013206", created)
	require.NoError(t, err)

	// Upserting the same numero returns the same id.
	touched := created.Add(time.Hour)
	id2, err := s.UpsertContrato("4600013206", touched)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// A different numero gets a new contrato.
	id3, err := s.UpsertContrato("4600013454", created)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	counts, err := s.ContratoCounts()
	require.NoError(t, err)
	assert.Len(t, counts, 2)
}

func TestDeleteRegistrosByContrato(t *testing.T) {
	s := newTestRecordStorage(t)

	id1, err := s.UpsertContrato("4600013206", time.Now())
	require.NoError(t, err)
	id2, err := s.UpsertContrato("4600013454", time.Now())
	require.NoError(t, err)

	insertTestRegistro(t, s, id1, "A", "Pendente", "Abertura", "OS-1", "2025-01-01")
	insertTestRegistro(t, s, id1, "B", "Pendente", "Abertura", "OS-2", "2025-01-02")
	insertTestRegistro(t, s, id2, "C", "Pendente", "Abertura", "OS-3", "2025-01-03")

	require.NoError(t, s.DeleteRegistrosByContrato(id1))

	records, total, err := s.ListRegistros(RegistroFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "4600013454", records[0].ContratoNumero, "sibling contrato untouched")

	// The contrato itself survives with zero registros.
	counts, err := s.ContratoCounts()
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "4600013206", counts[0].Numero)
	assert.Zero(t, counts[0].Total)
}

func TestListRegistrosFilters(t *testing.T) {
	s := newTestRecordStorage(t)

	id1, err := s.UpsertContrato("4600013206", time.Now())
	require.NoError(t, err)
	id2, err := s.UpsertContrato("4600013454", time.Now())
	require.NoError(t, err)

	insertTestRegistro(t, s, id1, "Funcionário: FULANO", "Pendente", "Abertura", "OS-1", "2025-01-01")
	insertTestRegistro(t, s, id1, "Funcionário: BELTRANO", "Atrasada", "Vistoria", "OS-2", "2025-02-01")
	insertTestRegistro(t, s, id2, "Funcionário: SICRANO", "Pendente", "Abertura", "OS-3", "2025-03-01")

	t.Run("by status", func(t *testing.T) {
		_, total, err := s.ListRegistros(RegistroFilter{Status: "Pendente"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("by tipo", func(t *testing.T) {
		_, total, err := s.ListRegistros(RegistroFilter{Tipo: "Vistoria"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("by contrato numero", func(t *testing.T) {
		records, total, err := s.ListRegistros(RegistroFilter{Contrato: "4600013454"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, records, 1)
		assert.Equal(t, "Funcionário: SICRANO", records[0].Autor)
	})

	t.Run("search matches autor", func(t *testing.T) {
		_, total, err := s.ListRegistros(RegistroFilter{Search: "BELTRANO"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("search matches numero", func(t *testing.T) {
		_, total, err := s.ListRegistros(RegistroFilter{Search: "OS-3"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("combined filters", func(t *testing.T) {
		_, total, err := s.ListRegistros(RegistroFilter{Status: "Pendente", Contrato: "4600013206"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("no match", func(t *testing.T) {
		records, total, err := s.ListRegistros(RegistroFilter{Search: "inexistente"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, records)
	})
}

func TestListRegistrosSortAndPaginate(t *testing.T) {
	s := newTestRecordStorage(t)

	id, err := s.UpsertContrato("4600013206", time.Now())
	require.NoError(t, err)
	insertTestRegistro(t, s, id, "A", "Pendente", "Abertura", "OS-1", "2025-01-01")
	insertTestRegistro(t, s, id, "B", "Pendente", "Abertura", "OS-2", "2025-02-01")
	insertTestRegistro(t, s, id, "C", "Pendente", "Abertura", "OS-3", "2025-03-01")

	records, total, err := s.ListRegistros(RegistroFilter{SortBy: "prazo", SortOrder: "desc", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-03-01", records[0].Prazo)
	assert.Equal(t, "2025-02-01", records[1].Prazo)

	records, _, err = s.ListRegistros(RegistroFilter{SortBy: "prazo", SortOrder: "desc", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-01-01", records[0].Prazo)

	// Ascending order.
	records, _, err = s.ListRegistros(RegistroFilter{SortBy: "autor", SortOrder: "asc", PageSize: 10})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].Autor)

	// Unknown sort column falls back to prazo, and never reaches the SQL.
	records, _, err = s.ListRegistros(RegistroFilter{SortBy: "autor; DROP TABLE registros", PageSize: 10})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2025-03-01", records[0].Prazo)
}

func TestAggregateCounts(t *testing.T) {
	s := newTestRecordStorage(t)

	id, err := s.UpsertContrato("4600013206", time.Now())
	require.NoError(t, err)
	insertTestRegistro(t, s, id, "A", "Pendente", "Abertura", "OS-1", "2025-01-01")
	insertTestRegistro(t, s, id, "B", "Pendente", "Vistoria", "OS-2", "2025-02-01")
	insertTestRegistro(t, s, id, "C", "Atrasada", "Abertura", "OS-3", "2025-03-01")

	statuses, err := s.StatusCounts()
	require.NoError(t, err)
	statusMap := map[string]int{}
	for _, c := range statuses {
		statusMap[c.Status] = c.Total
	}
	assert.Equal(t, map[string]int{"Pendente": 2, "Atrasada": 1}, statusMap)

	tipos, err := s.TipoCounts()
	require.NoError(t, err)
	tipoMap := map[string]int{}
	for _, c := range tipos {
		tipoMap[c.Tipo] = c.Total
	}
	assert.Equal(t, map[string]int{"Abertura": 2, "Vistoria": 1}, tipoMap)
}

func TestSyncLogLifecycle(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSyncLogStorage(db, logger.NewNop())
	require.NoError(t, err)

	// No sync has ever run.
	last, err := s.Last()
	require.NoError(t, err)
	assert.Nil(t, last)

	started := time.Date(2025, time.July, 30, 10, 0, 0, 0, time.UTC)
	id, err := s.Create("Iniciando sincronização...", started)
	require.NoError(t, err)

	last, err = s.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, SyncStatusRunning, last.Status)
	assert.Nil(t, last.EndedAt, "ended_at must be null while running")
	assert.True(t, last.StartedAt.Equal(started))

	ended := started.Add(5 * time.Minute)
	require.NoError(t, s.Finish(id, SyncStatusSuccess, "Sincronização concluída com sucesso", 42, ended))

	last, err = s.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, SyncStatusSuccess, last.Status)
	assert.Equal(t, 42, last.RecordsProcessed)
	require.NotNil(t, last.EndedAt)
	assert.True(t, last.EndedAt.Equal(ended))
}

func TestSyncLogRecent(t *testing.T) {
	db := newTestDB(t)
	s, err := NewSyncLogStorage(db, logger.NewNop())
	require.NoError(t, err)

	base := time.Date(2025, time.July, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		id, err := s.Create("Iniciando sincronização...", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, s.Finish(id, SyncStatusSuccess, "ok", i, base.Add(time.Duration(i)*time.Hour+time.Minute)))
	}

	logs, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 2, logs[0].RecordsProcessed, "most recent first")
	assert.Equal(t, 1, logs[1].RecordsProcessed)
}
