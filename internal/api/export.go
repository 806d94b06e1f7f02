package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brkops/painel-holmes/pkg/logger"
)

// exportRow mirrors the spreadsheet the dashboard users expect: Portuguese
// column headers, multi-line extra info flattened to one line.
type exportRow struct {
	Contrato     string `json:"Contrato"`
	Autor        string `json:"Autor"`
	Data         string `json:"Data"`
	Numero       string `json:"Número"`
	Prazo        string `json:"Prazo"`
	Status       string `json:"Status"`
	Tipo         string `json:"Tipo"`
	ExtraInfo    string `json:"Informações Extras"`
	CriadoEm     string `json:"Criado em"`
	AtualizadoEm string `json:"Atualizado em"`
}

var exportHeaders = []string{
	"Contrato", "Autor", "Data", "Número", "Prazo", "Status", "Tipo",
	"Informações Extras", "Criado em", "Atualizado em",
}

// ExportRegistros serves the full dataset as CSV (default) or JSON, ordered
// by prazo descending, as a dated attachment.
func (h *Handler) ExportRegistros(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	records, err := h.records.ListAllRegistros()
	if err != nil {
		h.logger.Error("Failed to load registros for export", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	rows := make([]exportRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, exportRow{
			Contrato:     record.ContratoNumero,
			Autor:        record.Autor,
			Data:         record.Data,
			Numero:       record.Numero,
			Prazo:        record.Prazo,
			Status:       record.Status,
			Tipo:         record.Tipo,
			ExtraInfo:    strings.ReplaceAll(record.ExtraInfo, "\n", " "),
			CriadoEm:     record.CreatedAt.Format(time.RFC3339),
			AtualizadoEm: record.UpdatedAt.Format(time.RFC3339),
		})
	}

	filename := fmt.Sprintf("painel-holmes-%s", time.Now().Format("2006-01-02"))

	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, filename))
		w.WriteHeader(http.StatusOK)

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rows); err != nil {
			h.logger.Error("Failed to encode JSON export", logger.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
	w.WriteHeader(http.StatusOK)

	// BOM so spreadsheet software picks up UTF-8.
	if _, err := w.Write([]byte("\ufeff")); err != nil {
		h.logger.Error("Failed to write export BOM", logger.Error(err))
		return
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(exportHeaders); err != nil {
		h.logger.Error("Failed to write CSV header", logger.Error(err))
		return
	}
	for _, row := range rows {
		record := []string{
			row.Contrato, row.Autor, row.Data, row.Numero, row.Prazo,
			row.Status, row.Tipo, row.ExtraInfo, row.CriadoEm, row.AtualizadoEm,
		}
		if err := writer.Write(record); err != nil {
			h.logger.Error("Failed to write CSV row", logger.Error(err))
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error("Failed to flush CSV export", logger.Error(err))
	}
}
