package upstream

import "fmt"

// ScrapeResponse is the payload returned by the scraping API.
type ScrapeResponse struct {
	Success bool              `json:"success"`
	Data    []ContratoPayload `json:"data"`
}

// ContratoPayload is one contract entry with its pendency records.
type ContratoPayload struct {
	Contrato  string            `json:"contrato"`
	Registros []RegistroPayload `json:"registros"`
}

// RegistroPayload is one raw pendency record as scraped upstream. The
// optional fields default to empty strings when absent.
type RegistroPayload struct {
	Autor     string `json:"autor"`
	Data      string `json:"data"`
	ExtraInfo string `json:"extra_info"`
	Numero    string `json:"numero"`
	Prazo     string `json:"prazo"`
	Status    string `json:"status"`
	Tipo      string `json:"tipo"`
}

// Validate re-imposes the required shape that lenient JSON decoding lets
// through: a data array must be present, every entry needs a non-empty
// contrato number and a registros array. A shape violation is fatal to the
// whole sync run.
func (r *ScrapeResponse) Validate() error {
	if r.Data == nil {
		return fmt.Errorf("payload missing data array")
	}
	for i, contrato := range r.Data {
		if contrato.Contrato == "" {
			return fmt.Errorf("payload data[%d] missing contrato number", i)
		}
		if contrato.Registros == nil {
			return fmt.Errorf("payload data[%d] (%s) missing registros array", i, contrato.Contrato)
		}
	}
	return nil
}
