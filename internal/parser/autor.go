// Package parser contains the heuristic extractors that turn the free-text
// fields of a pendency record into structured views. The upstream text is
// human-authored and irregular, so every rule here is best-effort: a rule
// that does not match simply leaves its field empty, it never fails.
package parser

import (
	"regexp"
	"strings"
)

// AutorInfo is the structured view derived from the raw "autor" field.
// Every field is optional; an empty string means the rule did not match.
type AutorInfo struct {
	Protocolo     string `json:"protocolo,omitempty"`
	Funcionario   string `json:"funcionario,omitempty"`
	Escopo        string `json:"escopo,omitempty"`
	ContratoFilho string `json:"contratoFilho,omitempty"`
}

// Labels may arrive with or without diacritics, in any case. The rules are
// independent: one not matching never blocks the others.
var (
	// "Protocolo:123..." and "Protocolo: 123..." both match.
	reProtocolo = regexp.MustCompile(`(?i)protocolo:\s*(\d{8,})`)

	// Captures up to a pipe or end of line; " - Contrato:" is stripped
	// afterwards (RE2 has no lookahead) so hyphens inside names survive.
	reFuncionario     = regexp.MustCompile(`(?i)funcion[áa]rio:\s*([^\n|]+)`)
	reFuncionarioStop = regexp.MustCompile(`(?i)\s+-\s+contrato:.*$`)

	// SUB marker with or without a hyphen before the contract number:
	// "Contrato: SUB 01 4600013206", "Contrato: SUB 02 - 4600013206".
	// A bare "Contrato: 4600013206" deliberately does not match: the
	// dashboard only treats the SUB marker as a child contract.
	reContratoSub = regexp.MustCompile(`(?i)contrato:\s*(sub\s*\d{1,2})(?:\s*-\s*|\s+)?(\d{6,})`)

	reEscopoPipe     = regexp.MustCompile(`(?i)\|\s*escopo:\s*(.+)$`)
	reEscopo         = regexp.MustCompile(`(?i)escopo:\s*(.+)$`)
	reTrailingHyphen = regexp.MustCompile(`\s*-\s*$`)
)

// ParseAutor extracts protocol id, employee name, scope and child-contract
// marker from a raw autor string. Malformed input yields absent fields.
func ParseAutor(autor string) AutorInfo {
	var info AutorInfo

	if m := reProtocolo.FindStringSubmatch(autor); m != nil {
		info.Protocolo = strings.TrimSpace(m[1])
	}

	if m := reFuncionario.FindStringSubmatch(autor); m != nil {
		name := reFuncionarioStop.ReplaceAllString(m[1], "")
		info.Funcionario = strings.TrimSpace(name)
	}

	if m := reContratoSub.FindStringSubmatch(autor); m != nil {
		sub := strings.TrimSpace(m[1])
		if sub != "" {
			info.ContratoFilho = reTrailingHyphen.ReplaceAllString(sub, "")
		}
	}

	// Prefer the pipe-separated escopo variant over a bare label.
	if m := reEscopoPipe.FindStringSubmatch(autor); m != nil {
		info.Escopo = strings.TrimSpace(m[1])
	} else if m := reEscopo.FindStringSubmatch(autor); m != nil {
		info.Escopo = strings.TrimSpace(m[1])
	}

	return info
}
