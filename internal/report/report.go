package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Sena-ops/codesweep/internal/model"
)

// Format identifica os três encodings de saída.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatSARIF    = "sarif"
)

// Render produz o relatório no formato pedido, preservando a ordem de
// inserção dos findings em todos os encodings.
func Render(findings []model.Finding, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return ToMarkdown(findings), nil
	case FormatJSON:
		return ToJSON(findings)
	case FormatSARIF:
		return ToSARIF(findings)
	default:
		return "", fmt.Errorf("formato desconhecido: %q", format)
	}
}

// extFor devolve a extensão de arquivo do formato.
func extFor(format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return ".md", nil
	case FormatJSON:
		return ".json", nil
	case FormatSARIF:
		return ".sarif", nil
	default:
		return "", fmt.Errorf("formato desconhecido: %q", format)
	}
}

// PerFile renderiza um relatório por arquivo de entrada (deduplicada),
// agrupando os findings pelo path. Toda entrada ganha relatório, mesmo sem
// findings; a chave do mapa é o nome "{base}_report{ext}".
func PerFile(findings []model.Finding, inputs []string, format string) (map[string]string, error) {
	ext, err := extFor(format)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string][]model.Finding)
	for _, f := range findings {
		byPath[f.Path] = append(byPath[f.Path], f)
	}

	seen := map[string]bool{}
	reports := make(map[string]string, len(inputs))
	for _, rel := range inputs {
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true
		base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		content, err := Render(byPath[rel], format)
		if err != nil {
			return nil, err
		}
		reports[base+"_report"+ext] = content
	}
	return reports, nil
}

// Summary agrega contagens por severidade.
type Summary struct {
	Total    int
	Critical int
	High     int
	Medium   int
	Low      int
}

func Summarize(findings []model.Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case model.SevCritical:
			s.Critical++
		case model.SevHigh:
			s.High++
		case model.SevMedium:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}

// ToMarkdown gera o relatório em texto.
func ToMarkdown(findings []model.Finding) string {
	if len(findings) == 0 {
		return "✅ Nenhum problema encontrado."
	}
	var sb strings.Builder
	sb.WriteString("# Relatório CodeSweep\n\n")
	s := Summarize(findings)
	fmt.Fprintf(&sb, "**Resumo:** Total: %d, Critical: %d, High: %d, Medium: %d, Low: %d\n\n",
		s.Total, s.Critical, s.High, s.Medium, s.Low)
	for idx, f := range findings {
		fmt.Fprintf(&sb, "## %d. [%s] %s — %s:%d\n", idx+1, strings.ToUpper(string(f.Severity)), f.RuleID, f.Path, f.Position.Line)
		sb.WriteString(f.Message + "\n\n")
		if f.Snippet != "" {
			sb.WriteString("```\n" + f.Snippet + "\n```\n")
		}
		if f.Recommendation != "" {
			fmt.Fprintf(&sb, "**Correção:** %s\n", f.Recommendation)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ToJSON serializa todos os campos de cada finding, na ordem de entrada.
func ToJSON(findings []model.Finding) (string, error) {
	if findings == nil {
		findings = []model.Finding{}
	}
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("erro ao gerar JSON: %w", err)
	}
	return string(data), nil
}

// Estruturas SARIF 2.1.0 (subset que o GitHub/VSCode reconhecem).
type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"` // error, warning, note
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// ToSARIF gera SARIF 2.1.0: dicionário de regras por primeiro rule_id visto,
// descrição curta truncada em 80 chars, uma localização física por resultado.
func ToSARIF(findings []model.Finding) (string, error) {
	seen := map[string]bool{}
	rules := make([]sarifRule, 0, len(findings))
	results := make([]sarifResult, 0, len(findings))

	for _, f := range findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			// truncagem por runa: cortar por byte racharia acentos no meio
			desc := f.Message
			if r := []rune(desc); len(r) > 80 {
				desc = string(r[:80])
			}
			rules = append(rules, sarifRule{
				ID:               f.RuleID,
				ShortDescription: sarifMessage{Text: desc},
			})
		}
		start := f.Position.Line
		if start < 1 {
			start = 1
		}
		results = append(results, sarifResult{
			RuleID:  f.RuleID,
			Level:   sevToLevel(f.Severity),
			Message: sarifMessage{Text: strings.TrimSpace(f.Message)},
			Locations: []sarifLocation{
				{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: f.Path},
						Region:           sarifRegion{StartLine: start},
					},
				},
			},
		})
	}

	log := sarifLog{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool:    sarifTool{Driver: sarifDriver{Name: "CodeSweep", Rules: rules}},
				Results: results,
			},
		},
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("erro ao gerar SARIF: %w", err)
	}
	return string(data), nil
}

func sevToLevel(s model.Severity) string {
	switch s {
	case model.SevCritical, model.SevHigh:
		return "error"
	case model.SevMedium:
		return "warning"
	default:
		return "note"
	}
}
