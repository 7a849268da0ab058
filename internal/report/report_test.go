package report

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Sena-ops/codesweep/internal/model"
)

func sampleFindings() []model.Finding {
	return []model.Finding{
		{
			RuleID:   "SQL_STRICT_GRANT_ALL",
			Severity: model.SevHigh,
			Message:  "GRANT ALL amplo detectado.",
			Path:     "scripts/setup.sql",
			Position: model.Position{Line: 3, Column: 1},
			Snippet:  "-->     3: GRANT ALL ON db TO todos;",
		},
		{
			RuleID:   "SHELLCHECK:SC2086",
			Severity: model.SevMedium,
			Message:  "Variável sem aspas.",
			Path:     "deploy.sh",
			Position: model.Position{Line: 10, Column: 1},
		},
		{
			RuleID:   "OSS_ENGINE_MISSING_SEMGREP",
			Severity: model.SevLow,
			Message:  "semgrep não está instalado.",
			Path:     ".",
			Position: model.Position{Line: 1, Column: 1},
		},
	}
}

func TestToMarkdownVazio(t *testing.T) {
	result := ToMarkdown(nil)
	if result != "✅ Nenhum problema encontrado." {
		t.Errorf("esperada mensagem de sucesso, obtido %q", result)
	}
}

func TestToMarkdownPreservaOrdem(t *testing.T) {
	result := ToMarkdown(sampleFindings())

	first := strings.Index(result, "SQL_STRICT_GRANT_ALL")
	second := strings.Index(result, "SHELLCHECK:SC2086")
	third := strings.Index(result, "OSS_ENGINE_MISSING_SEMGREP")
	if first == -1 || second == -1 || third == -1 {
		t.Fatalf("findings ausentes do relatório:\n%s", result)
	}
	if !(first < second && second < third) {
		t.Error("a ordem de inserção deveria ser preservada")
	}

	if !strings.Contains(result, "Total: 3, Critical: 0, High: 1, Medium: 1, Low: 1") {
		t.Errorf("resumo incorreto:\n%s", result)
	}
	if !strings.Contains(result, "[HIGH] SQL_STRICT_GRANT_ALL — scripts/setup.sql:3") {
		t.Errorf("cabeçalho de finding incorreto:\n%s", result)
	}
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(sampleFindings())
	if err != nil {
		t.Fatal(err)
	}

	var decoded []model.Finding
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("saída JSON inválida: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("esperados 3 findings, obtidos %d", len(decoded))
	}
	if decoded[0].RuleID != "SQL_STRICT_GRANT_ALL" {
		t.Errorf("ordem não preservada: %v", decoded[0].RuleID)
	}
}

func TestToJSONVazio(t *testing.T) {
	out, err := ToJSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("lista vazia deveria serializar como [], obtido %q", out)
	}
}

func TestToSARIF(t *testing.T) {
	out, err := ToSARIF(sampleFindings())
	if err != nil {
		t.Fatal(err)
	}

	var log struct {
		Schema  string `json:"$schema"`
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID string `json:"ruleId"`
				Level  string `json:"level"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &log); err != nil {
		t.Fatalf("SARIF inválido: %v", err)
	}

	if log.Version != "2.1.0" {
		t.Errorf("esperado 2.1.0, obtido %v", log.Version)
	}
	if len(log.Runs) != 1 || log.Runs[0].Tool.Driver.Name != "CodeSweep" {
		t.Fatalf("driver inesperado: %+v", log.Runs)
	}
	results := log.Runs[0].Results
	if len(results) != 3 {
		t.Fatalf("esperados 3 resultados, obtidos %d", len(results))
	}
	if results[0].Level != "error" || results[1].Level != "warning" || results[2].Level != "note" {
		t.Errorf("mapeamento de severidade incorreto: %+v", results)
	}
	if len(log.Runs[0].Tool.Driver.Rules) != 3 {
		t.Errorf("esperadas 3 regras no dicionário, obtidas %d", len(log.Runs[0].Tool.Driver.Rules))
	}
}

func TestToSARIFRegrasDeduplicadasETruncadas(t *testing.T) {
	longMsg := strings.Repeat("a", 200)
	findings := []model.Finding{
		{RuleID: "R1", Severity: model.SevHigh, Message: longMsg, Path: "a.sql", Position: model.Position{Line: 1}},
		{RuleID: "R1", Severity: model.SevHigh, Message: "outra mensagem", Path: "b.sql", Position: model.Position{Line: 2}},
	}

	out, err := ToSARIF(findings)
	if err != nil {
		t.Fatal(err)
	}

	var log struct {
		Runs []struct {
			Tool struct {
				Driver struct {
					Rules []struct {
						ID               string `json:"id"`
						ShortDescription struct {
							Text string `json:"text"`
						} `json:"shortDescription"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []json.RawMessage `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &log); err != nil {
		t.Fatal(err)
	}

	rules := log.Runs[0].Tool.Driver.Rules
	if len(rules) != 1 {
		t.Fatalf("regra repetida deveria entrar uma única vez, obtidas %d", len(rules))
	}
	if len(rules[0].ShortDescription.Text) != 80 {
		t.Errorf("descrição deveria ser truncada em 80 chars, obtidos %d", len(rules[0].ShortDescription.Text))
	}
	if len(log.Runs[0].Results) != 2 {
		t.Errorf("ambos os resultados deveriam permanecer, obtidos %d", len(log.Runs[0].Results))
	}
}

func TestToSARIFTruncaEmLimiteDeRuna(t *testing.T) {
	// 100 runas multi-byte: uma fatia de bytes cortaria um acento no meio
	msg := strings.Repeat("ç", 100)
	findings := []model.Finding{
		{RuleID: "R1", Severity: model.SevHigh, Message: msg, Path: "a.sql", Position: model.Position{Line: 1}},
	}

	out, err := ToSARIF(findings)
	if err != nil {
		t.Fatal(err)
	}

	var log struct {
		Runs []struct {
			Tool struct {
				Driver struct {
					Rules []struct {
						ShortDescription struct {
							Text string `json:"text"`
						} `json:"shortDescription"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &log); err != nil {
		t.Fatal(err)
	}

	text := log.Runs[0].Tool.Driver.Rules[0].ShortDescription.Text
	if !utf8.ValidString(text) {
		t.Errorf("descrição truncada deveria ser UTF-8 válido, obtido %q", text)
	}
	if utf8.RuneCountInString(text) != 80 {
		t.Errorf("esperadas 80 runas, obtidas %d", utf8.RuneCountInString(text))
	}
}

func TestRenderFormatoDesconhecido(t *testing.T) {
	if _, err := Render(nil, "xml"); err == nil {
		t.Error("formato desconhecido deveria retornar erro")
	}
}

func TestRenderAliasMd(t *testing.T) {
	out, err := Render(nil, "md")
	if err != nil {
		t.Fatalf("alias md deveria ser aceito, obtido %v", err)
	}
	if !strings.Contains(out, "Nenhum problema encontrado") {
		t.Errorf("saída inesperada: %q", out)
	}
}

func TestPerFile(t *testing.T) {
	findings := []model.Finding{
		{RuleID: "SQL_STRICT_GRANT_ALL", Severity: model.SevHigh, Message: "GRANT ALL amplo.", Path: "scripts/setup.sql", Position: model.Position{Line: 3}},
		{RuleID: "SHELLCHECK:SC2086", Severity: model.SevMedium, Message: "Variável sem aspas.", Path: "deploy.sh", Position: model.Position{Line: 10}},
	}
	inputs := []string{"scripts/setup.sql", "deploy.sh", "limpo.py", "deploy.sh"}

	reports, err := PerFile(findings, inputs, "markdown")
	if err != nil {
		t.Fatal(err)
	}

	// cada entrada gera um relatório, duplicatas contam uma vez
	if len(reports) != 3 {
		t.Fatalf("esperados 3 relatórios, obtidos %d: %v", len(reports), reports)
	}
	setup, ok := reports["setup_report.md"]
	if !ok {
		t.Fatalf("relatório setup_report.md ausente: %v", reports)
	}
	if !strings.Contains(setup, "SQL_STRICT_GRANT_ALL") || strings.Contains(setup, "SHELLCHECK") {
		t.Errorf("relatório deveria conter só os findings do próprio arquivo:\n%s", setup)
	}
	// entrada sem findings ganha o relatório de sucesso
	if limpo := reports["limpo_report.md"]; !strings.Contains(limpo, "Nenhum problema encontrado") {
		t.Errorf("entrada limpa deveria ter relatório de sucesso, obtido %q", limpo)
	}
}

func TestPerFileExtensaoPorFormato(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{"markdown", "a_report.md"},
		{"json", "a_report.json"},
		{"sarif", "a_report.sarif"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			reports, err := PerFile(nil, []string{"a.sql"}, tt.format)
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := reports[tt.expected]; !ok {
				t.Errorf("esperado %s, obtido %v", tt.expected, reports)
			}
		})
	}
}

func TestPerFileFormatoDesconhecido(t *testing.T) {
	if _, err := PerFile(nil, []string{"a.sql"}, "xml"); err == nil {
		t.Error("formato desconhecido deveria retornar erro")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleFindings())
	if s.Total != 3 || s.High != 1 || s.Medium != 1 || s.Low != 1 || s.Critical != 0 {
		t.Errorf("resumo incorreto: %+v", s)
	}
}
