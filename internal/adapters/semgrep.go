package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sena-ops/codesweep/internal/execx"
	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/textx"
)

// Códigos de saída aceitos do semgrep: 0 = ok sem findings, 1 = ok com
// findings, 7 = nenhuma regra/alvo aplicável (dispara o fallback).
const semgrepNoTargetsExit = 7

// SemgrepAdapter embrulha o semgrep (engine de regras por padrão).
type SemgrepAdapter struct{}

func (SemgrepAdapter) Name() string { return "semgrep" }

type semgrepJSON struct {
	Results []struct {
		CheckID string `json:"check_id"`
		Path    string `json:"path"`
		Start   struct {
			Line int `json:"line"`
			Col  int `json:"col"`
		} `json:"start"`
		Extra struct {
			Message  string `json:"message"`
			Severity string `json:"severity"` // INFO|WARNING|ERROR (ou HIGH/MEDIUM/CRITICAL em regras novas)
		} `json:"extra"`
	} `json:"results"`
}

func (a SemgrepAdapter) Run(ctx context.Context, in Input) ([]model.Finding, error) {
	bin, err := execx.LookPath("semgrep")
	if err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_MISSING_SEMGREP",
			Message:        "semgrep não está instalado ou não está no PATH.",
			Recommendation: "Instale o semgrep (pipx install semgrep) ou remova-o de --tools.",
		}
	}

	configs := splitConfigs(in.Policy.Semgrep.Config)
	findings, res, diag := a.invoke(ctx, in, bin, configs)
	if diag != nil {
		return nil, diag
	}

	// Sem regras/alvos aplicáveis e nenhum resultado: tenta uma vez o pack
	// genérico e registra a cobertura reduzida.
	if res.ExitCode == semgrepNoTargetsExit && len(findings) == 0 && !equalConfigs(configs, []string{"auto"}) {
		in.logger().Infow("semgrep sem alvos aplicáveis; tentando fallback", "configs", configs)
		fallback, _, diag := a.invoke(ctx, in, bin, []string{"auto"})
		if diag != nil {
			return nil, diag
		}
		findings = append(fallback, model.Finding{
			RuleID:   "OSS_ENGINE_SEMGREP_FALLBACK",
			Severity: model.SevLow,
			Message: fmt.Sprintf(
				"semgrep não encontrou regras/alvos para %q; repetido com --config=auto (cobertura reduzida).",
				in.Policy.Semgrep.Config),
			Path:           ".",
			Position:       model.Position{Line: 1, Column: 1},
			Recommendation: "Ajuste --semgrep-config para packs compatíveis com os tipos de arquivo escaneados.",
			Meta:           map[string]string{"engine": "semgrep", "diagnostic": "true"},
		})
	}

	return findings, nil
}

func (a SemgrepAdapter) invoke(ctx context.Context, in Input, bin string, configs []string) ([]model.Finding, execx.Result, *Diagnostic) {
	args := []string{"--json", "--quiet"}
	for _, cfg := range configs {
		args = append(args, "--config="+cfg)
	}
	if len(in.Targets) > 0 {
		args = append(args, in.Targets...)
	} else {
		args = append(args, in.Root)
	}

	res, err := execx.Run(ctx, in.Policy.ToolTimeout(), in.workDir(), bin, args...)
	if err != nil {
		return nil, res, &Diagnostic{
			RuleID:         "OSS_ENGINE_SEMGREP_ERROR",
			Message:        fmt.Sprintf("falha ao executar o semgrep: %v", err),
			Recommendation: "Verifique a instalação do semgrep e a configuração.",
		}
	}

	var findings []model.Finding
	if res.ExitCode != 0 && res.ExitCode != 1 && res.ExitCode != semgrepNoTargetsExit {
		findings = append(findings, model.Finding{
			RuleID:         "OSS_ENGINE_SEMGREP_NONZERO",
			Severity:       model.SevLow,
			Message:        fmt.Sprintf("semgrep terminou com código %d: %s", res.ExitCode, truncate(strings.TrimSpace(res.Stderr), 200)),
			Path:           ".",
			Position:       model.Position{Line: 1, Column: 1},
			Recommendation: "Confira o config do semgrep ou aponte --semgrep-config para regras válidas.",
			Meta:           map[string]string{"engine": "semgrep", "diagnostic": "true"},
		})
		// ainda tenta aproveitar a saída que houver
	}

	stdout := res.Stdout
	if strings.TrimSpace(stdout) == "" {
		stdout = "{}"
	}
	var doc semgrepJSON
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		return nil, res, &Diagnostic{
			RuleID:         "OSS_ENGINE_SEMGREP_PARSE_ERROR",
			Message:        "não foi possível interpretar a saída JSON do semgrep.",
			Recommendation: "Atualize o semgrep ou rode com um config mais simples.",
		}
	}

	for _, r := range doc.Results {
		path := r.Path
		if path == "" {
			path = in.Root
		}
		checkID := r.CheckID
		if checkID == "" {
			checkID = "SEMGREP_RULE"
		}
		line := safeLine(r.Start.Line)
		findings = append(findings, model.Finding{
			RuleID:   "SEMGREP:" + checkID,
			Severity: semgrepSeverity(r.Extra.Severity),
			Message:  firstNonEmpty(r.Extra.Message, "semgrep finding"),
			Path:     textx.RelPath(path, in.Root),
			Position: model.Position{Line: line, Column: safeLine(r.Start.Col)},
			Snippet:  snippetFor(in.Root, path, line),
			Meta:     map[string]string{"engine": "semgrep"},
		})
	}
	return findings, res, nil
}

func semgrepSeverity(s string) model.Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return model.SevCritical
	case "ERROR", "HIGH":
		return model.SevHigh
	case "WARNING", "MEDIUM":
		return model.SevMedium
	default:
		return model.SevLow
	}
}

func splitConfigs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		out = []string{"auto"}
	}
	return out
}

func equalConfigs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
