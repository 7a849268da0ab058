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

// SQLFluffAdapter embrulha o sqlfluff; só olha alvos .sql.
type SQLFluffAdapter struct{}

func (SQLFluffAdapter) Name() string { return "sqlfluff" }

type sqlfluffJSON []struct {
	Filepath   string `json:"filepath"`
	Violations []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		LineNo      int    `json:"line_no"`
		LinePos     int    `json:"line_pos"`
	} `json:"violations"`
}

func (a SQLFluffAdapter) Run(ctx context.Context, in Input) ([]model.Finding, error) {
	var targets []string
	if len(in.Targets) > 0 {
		targets = filterByExt(in.Targets, ".sql")
		if len(targets) == 0 {
			// nenhum alvo SQL: não é erro, só não há o que lintar
			return nil, nil
		}
	} else {
		targets = []string{in.Root}
	}

	bin, err := execx.LookPath("sqlfluff")
	if err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_MISSING_SQLFLUFF",
			Message:        "sqlfluff não está instalado ou não está no PATH.",
			Recommendation: "Instale o sqlfluff (pipx install sqlfluff).",
		}
	}

	args := append([]string{"lint", "--format", "json"}, targets...)
	res, err := execx.Run(ctx, in.Policy.ToolTimeout(), in.workDir(), bin, args...)
	if err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_SQLFLUFF_ERROR",
			Message:        fmt.Sprintf("falha ao executar o sqlfluff: %v", err),
			Recommendation: "Verifique a instalação e a configuração (sqlfluff.cfg).",
		}
	}

	stdout := res.Stdout
	if strings.TrimSpace(stdout) == "" {
		stdout = "[]"
	}
	var doc sqlfluffJSON
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_SQLFLUFF_PARSE_ERROR",
			Message:        "não foi possível interpretar a saída JSON do sqlfluff.",
			Recommendation: "Atualize o sqlfluff e repita.",
		}
	}

	var findings []model.Finding
	for _, fileRes := range doc {
		path := fileRes.Filepath
		if path == "" {
			path = in.Root
		}
		for _, v := range fileRes.Violations {
			code := v.Code
			if code == "" {
				code = "SQLFLUFF"
			}
			line := safeLine(v.LineNo)
			findings = append(findings, model.Finding{
				RuleID:         "SQLFLUFF:" + code,
				Severity:       sqlfluffSeverity(code),
				Message:        firstNonEmpty(v.Description, "problema de lint SQL"),
				Path:           textx.RelPath(path, in.Root),
				Position:       model.Position{Line: line, Column: safeLine(v.LinePos)},
				Snippet:        snippetFor(in.Root, path, line),
				Recommendation: "Corrija o problema de lint ou ajuste o config do sqlfluff.",
				Meta:           map[string]string{"engine": "sqlfluff"},
			})
		}
	}
	return findings, nil
}

// Famílias de estilo ("L...") são medium; o resto é low.
func sqlfluffSeverity(code string) model.Severity {
	if strings.HasPrefix(code, "L") {
		return model.SevMedium
	}
	return model.SevLow
}
