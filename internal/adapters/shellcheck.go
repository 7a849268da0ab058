package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Sena-ops/codesweep/internal/execx"
	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/textx"
)

// Timeout por arquivo; o shellcheck roda um alvo por vez.
const shellcheckFileTimeout = 120 * time.Second

// ShellcheckAdapter embrulha o shellcheck; só olha .sh/.bash.
type ShellcheckAdapter struct{}

func (ShellcheckAdapter) Name() string { return "shellcheck" }

type shellcheckComment struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Level   string `json:"level"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (a ShellcheckAdapter) Run(ctx context.Context, in Input) ([]model.Finding, error) {
	var targets []string
	if len(in.Targets) > 0 {
		targets = filterByExt(in.Targets, ".sh", ".bash")
	} else {
		targets = walkByExt(in.Root, ".sh", ".bash")
	}
	// Sem scripts shell não há diagnóstico nenhum, nem de binário ausente.
	if len(targets) == 0 {
		return nil, nil
	}

	bin, err := execx.LookPath("shellcheck")
	if err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_MISSING_SHELLCHECK",
			Message:        "shellcheck não está instalado ou não está no PATH.",
			Recommendation: "Instale o shellcheck (apt/brew install shellcheck).",
		}
	}

	var findings []model.Finding
	for _, path := range targets {
		res, err := execx.Run(ctx, shellcheckFileTimeout, in.workDir(), bin, "-f", "json", path)
		if err != nil {
			findings = append(findings, model.Finding{
				RuleID:         "OSS_ENGINE_SHELLCHECK_ERROR",
				Severity:       model.SevLow,
				Message:        fmt.Sprintf("falha ao executar o shellcheck: %v", err),
				Path:           textx.RelPath(path, in.Root),
				Position:       model.Position{Line: 1, Column: 1},
				Recommendation: "Verifique a instalação do shellcheck e as permissões.",
				Meta:           map[string]string{"engine": "shellcheck", "diagnostic": "true"},
			})
			continue
		}

		comments, ok := parseShellcheckOutput(res.Stdout)
		if !ok {
			findings = append(findings, model.Finding{
				RuleID:         "OSS_ENGINE_SHELLCHECK_PARSE_ERROR",
				Severity:       model.SevLow,
				Message:        "não foi possível interpretar a saída JSON do shellcheck.",
				Path:           textx.RelPath(path, in.Root),
				Position:       model.Position{Line: 1, Column: 1},
				Recommendation: "Atualize o shellcheck ou rode com flags mais simples.",
				Meta:           map[string]string{"engine": "shellcheck", "diagnostic": "true"},
			})
			continue
		}

		for _, c := range comments {
			ruleID := "SHELLCHECK"
			if c.Code != 0 {
				ruleID = fmt.Sprintf("SHELLCHECK:SC%d", c.Code)
			}
			line := safeLine(c.Line)
			findings = append(findings, model.Finding{
				RuleID:   ruleID,
				Severity: shellcheckSeverity(c.Level),
				Message:  firstNonEmpty(c.Message, "shellcheck finding"),
				Path:     textx.RelPath(path, in.Root),
				Position: model.Position{Line: line, Column: 1},
				Snippet:  snippetFor(in.Root, path, line),
				Meta:     map[string]string{"engine": "shellcheck", "level": c.Level},
			})
		}
	}
	return findings, nil
}

// Versões diferentes do shellcheck emitem uma lista direta ou um objeto com
// a chave "comments".
func parseShellcheckOutput(stdout string) ([]shellcheckComment, bool) {
	if strings.TrimSpace(stdout) == "" {
		return nil, true
	}
	var list []shellcheckComment
	if err := json.Unmarshal([]byte(stdout), &list); err == nil {
		return list, true
	}
	var wrapped struct {
		Comments []shellcheckComment `json:"comments"`
	}
	if err := json.Unmarshal([]byte(stdout), &wrapped); err == nil {
		return wrapped.Comments, true
	}
	return nil, false
}

func shellcheckSeverity(level string) model.Severity {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return model.SevHigh
	case "warning":
		return model.SevMedium
	default:
		return model.SevLow
	}
}
