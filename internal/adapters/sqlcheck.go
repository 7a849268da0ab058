package adapters

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sena-ops/codesweep/internal/execx"
	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/textx"
)

// SqlcheckAdapter embrulha o sqlcheck (detector de anti-padrões de SQL);
// só olha alvos .sql. Opt-in: não entra na lista padrão de --tools.
type SqlcheckAdapter struct{}

func (SqlcheckAdapter) Name() string { return "sqlcheck" }

var (
	sqlcheckStmtRe  = regexp.MustCompile(`^SQL Statement at line (\d+):`)
	sqlcheckIssueRe = regexp.MustCompile(`^\[[^\]]*\]\s*:\s*\((LOW|MEDIUM|HIGH) RISK\)\s*(.+)$`)
)

type sqlcheckIssue struct {
	Line    int
	Risk    string
	Message string
}

func (a SqlcheckAdapter) Run(ctx context.Context, in Input) ([]model.Finding, error) {
	var targets []string
	if len(in.Targets) > 0 {
		targets = filterByExt(in.Targets, ".sql")
	} else {
		targets = walkByExt(in.Root, ".sql")
	}
	if len(targets) == 0 {
		return nil, nil
	}

	bin, err := execx.LookPath("sqlcheck")
	if err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_MISSING_SQLCHECK",
			Message:        "sqlcheck não está instalado ou não está no PATH.",
			Recommendation: "Instale o sqlcheck ou remova-o de --tools.",
		}
	}

	var findings []model.Finding
	for _, path := range targets {
		res, err := execx.Run(ctx, in.Policy.ToolTimeout(), in.workDir(), bin, "-f", path)
		if err != nil {
			findings = append(findings, model.Finding{
				RuleID:         "OSS_ENGINE_SQLCHECK_ERROR",
				Severity:       model.SevLow,
				Message:        fmt.Sprintf("falha ao executar o sqlcheck: %v", err),
				Path:           textx.RelPath(path, in.Root),
				Position:       model.Position{Line: 1, Column: 1},
				Recommendation: "Verifique a instalação do sqlcheck e as permissões.",
				Meta:           map[string]string{"engine": "sqlcheck", "diagnostic": "true"},
			})
			continue
		}

		text, readErr := textx.ReadText(path)
		for _, issue := range parseSqlcheckOutput(res.Stdout) {
			line := safeLine(issue.Line)
			snippet := ""
			if readErr == nil {
				snippet = textx.SafeSnippet(text, line)
			}
			findings = append(findings, model.Finding{
				RuleID:         "SQLCHECK_FINDING",
				Severity:       sqlcheckSeverity(issue.Risk),
				Message:        issue.Message,
				Path:           textx.RelPath(path, in.Root),
				Position:       model.Position{Line: line, Column: 1},
				Snippet:        snippet,
				Recommendation: "Revise a query para evitar o anti-padrão de SQL conhecido.",
				Meta:           map[string]string{"engine": "sqlcheck"},
			})
		}
	}
	return findings, nil
}

// parseSqlcheckOutput lê o relatório de texto do sqlcheck: cada statement
// abre com "SQL Statement at line N:" e os anti-padrões dele vêm em linhas
// "[arquivo] : (RISCO RISK) título". Linhas fora desse formato são ignoradas.
func parseSqlcheckOutput(stdout string) []sqlcheckIssue {
	var issues []sqlcheckIssue
	currentLine := 1
	for _, ln := range strings.Split(stdout, "\n") {
		ln = strings.TrimSpace(ln)
		if m := sqlcheckStmtRe.FindStringSubmatch(ln); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				currentLine = n
			}
			continue
		}
		if m := sqlcheckIssueRe.FindStringSubmatch(ln); m != nil {
			issues = append(issues, sqlcheckIssue{
				Line:    currentLine,
				Risk:    m[1],
				Message: strings.TrimSpace(m[2]),
			})
		}
	}
	return issues
}

func sqlcheckSeverity(risk string) model.Severity {
	switch strings.ToUpper(strings.TrimSpace(risk)) {
	case "HIGH":
		return model.SevHigh
	case "LOW":
		return model.SevLow
	default:
		return model.SevMedium
	}
}
