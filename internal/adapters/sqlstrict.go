package adapters

import (
	"context"
	"regexp"

	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/textx"
)

// SQLStrictAdapter roda checks próprios sobre o texto cru de arquivos .sql,
// sem subprocesso algum. Sempre habilitado, salvo --no-sql-strict.
type SQLStrictAdapter struct{}

func (SQLStrictAdapter) Name() string { return "sql-strict" }

var (
	grantAllRe   = regexp.MustCompile(`(?i)\bGRANT\s+ALL\b`)
	dropTableRe  = regexp.MustCompile(`(?i)\bDROP\s+TABLE\b`)
	dropGuardRe  = regexp.MustCompile(`(?i)^\s+IF\s+EXISTS\s+temp`)
	deleteStmtRe = regexp.MustCompile(`(?is)\bDELETE\s+FROM\s+[A-Za-z0-9_."]+.*?;`)
	whereRe      = regexp.MustCompile(`(?i)\bWHERE\b`)
)

func (a SQLStrictAdapter) Run(ctx context.Context, in Input) ([]model.Finding, error) {
	var targets []string
	if len(in.Targets) > 0 {
		targets = filterByExt(in.Targets, ".sql")
	} else {
		targets = walkByExt(in.Root, ".sql")
	}

	var findings []model.Finding
	for _, path := range targets {
		text, err := textx.ReadText(path)
		if err != nil {
			continue
		}
		findings = append(findings, a.checkText(text, textx.RelPath(path, in.Root))...)
	}
	return findings, nil
}

func (a SQLStrictAdapter) checkText(text, relPath string) []model.Finding {
	var findings []model.Finding

	for _, m := range grantAllRe.FindAllStringIndex(text, -1) {
		line := textx.LineFromIndex(text, m[0])
		findings = append(findings, model.Finding{
			RuleID:         "SQL_STRICT_GRANT_ALL",
			Severity:       model.SevHigh,
			Message:        "GRANT ALL amplo detectado.",
			Path:           relPath,
			Position:       model.Position{Line: line, Column: 1},
			Snippet:        textx.SafeSnippet(text, line),
			Recommendation: "Use GRANTs de menor privilégio em objetos específicos.",
			Meta:           map[string]string{"engine": "sql-strict"},
		})
	}

	for _, m := range dropTableRe.FindAllStringIndex(text, -1) {
		// DROP guardado com IF EXISTS em escopo temp não conta
		if dropGuardRe.MatchString(text[m[1]:]) {
			continue
		}
		line := textx.LineFromIndex(text, m[0])
		findings = append(findings, model.Finding{
			RuleID:         "SQL_STRICT_DROP_TABLE",
			Severity:       model.SevMedium,
			Message:        "DROP TABLE potencialmente destrutivo.",
			Path:           relPath,
			Position:       model.Position{Line: line, Column: 1},
			Snippet:        textx.SafeSnippet(text, line),
			Recommendation: "Evite DROP fora de migrações/testes ou proteja com IF EXISTS e escopo temp.",
			Meta:           map[string]string{"engine": "sql-strict"},
		})
	}

	for _, m := range deleteStmtRe.FindAllStringIndex(text, -1) {
		stmt := text[m[0]:m[1]]
		if whereRe.MatchString(stmt) {
			continue
		}
		line := textx.LineFromIndex(text, m[0])
		findings = append(findings, model.Finding{
			RuleID:         "SQL_STRICT_DELETE_ALL",
			Severity:       model.SevHigh,
			Message:        "DELETE sem cláusula WHERE.",
			Path:           relPath,
			Position:       model.Position{Line: line, Column: 1},
			Snippet:        textx.SafeSnippet(text, line),
			Recommendation: "Adicione uma cláusula WHERE ou proteja com predicados de partição.",
			Meta:           map[string]string{"engine": "sql-strict"},
		})
	}

	return findings
}
