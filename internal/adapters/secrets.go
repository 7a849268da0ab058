package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Sena-ops/codesweep/internal/execx"
	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/textx"
)

// SecretsAdapter embrulha o detect-secrets.
type SecretsAdapter struct{}

func (SecretsAdapter) Name() string { return "detect-secrets" }

type detectSecretsJSON struct {
	Results map[string][]struct {
		Type       string `json:"type"`
		LineNumber int    `json:"line_number"`
	} `json:"results"`
}

func (a SecretsAdapter) Run(ctx context.Context, in Input) ([]model.Finding, error) {
	bin, err := execx.LookPath("detect-secrets")
	if err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_MISSING_DETECT_SECRETS",
			Message:        "detect-secrets não está instalado ou não está no PATH.",
			Recommendation: "Instale o detect-secrets (pipx install detect-secrets).",
		}
	}

	args := []string{"scan", "--all-files"}
	if len(in.Targets) > 0 {
		args = append(args, in.Targets...)
	} else {
		args = append(args, in.Root)
	}

	res, err := execx.Run(ctx, in.Policy.ToolTimeout(), in.workDir(), bin, args...)
	if err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_DETECT_SECRETS_ERROR",
			Message:        fmt.Sprintf("falha ao executar o detect-secrets: %v", err),
			Recommendation: "Verifique a instalação e as permissões.",
		}
	}

	stdout := res.Stdout
	if strings.TrimSpace(stdout) == "" {
		stdout = "{}"
	}
	var doc detectSecretsJSON
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		return nil, &Diagnostic{
			RuleID:         "OSS_ENGINE_DETECT_SECRETS_PARSE_ERROR",
			Message:        "não foi possível interpretar a saída JSON do detect-secrets.",
			Recommendation: "Atualize o detect-secrets e repita.",
		}
	}

	return secretsFindings(doc, in), nil
}

// secretsFindings percorre os paths em ordem lexicográfica: o JSON decodifica
// para um map e a iteração de map em Go é aleatória, o que quebraria a
// reprodutibilidade do relatório entre execuções idênticas.
func secretsFindings(doc detectSecretsJSON, in Input) []model.Finding {
	paths := make([]string, 0, len(doc.Results))
	for path := range doc.Results {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var findings []model.Finding
	for _, path := range paths {
		for _, it := range doc.Results[path] {
			stype := it.Type
			if stype == "" {
				stype = "secret"
			}
			line := safeLine(it.LineNumber)
			findings = append(findings, model.Finding{
				RuleID:         "DETECT-SECRETS:" + stype,
				Severity:       secretSeverity(stype),
				Message:        fmt.Sprintf("Possível segredo detectado: %s", stype),
				Path:           textx.RelPath(path, in.Root),
				Position:       model.Position{Line: line, Column: 1},
				Snippet:        snippetFor(in.Root, path, line),
				Recommendation: "Rotacione e remova segredos hardcoded. Use um gerenciador de segredos.",
				Meta:           map[string]string{"engine": "detect-secrets"},
			})
		}
	}
	return findings
}

// secretSeverity: tipos que carregam credencial direta são críticos; o resto é high.
func secretSeverity(secretType string) model.Severity {
	t := strings.ToLower(secretType)
	for _, marker := range []string{"token", "password", "apikey", "private"} {
		if strings.Contains(t, marker) {
			return model.SevCritical
		}
	}
	return model.SevHigh
}
