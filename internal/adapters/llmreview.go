package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Sena-ops/codesweep/internal/llm"
	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/textx"
)

// Sentinelas que o backend deve devolver quando não há nada a reportar.
const (
	sentinelNoIssues     = "NO_SECURITY_ISSUES_FOUND"
	sentinelNoNewIssues  = "NO_ADDITIONAL_ISSUES_FOUND"
	reviewBlockDelimiter = "---"
	reviewTemperature    = 0.1
)

var reviewExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".java": true, ".go": true,
	".rb": true, ".php": true, ".cs": true, ".sh": true, ".bash": true,
	".sql": true, ".tf": true, ".yaml": true, ".yml": true, ".json": true,
}

const gapFillingPrompt = `You are a security expert reviewing code for vulnerabilities. Analyze the code below and identify ALL security issues, even in test files or code with explanatory comments.

Look for: arbitrary code execution (eval/exec), unsafe deserialization, shell command injection, SQL built by concatenation or interpolation, disabled TLS verification, unsafe YAML loading, hardcoded secrets, prompt injection, missing authentication and missing input validation.

For each vulnerability found, respond in this EXACT format:

VULNERABILITY: <brief title>
SEVERITY: <CRITICAL|HIGH|MEDIUM|LOW>
LINE: <line number>
DESCRIPTION: <detailed explanation>
RECOMMENDATION: <how to fix>
---

If NO vulnerabilities are found, respond with exactly: "` + sentinelNoIssues + `"

Code to review:
` + "```\n%s\n```" + `

Your security analysis:`

const enrichmentPrompt = `You are a security expert reviewing code for vulnerabilities. Pattern-based scanners already reviewed this file and reported the issues listed below. Report ONLY NEW issues that are NOT in that list; do not repeat or rephrase known issues.

Known issues already reported:
%s

For each NEW vulnerability found, respond in this EXACT format:

VULNERABILITY: <brief title>
SEVERITY: <CRITICAL|HIGH|MEDIUM|LOW>
LINE: <line number>
DESCRIPTION: <detailed explanation>
RECOMMENDATION: <how to fix>
---

If there are NO additional issues beyond the known ones, respond with exactly: "` + sentinelNoNewIssues + `"

Code to review:
` + "```\n%s\n```" + `

Your security analysis:`

// LLMReviewer é o engine do estágio 2: revisão semântica por arquivo,
// condicionada aos findings do estágio 1 para não duplicar relatório.
type LLMReviewer struct {
	Backend llm.Backend
}

func (LLMReviewer) Name() string { return "llm-review" }

// Review roda a revisão semântica. Falhas nunca sobem: viram diagnósticos
// low no próprio resultado (por arquivo, ou um único para backend indisponível).
func (r LLMReviewer) Review(ctx context.Context, in Input, prior []model.Finding) []model.Finding {
	var findings []model.Finding

	if r.Backend == nil {
		return []model.Finding{(&Diagnostic{
			RuleID:         "LLM_ENGINE_UNAVAILABLE",
			Message:        "revisão por LLM indisponível: nenhum backend configurado.",
			Recommendation: "Suba um Ollama local ou configure AZURE_OPENAI_ENDPOINT/AZURE_OPENAI_API_KEY/AZURE_OPENAI_DEPLOYMENT.",
		}).Fold()}
	}
	if !r.Backend.IsAvailable(ctx) {
		return []model.Finding{(&Diagnostic{
			RuleID:         "LLM_ENGINE_NOT_READY",
			Message:        fmt.Sprintf("backend %s não está acessível; pulando revisão por LLM.", r.Backend.Name()),
			Recommendation: "Inicie o serviço do backend ou revise endpoint/modelo na policy.",
		}).Fold()}
	}

	// Findings do estágio 1 agrupados pelo path relativo, para escolher o modo
	byPath := make(map[string][]model.Finding)
	for _, f := range prior {
		byPath[f.Path] = append(byPath[f.Path], f)
	}

	files := r.reviewTargets(in)
	in.logger().Infow("revisão por LLM", "backend", r.Backend.Name(), "arquivos", len(files))

	for _, path := range files {
		st, err := os.Stat(path)
		if err != nil || st.Size() == 0 || st.Size() > in.Policy.LLM.MaxFileBytes {
			continue
		}
		code, err := textx.ReadText(path)
		if err != nil || strings.TrimSpace(code) == "" {
			continue
		}
		relPath := textx.RelPath(path, in.Root)

		var prompt, sentinel, mode string
		if known := byPath[relPath]; len(known) > 0 {
			prompt = fmt.Sprintf(enrichmentPrompt, formatKnownIssues(known), code)
			sentinel = sentinelNoNewIssues
			mode = "enrichment"
		} else {
			prompt = fmt.Sprintf(gapFillingPrompt, code)
			sentinel = sentinelNoIssues
			mode = "gap_filling"
		}

		response, err := r.Backend.Generate(ctx, prompt, in.Policy.LLM.MaxTokens, reviewTemperature)
		if err != nil {
			findings = append(findings, model.Finding{
				RuleID:         "LLM_REVIEW_ERROR",
				Severity:       model.SevLow,
				Message:        fmt.Sprintf("revisão por LLM falhou para %s: %v", relPath, err),
				Path:           relPath,
				Position:       model.Position{Line: 1, Column: 1},
				Recommendation: "Confira a configuração do backend e o acesso ao arquivo.",
				Meta:           map[string]string{"engine": "llm", "diagnostic": "true"},
			})
			continue
		}
		if strings.Contains(response, sentinel) {
			continue
		}
		findings = append(findings, parseReview(response, relPath, code, mode)...)
	}
	return findings
}

func (r LLMReviewer) reviewTargets(in Input) []string {
	if len(in.Targets) > 0 {
		var out []string
		for _, t := range in.Targets {
			if st, err := os.Stat(t); err == nil && !st.IsDir() {
				out = append(out, t)
			}
		}
		return out
	}
	if st, err := os.Stat(in.Root); err == nil && !st.IsDir() {
		return []string{in.Root}
	}
	var out []string
	_ = filepath.WalkDir(in.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if reviewExts[strings.ToLower(filepath.Ext(path))] || d.Name() == "Dockerfile" {
			out = append(out, path)
		}
		return nil
	})
	return out
}

func formatKnownIssues(known []model.Finding) string {
	var sb strings.Builder
	for _, f := range known {
		fmt.Fprintf(&sb, "- line %d [%s] %s: %s\n", f.Position.Line, f.Severity, f.RuleID, f.Message)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseReview quebra a resposta em blocos delimitados por "---" e exige, no
// mínimo, VULNERABILITY, SEVERITY e LINE em cada bloco; bloco malformado é
// descartado sozinho, sem abortar o resto.
func parseReview(response, relPath, code, mode string) []model.Finding {
	var findings []model.Finding
	for _, block := range strings.Split(response, reviewBlockDelimiter) {
		block = strings.TrimSpace(block)
		if block == "" || !strings.Contains(block, "VULNERABILITY:") {
			continue
		}
		fields := map[string]string{}
		for _, line := range strings.Split(block, "\n") {
			key, value, found := strings.Cut(line, ":")
			if !found {
				continue
			}
			key = strings.ToUpper(strings.TrimSpace(key))
			switch key {
			case "VULNERABILITY", "SEVERITY", "LINE", "DESCRIPTION", "RECOMMENDATION":
				fields[key] = strings.TrimSpace(value)
			}
		}
		if fields["VULNERABILITY"] == "" || fields["SEVERITY"] == "" || fields["LINE"] == "" {
			continue
		}

		severity, err := model.ParseSeverity(fields["SEVERITY"])
		if err != nil {
			severity = model.SevMedium
		}
		line, err := strconv.Atoi(fields["LINE"])
		if err != nil || line < 1 {
			line = 1
		}
		message := fields["DESCRIPTION"]
		if message == "" {
			message = fields["VULNERABILITY"]
		}

		findings = append(findings, model.Finding{
			RuleID:         "LLM_REVIEW:" + ruleIDFromTitle(fields["VULNERABILITY"]),
			Severity:       severity,
			Message:        message,
			Path:           relPath,
			Position:       model.Position{Line: line, Column: 1},
			Snippet:        textx.SafeSnippet(code, line),
			Recommendation: fields["RECOMMENDATION"],
			Meta:           map[string]string{"engine": "llm", "mode": mode},
		})
	}
	return findings
}

func ruleIDFromTitle(title string) string {
	return strings.ToUpper(strings.ReplaceAll(title, " ", "_"))
}
