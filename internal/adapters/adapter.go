package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/policy"
	"github.com/Sena-ops/codesweep/internal/textx"
)

// Input é o contexto compartilhado de uma invocação de adapter.
// Targets traz a lista combinada de arquivos (reais + sintetizados) em
// caminhos absolutos; nil significa "escaneie a raiz inteira".
type Input struct {
	Root    string
	Targets []string
	Policy  policy.Policy
	Log     *zap.SugaredLogger
}

// Adapter embrulha um engine de detecção (processo externo ou check local).
// Run nunca entrega pânico ao chamador: toda falha vira um *Diagnostic, que o
// orquestrador dobra em um único finding de severidade low.
type Adapter interface {
	Name() string
	Run(ctx context.Context, in Input) ([]model.Finding, error)
}

// Diagnostic descreve uma falha de engine/ambiente (binário ausente, timeout,
// saída que não parseia). Usa o namespace reservado OSS_ENGINE_* / LLM_ENGINE_*.
type Diagnostic struct {
	RuleID         string
	Message        string
	Recommendation string
}

func (d *Diagnostic) Error() string {
	return d.Message
}

// Fold converte um Diagnostic no finding low correspondente, ancorado na
// raiz do scan (o pipeline normaliza "." para o basename em scans de arquivo).
func (d *Diagnostic) Fold() model.Finding {
	return model.Finding{
		RuleID:         d.RuleID,
		Severity:       model.SevLow,
		Message:        d.Message,
		Path:           ".",
		Position:       model.Position{Line: 1, Column: 1},
		Recommendation: d.Recommendation,
		Meta:           map[string]string{"diagnostic": "true"},
	}
}

func (in Input) logger() *zap.SugaredLogger {
	if in.Log != nil {
		return in.Log
	}
	return zap.NewNop().Sugar()
}

// workDir devolve o diretório de trabalho para subprocessos: a própria raiz
// quando é diretório, senão o diretório do arquivo.
func (in Input) workDir() string {
	if st, err := os.Stat(in.Root); err == nil && st.IsDir() {
		return in.Root
	}
	return filepath.Dir(in.Root)
}

// filterByExt filtra a lista de alvos pelas extensões dadas (minúsculas, com ponto).
func filterByExt(targets []string, exts ...string) []string {
	var out []string
	for _, t := range targets {
		ext := strings.ToLower(filepath.Ext(t))
		for _, want := range exts {
			if ext == want {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// walkByExt coleta arquivos sob root com as extensões dadas.
func walkByExt(root string, exts ...string) []string {
	var out []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range exts {
			if ext == want {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	return out
}

func safeLine(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// snippetFor tenta recortar o trecho do arquivo apontado; erro vira trecho vazio.
func snippetFor(root, path string, line int) string {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, path)
	}
	text, err := textx.ReadText(full)
	if err != nil {
		return ""
	}
	return textx.SafeSnippet(text, line)
}
