package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/Sena-ops/codesweep/internal/adapters"
	"github.com/Sena-ops/codesweep/internal/llm"
	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/notebook"
	"github.com/Sena-ops/codesweep/internal/policy"
	"github.com/Sena-ops/codesweep/internal/sniff"
	"github.com/Sena-ops/codesweep/internal/textx"
)

// Origin aponta de um arquivo temporário sintetizado para o arquivo real e a
// linha 1-based onde o conteúdo começa. Entradas nunca são mutadas.
type Origin struct {
	Path      string
	StartLine int
}

// Options parametriza uma invocação do pipeline. Cada invocação é
// independente e sem estado compartilhado.
type Options struct {
	Root    string
	Tools   []string // seleção; a ordem de execução é fixa, não a da lista
	Files   []string // lista explícita de arquivos; tem prioridade sobre o walk
	Policy  policy.Policy
	Backend llm.Backend // usado apenas quando llm-review está selecionado
	Log     *zap.SugaredLogger
}

// Ordem fixa do estágio 1; o estágio 2 (llm-review) roda depois, com os
// findings do estágio 1 como contexto somente-leitura.
var stage1Order = []adapters.Adapter{
	adapters.SemgrepAdapter{},
	adapters.SecretsAdapter{},
	adapters.SQLFluffAdapter{},
	adapters.SqlcheckAdapter{},
	adapters.ShellcheckAdapter{},
	adapters.SQLStrictAdapter{},
}

// Run executa o pipeline completo: resolve alvos, sintetiza o working set
// temporário, roda os engines em dois estágios e remapeia findings de
// arquivos sintetizados de volta às origens. O único erro fatal é não
// conseguir criar o diretório temporário.
func Run(ctx context.Context, opts Options) ([]model.Finding, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("raiz inválida %q: %w", opts.Root, err)
	}
	rootInfo, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("erro ao acessar a raiz do scan: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "codesweep-*")
	if err != nil {
		return nil, fmt.Errorf("erro ao criar diretório temporário: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// 1. Resolução de alvos: lista explícita > arquivo único > walk
	realFiles := resolveTargets(root, rootInfo.IsDir(), opts.Files, opts.Policy)
	log.Infow("alvos resolvidos", "raiz", root, "arquivos", len(realFiles))

	// 2. Pré-processamento: notebooks, trechos embutidos e cópias tipadas
	originMap := map[string]Origin{}
	generated := preprocess(realFiles, tmpDir, originMap, opts.Policy, log)

	// 3. Lista combinada: arquivos reais ∪ sintetizados
	var combined []string
	if len(opts.Files) > 0 || len(generated) > 0 {
		combined = append(combined, realFiles...)
		combined = append(combined, generated...)
	}

	selected := map[string]bool{}
	for _, t := range opts.Tools {
		selected[strings.TrimSpace(t)] = true
	}

	in := adapters.Input{Root: root, Targets: combined, Policy: opts.Policy, Log: log}

	// 4. Estágio 1: engines de padrão/regra/lint em ordem fixa
	var ossFindings []model.Finding
	for _, ad := range stage1Order {
		if !selected[ad.Name()] {
			continue
		}
		if ad.Name() == "sql-strict" {
			ossFindings = append(ossFindings, runSQLStrict(ctx, in, realFiles, generated)...)
			continue
		}
		findings, err := ad.Run(ctx, in)
		if err != nil {
			if diag, ok := err.(*adapters.Diagnostic); ok {
				log.Warnw("engine falhou", "engine", ad.Name(), "erro", diag.Message)
				ossFindings = append(ossFindings, diag.Fold())
				continue
			}
			// contrato: todo erro de adapter é um *Diagnostic; aqui é só rede de segurança
			ossFindings = append(ossFindings, (&adapters.Diagnostic{
				RuleID:  "OSS_ENGINE_ERROR",
				Message: fmt.Sprintf("engine %s falhou: %v", ad.Name(), err),
			}).Fold())
			continue
		}
		ossFindings = append(ossFindings, findings...)
	}

	// 5. Estágio 2: revisão semântica condicionada ao estágio 1
	var llmFindings []model.Finding
	if selected["llm-review"] {
		reviewer := adapters.LLMReviewer{Backend: opts.Backend}
		llmFindings = reviewer.Review(ctx, in, ossFindings)
	}

	// 6. Concatenação preservando a ordem dos estágios
	allFindings := append(ossFindings, llmFindings...)

	// 7. Remap de findings produzidos em arquivos sintetizados
	remap(allFindings, originMap, root)

	// 8. Normalização de path para scans de arquivo único
	if !rootInfo.IsDir() {
		base := filepath.Base(root)
		for i := range allFindings {
			if allFindings[i].Path == "." {
				allFindings[i].Path = base
			}
		}
	}

	return allFindings, nil
}

// resolveTargets aplica exatamente um dos três caminhos de resolução.
func resolveTargets(root string, isDir bool, explicit []string, pol policy.Policy) []string {
	if len(explicit) > 0 {
		out := make([]string, 0, len(explicit))
		for _, f := range explicit {
			if !filepath.IsAbs(f) {
				f = filepath.Join(root, f)
			}
			out = append(out, f)
		}
		return out
	}
	if !isDir {
		return []string{root}
	}
	return walkRoot(root, pol)
}

// walkRoot percorre o diretório respeitando exclude_dirs (padrões no estilo
// gitignore) e o teto de tamanho por arquivo.
func walkRoot(root string, pol policy.Policy) []string {
	matcher := ignore.CompileIgnoreLines(pol.Scanner.ExcludeDirs...)
	var out []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if matcher.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.MatchesPath(rel) {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() > pol.Scanner.MaxFileBytes {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out
}

// preprocess materializa o working set sintetizado no diretório temporário e
// registra cada entrada no OriginMap.
func preprocess(realFiles []string, tmpDir string, originMap map[string]Origin, pol policy.Policy, log *zap.SugaredLogger) []string {
	var generated []string

	// Notebooks (.ipynb e .py exportado do Databricks)
	var nbCandidates []string
	for _, f := range realFiles {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".ipynb", ".py":
			nbCandidates = append(nbCandidates, f)
		}
	}
	for _, g := range notebook.Preprocess(nbCandidates, tmpDir) {
		generated = append(generated, g.Path)
		originMap[g.Path] = Origin{Path: g.Origin, StartLine: g.StartLine}
	}

	// Trechos SQL/shell embutidos em qualquer hospedeiro, com linha exata
	embIdx := len(generated)
	for _, f := range realFiles {
		text, err := textx.ReadText(f)
		if err != nil {
			continue
		}
		for _, sn := range sniff.ExtractEmbeddedSnippets(text) {
			if sn.Text == "" {
				continue
			}
			outPath := filepath.Join(tmpDir, fmt.Sprintf("%s__embedded%03d%s", filepath.Base(f), embIdx, sn.Ext))
			if err := os.WriteFile(outPath, []byte(sn.Text), 0o644); err != nil {
				continue
			}
			embIdx++
			generated = append(generated, outPath)
			start := sn.StartLine
			if start < 1 {
				start = 1
			}
			originMap[outPath] = Origin{Path: f, StartLine: start}
		}
	}

	// Arquivos sem extensão que parecem ter linguagem ganham cópia tipada
	for _, f := range realFiles {
		if filepath.Ext(f) != "" {
			continue
		}
		text, err := textx.ReadText(f)
		if err != nil {
			continue
		}
		exts := sniff.GuessExtensions(text, f)
		if len(exts) == 0 {
			continue
		}
		outPath := filepath.Join(tmpDir, filepath.Base(f)+exts[0])
		if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
			continue
		}
		generated = append(generated, outPath)
		originMap[outPath] = Origin{Path: f, StartLine: 1}
	}

	if len(generated) > 0 {
		log.Debugw("working set sintetizado", "arquivos", len(generated))
	}
	return generated
}

// runSQLStrict roda os checks estritos sobre os .sql reais resolvidos
// (respeitando exclude_dirs e lista explícita) e, adicionalmente, sobre os
// .sql sintetizados fora da raiz.
func runSQLStrict(ctx context.Context, in adapters.Input, realFiles, generated []string) []model.Finding {
	strict := adapters.SQLStrictAdapter{}

	var findings []model.Finding
	if len(realFiles) > 0 {
		rootIn := in
		rootIn.Targets = realFiles
		findings, _ = strict.Run(ctx, rootIn)
	}

	var genSQL []string
	for _, g := range generated {
		if strings.EqualFold(filepath.Ext(g), ".sql") {
			genSQL = append(genSQL, g)
		}
	}
	if len(genSQL) > 0 {
		genIn := in
		genIn.Targets = genSQL
		extra, _ := strict.Run(ctx, genIn)
		findings = append(findings, extra...)
	}
	return findings
}

// remap reescreve path/linha/snippet dos findings originados em arquivos
// sintetizados, sem alterar a ordem do conjunto.
func remap(findings []model.Finding, originMap map[string]Origin, root string) {
	if len(originMap) == 0 {
		return
	}
	for i := range findings {
		f := &findings[i]
		abs := f.Path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, f.Path)
		}
		origin, ok := originMap[abs]
		if !ok {
			continue
		}
		f.Path = textx.RelPath(origin.Path, root)
		f.Position.Line = origin.StartLine + f.Position.Line - 1
		if text, err := textx.ReadText(origin.Path); err == nil {
			f.Snippet = textx.SafeSnippet(text, f.Position.Line)
		}
	}
}
