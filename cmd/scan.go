package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sena-ops/codesweep/internal/llm"
	"github.com/Sena-ops/codesweep/internal/logging"
	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/pipeline"
	"github.com/Sena-ops/codesweep/internal/policy"
	"github.com/Sena-ops/codesweep/internal/report"
	"github.com/Sena-ops/codesweep/internal/ui"
)

var (
	outputFormat  string
	toolList      string
	semgrepConfig string
	pathsFrom     string
	failOn        string
	outFile       string
	perFileOutDir string
	policyFile    string
	noSQLStrict   bool
	llmReview     bool
	debugMode     bool
)

var logger *zap.SugaredLogger

const defaultTools = "semgrep,detect-secrets,sqlfluff,shellcheck,sql-strict"

var scanCmd = &cobra.Command{
	Use:   "scan [caminho]",
	Short: "Escaneia um diretório ou arquivo com múltiplos engines",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		logger, err = logging.New(debugMode)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Erro ao iniciar logger:", err)
			os.Exit(2)
		}
		defer logger.Sync()

		root := args[0]
		if _, err := os.Stat(root); err != nil {
			logger.Errorw("erro ao acessar o caminho", "caminho", root, "erro", err)
			os.Exit(2)
		}

		pol, err := policy.Load(policyFile)
		if err != nil {
			logger.Errorw("erro ao carregar a policy", "erro", err)
			os.Exit(2)
		}
		if semgrepConfig != "" {
			pol.Semgrep.Config = semgrepConfig
		}

		// Lista explícita de arquivos, um por linha
		var files []string
		if pathsFrom != "" {
			files, err = readPathsFrom(pathsFrom)
			if err != nil {
				logger.Errorw("erro ao ler --paths-from", "erro", err)
				os.Exit(2)
			}
		}

		tools := splitAndTrim(toolList)
		if noSQLStrict {
			tools = remove(tools, "sql-strict")
		} else if !contains(tools, "sql-strict") {
			tools = append(tools, "sql-strict")
		}

		var backend llm.Backend
		if llmReview {
			tools = append(tools, "llm-review")
			backend, err = llm.FromPolicy(pol.LLM)
			if err != nil {
				// sem backend o reviewer emite o diagnóstico; o scan continua
				logger.Warnw("backend de LLM não configurado", "erro", err)
			}
		}

		logger.Infow("escaneando", "caminho", root, "tools", tools)

		spinner := ui.StartSpinner("Executando os engines de análise...")
		findings, err := pipeline.Run(context.Background(), pipeline.Options{
			Root:    root,
			Tools:   tools,
			Files:   files,
			Policy:  pol,
			Backend: backend,
			Log:     logger,
		})
		_ = spinner.Stop()
		if err != nil {
			logger.Errorw("erro fatal no pipeline", "erro", err)
			os.Exit(2)
		}

		out, err := report.Render(findings, outputFormat)
		if err != nil {
			logger.Errorw("erro ao gerar relatório", "erro", err)
			os.Exit(2)
		}

		if outFile != "" {
			if err := os.WriteFile(outFile, []byte(out), 0o644); err != nil {
				logger.Errorw("erro ao salvar relatório", "arquivo", outFile, "erro", err)
				os.Exit(2)
			}
			logger.Infow("relatório salvo", "arquivo", outFile)
			ui.PrintSummary(findings)
		} else {
			fmt.Println(out)
		}

		if perFileOutDir != "" {
			if err := writePerFileReports(findings, root, files); err != nil {
				logger.Errorw("erro ao escrever relatórios por arquivo", "erro", err)
				os.Exit(2)
			}
		}

		failRank := 2 // high
		if sev, err := model.ParseSeverity(failOn); err == nil {
			failRank = sev.Rank()
		}
		if model.Worst(findings) >= failRank && len(findings) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	scanCmd.Flags().StringVarP(&outputFormat, "format", "o", "markdown", "Formato da saída (markdown, json, sarif)")
	scanCmd.Flags().StringVarP(&toolList, "tools", "t", defaultTools, "Tools a executar, separados por vírgula")
	scanCmd.Flags().StringVar(&semgrepConfig, "semgrep-config", "", "Config do semgrep (packs separados por vírgula, ou 'auto')")
	scanCmd.Flags().StringVar(&pathsFrom, "paths-from", "", "Arquivo listando os arquivos a escanear (um por linha)")
	scanCmd.Flags().StringVar(&failOn, "fail-on", "high", "Severidade mínima para exit code 1 (low, medium, high, critical)")
	scanCmd.Flags().StringVar(&outFile, "out", "", "Escreve o relatório em arquivo em vez de stdout")
	scanCmd.Flags().StringVar(&perFileOutDir, "per-file-out-dir", "", "Diretório para um relatório por arquivo de entrada (ex: nome_report.md)")
	scanCmd.Flags().StringVar(&policyFile, "policy", "policy.yaml", "Arquivo de policy YAML")
	scanCmd.Flags().BoolVar(&noSQLStrict, "no-sql-strict", false, "Desabilita os checks estritos de .sql (habilitados por padrão)")
	scanCmd.Flags().BoolVar(&llmReview, "llm-review", false, "Habilita o estágio 2 de revisão semântica por LLM")
	scanCmd.Flags().BoolVar(&debugMode, "debug", false, "Habilita logs em nível debug")
	rootCmd.AddCommand(scanCmd)
}

// writePerFileReports escreve um relatório por arquivo de entrada em
// perFileOutDir, inclusive para entradas sem findings.
func writePerFileReports(findings []model.Finding, root string, explicit []string) error {
	inputs := listInputFiles(root, explicit)
	reports, err := report.PerFile(findings, inputs, outputFormat)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(perFileOutDir, 0o755); err != nil {
		return err
	}
	for name, content := range reports {
		if err := os.WriteFile(filepath.Join(perFileOutDir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	logger.Infow("relatórios por arquivo escritos", "diretorio", perFileOutDir, "arquivos", len(reports))
	return nil
}

// listInputFiles devolve os arquivos de entrada relativos à raiz: a lista
// explícita quando houver, senão o walk do diretório, senão o basename do
// arquivo único.
func listInputFiles(root string, explicit []string) []string {
	if len(explicit) > 0 {
		var out []string
		for _, f := range explicit {
			abs := f
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(root, f)
			}
			base := root
			if st, err := os.Stat(root); err == nil && !st.IsDir() {
				base = filepath.Dir(root)
			}
			if rel, err := filepath.Rel(base, abs); err == nil {
				out = append(out, filepath.ToSlash(rel))
			} else {
				out = append(out, filepath.Base(abs))
			}
		}
		return out
	}
	if st, err := os.Stat(root); err == nil && !st.IsDir() {
		return []string{filepath.Base(root)}
	}
	var out []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	return out
}

func readPathsFrom(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ln := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(ln); trimmed != "" {
			files = append(files, trimmed)
		}
	}
	return files, nil
}

func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(strings.ToLower(part)); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	var out []string
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
