package ui

import (
	"strconv"

	"github.com/pterm/pterm"

	"github.com/Sena-ops/codesweep/internal/model"
)

// PrintSummary imprime a tabela-resumo dos findings no terminal.
// Só apresentação: o relatório de verdade sai pelo renderer.
func PrintSummary(findings []model.Finding) {
	if len(findings) == 0 {
		pterm.Success.Println("Nenhum problema encontrado.")
		return
	}

	pterm.Warning.Printf("Encontrados %d problema(s):\n\n", len(findings))

	data := [][]string{
		{"Severidade", "Regra", "Arquivo", "Linha"},
	}
	for _, f := range findings {
		data = append(data, []string{
			severityCell(f.Severity),
			pterm.FgCyan.Sprint(f.RuleID),
			f.Path,
			strconv.Itoa(f.Position.Line),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func severityCell(s model.Severity) string {
	switch s {
	case model.SevCritical:
		return pterm.FgRed.Sprint("CRITICAL")
	case model.SevHigh:
		return pterm.FgRed.Sprint("HIGH")
	case model.SevMedium:
		return pterm.FgYellow.Sprint("MEDIUM")
	default:
		return pterm.FgBlue.Sprint("LOW")
	}
}

// StartSpinner inicia um spinner com o texto dado.
func StartSpinner(text string) *pterm.SpinnerPrinter {
	spinner, _ := pterm.DefaultSpinner.Start(text)
	return spinner
}
