package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sena-ops/codesweep/internal/model"
	"github.com/Sena-ops/codesweep/internal/policy"
)

func TestShellcheckSemScriptsNaoEmiteNada(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.py"), []byte("print('oi')"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Sem .sh/.bash o adapter devolve vazio antes mesmo de procurar o binário,
	// então o resultado vale igual em máquinas sem shellcheck instalado.
	findings, err := ShellcheckAdapter{}.Run(context.Background(), Input{Root: dir, Policy: policy.Default()})
	if err != nil {
		t.Fatalf("esperado nenhum erro, obtido %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("esperado nenhum finding, obtido %+v", findings)
	}
}

func TestParseShellcheckOutput(t *testing.T) {
	tests := []struct {
		name     string
		stdout   string
		expected int
		ok       bool
	}{
		{"lista_direta", `[{"file":"a.sh","line":2,"level":"warning","code":2086,"message":"quote"}]`, 1, true},
		{"objeto_com_comments", `{"comments":[{"file":"a.sh","line":1,"level":"error","code":1073,"message":"x"}]}`, 1, true},
		{"saida_vazia", "", 0, true},
		{"lixo", "isto nao é json", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments, ok := parseShellcheckOutput(tt.stdout)
			if ok != tt.ok {
				t.Fatalf("ok esperado %v, obtido %v", tt.ok, ok)
			}
			if len(comments) != tt.expected {
				t.Errorf("esperados %d comments, obtidos %d", tt.expected, len(comments))
			}
		})
	}
}

func TestShellcheckSeverity(t *testing.T) {
	tests := []struct {
		level    string
		expected model.Severity
	}{
		{"error", model.SevHigh},
		{"warning", model.SevMedium},
		{"info", model.SevLow},
		{"style", model.SevLow},
		{"", model.SevLow},
	}

	for _, tt := range tests {
		if result := shellcheckSeverity(tt.level); result != tt.expected {
			t.Errorf("level %q: esperado %v, obtido %v", tt.level, tt.expected, result)
		}
	}
}
