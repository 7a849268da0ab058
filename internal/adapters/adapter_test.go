package adapters

import (
	"reflect"
	"testing"

	"github.com/Sena-ops/codesweep/internal/model"
)

func TestDiagnosticFold(t *testing.T) {
	diag := &Diagnostic{
		RuleID:         "OSS_ENGINE_MISSING_SEMGREP",
		Message:        "semgrep não está instalado.",
		Recommendation: "Instale o semgrep.",
	}

	f := diag.Fold()

	if f.Severity != model.SevLow {
		t.Errorf("diagnóstico deveria ser low, obtido %v", f.Severity)
	}
	if f.Path != "." || f.Position.Line != 1 || f.Position.Column != 1 {
		t.Errorf("diagnóstico deveria ancorar na raiz, obtido %s:%d:%d", f.Path, f.Position.Line, f.Position.Column)
	}
	if f.Meta["diagnostic"] != "true" {
		t.Errorf("meta diagnostic ausente: %+v", f.Meta)
	}
	if diag.Error() != diag.Message {
		t.Errorf("Error() deveria devolver a mensagem, obtido %q", diag.Error())
	}
}

func TestFilterByExt(t *testing.T) {
	targets := []string{"/a/x.sql", "/a/y.SH", "/a/z.py", "/a/w.bash"}

	tests := []struct {
		name     string
		exts     []string
		expected []string
	}{
		{"sql", []string{".sql"}, []string{"/a/x.sql"}},
		{"shell_case_insensitive", []string{".sh", ".bash"}, []string{"/a/y.SH", "/a/w.bash"}},
		{"nenhum", []string{".go"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filterByExt(targets, tt.exts...)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("esperado %v, obtido %v", tt.expected, result)
			}
		})
	}
}

func TestSafeLine(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{42, 42},
	}

	for _, tt := range tests {
		if result := safeLine(tt.input); result != tt.expected {
			t.Errorf("%d: esperado %d, obtido %d", tt.input, tt.expected, result)
		}
	}
}
