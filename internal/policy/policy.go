package policy

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy agrega a configuração compartilhada por todos os adapters.
// É sempre passada explicitamente como parâmetro — nada de estado global.
type Policy struct {
	Scanner ScannerPolicy `yaml:"scanner"`
	Semgrep SemgrepPolicy `yaml:"semgrep"`
	LLM     LLMPolicy     `yaml:"llm"`
}

type ScannerPolicy struct {
	ExcludeDirs    []string `yaml:"exclude_dirs"`
	MaxFileBytes   int64    `yaml:"max_file_bytes"`
	ToolTimeoutSec int      `yaml:"tool_timeout_sec"`
}

type SemgrepPolicy struct {
	// Config aceita múltiplos packs separados por vírgula (ex: "p/security-audit,p/secrets").
	Config string `yaml:"config"`
}

type LLMPolicy struct {
	Backend      string `yaml:"backend"` // auto | ollama | azure
	Model        string `yaml:"model"`
	Endpoint     string `yaml:"endpoint"`
	MaxFileBytes int64  `yaml:"max_file_bytes"`
	MaxTokens    int    `yaml:"max_tokens"`
}

// Default retorna a política padrão do scanner.
func Default() Policy {
	return Policy{
		Scanner: ScannerPolicy{
			ExcludeDirs: []string{
				".git/",
				".venv/",
				"__pycache__/",
				".idea/",
				".eggs/",
				"dist/",
				"build/",
				"node_modules/",
			},
			MaxFileBytes:   2_000_000,
			ToolTimeoutSec: 300,
		},
		Semgrep: SemgrepPolicy{
			Config: "auto",
		},
		LLM: LLMPolicy{
			Backend:      "auto",
			MaxFileBytes: 10_000,
			MaxTokens:    2000,
		},
	}
}

// Load carrega a política de um arquivo YAML, mesclada sobre os defaults.
// Arquivo ausente não é erro: vale o default.
func Load(path string) (Policy, error) {
	pol := Default()
	if path == "" {
		return pol, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pol, nil
		}
		return pol, fmt.Errorf("erro ao ler policy %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return pol, fmt.Errorf("erro ao interpretar policy %s: %w", path, err)
	}
	if pol.Scanner.MaxFileBytes <= 0 {
		pol.Scanner.MaxFileBytes = 2_000_000
	}
	if pol.Scanner.ToolTimeoutSec <= 0 {
		pol.Scanner.ToolTimeoutSec = 300
	}
	if pol.LLM.MaxFileBytes <= 0 {
		pol.LLM.MaxFileBytes = 10_000
	}
	if pol.LLM.MaxTokens <= 0 {
		pol.LLM.MaxTokens = 2000
	}
	return pol, nil
}

// ToolTimeout retorna o timeout de subprocessos externos.
func (p Policy) ToolTimeout() time.Duration {
	return time.Duration(p.Scanner.ToolTimeoutSec) * time.Second
}
