package model

// Position é 1-based (linha e coluna).
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Finding representa um problema detectado, normalizado entre engines.
type Finding struct {
	RuleID         string            `json:"rule_id"`  // namespaced por engine: "SEMGREP:<check>", "SQL_STRICT_*"...
	Severity       Severity          `json:"severity"` // severidade normalizada
	Message        string            `json:"message"`
	Path           string            `json:"path"` // relativo à raiz do scan; nunca absoluto na saída final
	Position       Position          `json:"position"`
	Snippet        string            `json:"snippet,omitempty"`        // janela de código com a linha alvo marcada
	Recommendation string            `json:"recommendation,omitempty"` // texto de remediação, se houver
	Meta           map[string]string `json:"meta,omitempty"`           // engine, stage etc.
}

// Worst retorna o rank da pior severidade do conjunto (0 se vazio).
func Worst(findings []Finding) int {
	worst := 0
	for _, f := range findings {
		if r := f.Severity.Rank(); r > worst {
			worst = r
		}
	}
	return worst
}
