package model

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SevLow      Severity = "low"
	SevMedium   Severity = "medium"
	SevHigh     Severity = "high"
	SevCritical Severity = "critical"
)

// Rank retorna a ordem total das severidades (low=0 ... critical=3).
func (s Severity) Rank() int {
	switch s {
	case SevMedium:
		return 1
	case SevHigh:
		return 2
	case SevCritical:
		return 3
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity aceita as quatro severidades, case-insensitive.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SevLow, nil
	case "medium":
		return SevMedium, nil
	case "high":
		return SevHigh, nil
	case "critical":
		return SevCritical, nil
	default:
		return SevLow, fmt.Errorf("severidade inválida: %q", s)
	}
}
