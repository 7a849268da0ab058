package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/Sena-ops/codesweep/internal/policy"
)

// Backend abstrai o serviço de inferência usado pela revisão semântica.
type Backend interface {
	// Generate envia um prompt e devolve o texto gerado.
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	// IsAvailable verifica se o backend está configurado e alcançável.
	IsAvailable(ctx context.Context) bool
	// Name identifica o backend em diagnósticos.
	Name() string
}

// FromPolicy seleciona o backend conforme a policy e o ambiente.
// Prioridade: azure configurado > ollama. Retorna erro quando nenhum backend
// tem configuração mínima.
func FromPolicy(pol policy.LLMPolicy) (Backend, error) {
	switch pol.Backend {
	case "azure":
		return azureFromEnv(pol)
	case "ollama":
		return ollamaFromEnv(pol), nil
	default: // auto
		if os.Getenv("AZURE_OPENAI_ENDPOINT") != "" && os.Getenv("AZURE_OPENAI_API_KEY") != "" {
			return azureFromEnv(pol)
		}
		return ollamaFromEnv(pol), nil
	}
}

func azureFromEnv(pol policy.LLMPolicy) (Backend, error) {
	endpoint := firstNonEmpty(pol.Endpoint, os.Getenv("AZURE_OPENAI_ENDPOINT"))
	apiKey := os.Getenv("AZURE_OPENAI_API_KEY")
	deployment := firstNonEmpty(pol.Model, os.Getenv("AZURE_OPENAI_DEPLOYMENT"))
	if endpoint == "" || apiKey == "" || deployment == "" {
		return nil, fmt.Errorf("backend azure requer AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY e AZURE_OPENAI_DEPLOYMENT")
	}
	return NewAzureBackend(endpoint, apiKey, deployment)
}

func ollamaFromEnv(pol policy.LLMPolicy) Backend {
	endpoint := firstNonEmpty(pol.Endpoint, os.Getenv("OLLAMA_ENDPOINT"), "http://localhost:11434")
	model := firstNonEmpty(pol.Model, os.Getenv("OLLAMA_MODEL"), "qwen3")
	return NewOllamaBackend(model, endpoint)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
