package llm

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// AzureBackend usa um endpoint gerenciado do Azure OpenAI.
type AzureBackend struct {
	client     *azopenai.Client
	deployment string
}

func NewAzureBackend(endpoint, apiKey, deployment string) (*AzureBackend, error) {
	keyCredential := azcore.NewKeyCredential(apiKey)
	client, err := azopenai.NewClientWithKeyCredential(endpoint, keyCredential, nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar cliente Azure OpenAI: %w", err)
	}
	return &AzureBackend{client: client, deployment: deployment}, nil
}

func (a *AzureBackend) Name() string { return "azure-openai" }

func (a *AzureBackend) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	resp, err := a.client.GetChatCompletions(
		ctx,
		azopenai.ChatCompletionsOptions{
			DeploymentName: to.Ptr(a.deployment),
			MaxTokens:      to.Ptr(int32(maxTokens)),
			Temperature:    to.Ptr(float32(temperature)),
			Messages: []azopenai.ChatRequestMessageClassification{
				&azopenai.ChatRequestUserMessage{
					Content: azopenai.NewChatRequestUserMessageContent(prompt),
				},
			},
		},
		nil,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil && resp.Choices[0].Message.Content != nil {
		return *resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("nenhuma resposta recebida do endpoint")
}

// IsAvailable: o cliente só é construído com endpoint, chave e deployment
// presentes, então a disponibilidade é a própria configuração.
func (a *AzureBackend) IsAvailable(ctx context.Context) bool {
	return a.client != nil && a.deployment != ""
}
