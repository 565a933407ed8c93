package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/songzhibin97/tokenflux/internal/models"
	"github.com/songzhibin97/tokenflux/internal/research"
)

// OpenAIResearcher implements the Researcher interface using OpenAI
type OpenAIResearcher struct {
	client *openai.Client
	model  string
}

// NewOpenAIResearcher creates a new OpenAI researcher instance
func NewOpenAIResearcher(apiKey string, model string) *OpenAIResearcher {
	client := openai.NewClient(apiKey)
	if model == "" {
		model = openai.GPT4 // 默认使用GPT-4
	}
	return &OpenAIResearcher{
		client: client,
		model:  model,
	}
}

// ResearchAllocations implements the Researcher interface
func (r *OpenAIResearcher) ResearchAllocations(ctx context.Context, name, symbol string, totalSupply float64) (*models.AllocationResearch, error) {
	prompt := fmt.Sprintf(`研究以下加密货币项目的代币分配与解锁规则:
项目名称: %s
代币符号: %s
总供应量: %f

请列出该项目的全部代币分配（团队、投资人、公募、基金会、社区等），
每个分配给出占总供应量的百分比、解锁类型（immediate/cliff/linear）、
锁定期月数、线性释放月数以及TGE即时释放百分比。
百分比之和可以小于100（存在未追踪的供应量）。

输出格式为JSON:
{
    "allocations": [
        {
            "category": string,
            "group": "team" | "investors" | "public" | "treasury" | "community",
            "percentage": float,
            "vesting": "immediate" | "cliff" | "linear",
            "cliff_months": int,
            "vesting_months": int,
            "tge_percent": float
        }
    ],
    "confidence": "high" | "medium" | "low",
    "notes": string
}`, name, symbol, totalSupply)

	resp, err := r.createChatCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to research allocations: %w", err)
	}

	result, err := research.ParsePayload(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse research results: %w", err)
	}

	return result, nil
}

// createChatCompletion is a helper function to make OpenAI API calls
func (r *OpenAIResearcher) createChatCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: r.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "你是一个专业的代币经济学研究员，熟悉主流加密货币项目的代币分配与解锁安排。请始终以JSON格式返回研究结果。",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3, // 使用较低的temperature以获得更稳定的输出
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}
