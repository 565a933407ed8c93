package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/songzhibin97/tokenflux/internal/models"
	"github.com/songzhibin97/tokenflux/internal/research"
)

const (
	defaultAPIEndpoint = "https://api.deepseek.com/v1"
	defaultModel       = "deepseek-chat"
)

// DeepSeekResearcher implements the Researcher interface using DeepSeek
type DeepSeekResearcher struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

// NewDeepSeekResearcher creates a new DeepSeek researcher instance
func NewDeepSeekResearcher(apiKey string, model string) *DeepSeekResearcher {
	if model == "" {
		model = defaultModel
	}

	return &DeepSeekResearcher{
		apiKey:   apiKey,
		endpoint: defaultAPIEndpoint,
		model:    model,
		client:   &http.Client{},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ResearchAllocations implements the Researcher interface
func (r *DeepSeekResearcher) ResearchAllocations(ctx context.Context, name, symbol string, totalSupply float64) (*models.AllocationResearch, error) {
	prompt := fmt.Sprintf(`研究以下加密货币项目的代币分配与解锁规则:
项目名称: %s
代币符号: %s
总供应量: %f

请列出该项目的全部代币分配，包括：
1. 分配名称与标准分组（team/investors/public/treasury/community）
2. 占总供应量的百分比（之和可小于100）
3. 解锁类型（immediate/cliff/linear）
4. 锁定期月数与线性释放月数
5. TGE即时释放百分比
6. 研究置信度与备注

输出格式为JSON:
{
    "allocations": [
        {
            "category": string,
            "group": string,
            "percentage": float,
            "vesting": string,
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

// createChatCompletion sends a request to the DeepSeek API
func (r *DeepSeekResearcher) createChatCompletion(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "你是一个专业的代币经济学研究员，熟悉主流加密货币项目的代币分配与解锁安排。请严格按照要求的JSON格式输出研究结果。",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: 0.3,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/chat/completions", r.endpoint),
		bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("api error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from api")
	}

	return chatResp.Choices[0].Message.Content, nil
}
