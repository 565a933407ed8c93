package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/songzhibin97/tokenflux/internal/models"
)

// Researcher defines methods for AI-assisted tokenomics research
type Researcher interface {
	// ResearchAllocations produces the allocation breakdown for a token
	ResearchAllocations(ctx context.Context, name, symbol string, totalSupply float64) (*models.AllocationResearch, error)
}

// payload is the loosely shaped JSON the models return. It is validated and
// normalized at this boundary so untyped strings never reach the simulation
// core.
type payload struct {
	Allocations []struct {
		Category      string  `json:"category"`
		Group         string  `json:"group"`
		Percentage    float64 `json:"percentage"`
		Tokens        float64 `json:"tokens"`
		Vesting       string  `json:"vesting"`
		CliffMonths   int     `json:"cliff_months"`
		VestingMonths int     `json:"vesting_months"`
		TGEPercent    float64 `json:"tge_percent"`
	} `json:"allocations"`
	Confidence string `json:"confidence"`
	Notes      string `json:"notes"`
}

// ParsePayload decodes a model response into a normalized AllocationResearch.
// Unknown vesting-type strings default to linear and are flagged in the
// notes; out-of-range percentages are clamped to [0,100].
func ParsePayload(raw string) (*models.AllocationResearch, error) {
	var p payload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &p); err != nil {
		return nil, fmt.Errorf("failed to parse research payload: %w", err)
	}

	if len(p.Allocations) == 0 {
		return nil, fmt.Errorf("research payload contains no allocations")
	}

	result := &models.AllocationResearch{
		Allocations: make([]models.AllocationInput, 0, len(p.Allocations)),
		Confidence:  p.Confidence,
		Notes:       p.Notes,
	}
	if result.Confidence == "" {
		result.Confidence = "low"
	}

	var flagged []string
	for _, a := range p.Allocations {
		vt, known := models.ParseVestingType(a.Vesting)
		if !known {
			flagged = append(flagged, fmt.Sprintf("%s: vesting type %q treated as linear", a.Category, a.Vesting))
		}

		pct := a.Percentage
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}

		result.Allocations = append(result.Allocations, models.AllocationInput{
			Category:      a.Category,
			Group:         models.AllocationGroup(a.Group),
			Percentage:    pct,
			Tokens:        a.Tokens,
			Vesting:       vt,
			CliffMonths:   a.CliffMonths,
			VestingMonths: a.VestingMonths,
			TGEPercent:    a.TGEPercent,
		})
	}

	if len(flagged) > 0 {
		if result.Notes != "" {
			result.Notes += "; "
		}
		result.Notes += strings.Join(flagged, "; ")
	}

	return result, nil
}

// extractJSON trims markdown fences some models wrap around JSON output.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return s
}
