package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/models"
)

const insightsMissingKeyMessage = "API key is missing. Cannot perform AI analysis."
const insightsFailureMessage = "Failed to generate insights at this time."

// InsightsService produces a free-text spending analysis from the user's
// current data. The output is advisory markdown, never parsed.
type InsightsService interface {
	AnalyzeSpending(ctx context.Context, subscriptions []models.Subscription, departments []models.Department, wallets []models.Wallet) string
}

type insightsService struct {
	client *openai.Client
	model  string
}

// NewInsightsService builds the analysis client. client may be nil when no
// API key is configured; AnalyzeSpending then returns a fixed notice.
func NewInsightsService(cfg ExtractorConfig) InsightsService {
	if cfg.APIKey == "" {
		return &insightsService{}
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &insightsService{client: openai.NewClientWithConfig(clientConfig), model: model}
}

// AnalyzeSpending never fails: AI errors degrade to a fixed apology string so
// the dashboard keeps rendering.
func (s *insightsService) AnalyzeSpending(ctx context.Context, subscriptions []models.Subscription, departments []models.Department, wallets []models.Wallet) string {
	if s.client == nil {
		return insightsMissingKeyMessage
	}

	dataContext, err := json.Marshal(buildInsightsContext(subscriptions, departments, wallets))
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Failed to marshal insights context", "error", err)
		}
		return insightsFailureMessage
	}

	prompt := fmt.Sprintf(`Analyze the following subscription and wallet data for a company.
Provide a concise executive summary in markdown.

1. Identify the department with the highest effective spend (account for splits).
2. Flag any subscriptions that seem redundant or unusually expensive.
3. Suggest a budget optimization strategy based on the current wallet balances.
4. List upcoming renewals that need attention (within 30 days).

Data: %s`, dataContext)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 1200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		if logger.L != nil {
			logger.L.Warn("Spending analysis failed", "error", err)
		}
		return insightsFailureMessage
	}
	return resp.Choices[0].Message.Content
}

// buildInsightsContext flattens the user's data into the compact shape the
// prompt expects, describing each subscription's cost distribution in words.
func buildInsightsContext(subscriptions []models.Subscription, departments []models.Department, wallets []models.Wallet) map[string]any {
	deptName := make(map[int64]string, len(departments))
	for _, d := range departments {
		deptName[d.ID] = d.Name
	}

	describeAllocation := func(sub models.Subscription) string {
		if len(sub.Departments) == 0 {
			return "Unallocated"
		}
		switch sub.AllocationType {
		case models.AllocationEqual:
			names := ""
			for i, share := range sub.Departments {
				if i > 0 {
					names += ", "
				}
				names += nameOrUnknown(deptName, share.DepartmentID)
			}
			return "Split equally between: " + names
		case models.AllocationPercent:
			parts := ""
			for i, share := range sub.Departments {
				if i > 0 {
					parts += ", "
				}
				parts += fmt.Sprintf("%s (%.0f%%)", nameOrUnknown(deptName, share.DepartmentID), share.Percentage)
			}
			return "Split by %: " + parts
		default:
			return "100% to " + nameOrUnknown(deptName, sub.Departments[0].DepartmentID)
		}
	}

	subs := make([]map[string]any, 0, len(subscriptions))
	for _, sub := range subscriptions {
		subs = append(subs, map[string]any{
			"name":       sub.Name,
			"cost":       sub.BaseAmount,
			"cycle":      sub.BillingCycle,
			"allocation": describeAllocation(sub),
			"renewal":    sub.NextRenewalDate,
		})
	}

	ws := make([]map[string]any, 0, len(wallets))
	for _, w := range wallets {
		ws = append(ws, map[string]any{"name": w.Name, "balance": w.Balance, "type": w.Type})
	}

	spend := ComputeSpendSummary(subscriptions)
	byDepartment := make(map[string]string, len(spend.Departments))
	for id, amount := range spend.Departments {
		byDepartment[nameOrUnknown(deptName, id)] = amount.StringFixed(2)
	}

	return map[string]any{
		"subscriptions":           subs,
		"wallets":                 ws,
		"monthlySpendByDept":      byDepartment,
		"monthlySpendUnallocated": spend.Unattributed.StringFixed(2),
	}
}

func nameOrUnknown(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "Unknown"
}
