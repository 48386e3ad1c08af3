package services

import (
	"github.com/shopspring/decimal"
	"github.com/username/subtrack/backend/src/models"
)

// SpendSummary is the effective monthly subscription spend per department.
// Amounts are decimals so percentage splits stay exact in the report.
type SpendSummary struct {
	Departments  map[int64]decimal.Decimal `json:"departments"`
	Unattributed decimal.Decimal           `json:"unattributed"`
	MonthlyTotal decimal.Decimal           `json:"monthlyTotal"`
}

var (
	three   = decimal.NewFromInt(3)
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// MonthlyAmount normalizes a subscription's base amount to a monthly figure.
func MonthlyAmount(sub models.Subscription) decimal.Decimal {
	amount := decimal.NewFromFloat(sub.BaseAmount)
	switch sub.BillingCycle {
	case models.CycleQuarterly:
		return amount.Div(three)
	case models.CycleYearly:
		return amount.Div(twelve)
	default:
		return amount
	}
}

// ComputeSpendSummary attributes each active subscription's monthly cost to
// departments according to its allocation type: SINGLE sends everything to
// the first share, EQUAL splits evenly across shares, PERCENT applies each
// share's percentage. Subscriptions without shares count as unattributed.
func ComputeSpendSummary(subscriptions []models.Subscription) SpendSummary {
	summary := SpendSummary{
		Departments:  map[int64]decimal.Decimal{},
		Unattributed: decimal.Zero,
		MonthlyTotal: decimal.Zero,
	}

	for _, sub := range subscriptions {
		if sub.Status != "" && sub.Status != "ACTIVE" {
			continue
		}
		monthly := MonthlyAmount(sub)
		summary.MonthlyTotal = summary.MonthlyTotal.Add(monthly)

		if len(sub.Departments) == 0 {
			summary.Unattributed = summary.Unattributed.Add(monthly)
			continue
		}

		switch sub.AllocationType {
		case models.AllocationEqual:
			share := monthly.Div(decimal.NewFromInt(int64(len(sub.Departments))))
			for _, d := range sub.Departments {
				summary.Departments[d.DepartmentID] = summary.Departments[d.DepartmentID].Add(share)
			}
		case models.AllocationPercent:
			for _, d := range sub.Departments {
				share := monthly.Mul(decimal.NewFromFloat(d.Percentage)).Div(hundred)
				summary.Departments[d.DepartmentID] = summary.Departments[d.DepartmentID].Add(share)
			}
		default: // SINGLE
			d := sub.Departments[0]
			summary.Departments[d.DepartmentID] = summary.Departments[d.DepartmentID].Add(monthly)
		}
	}
	return summary
}
