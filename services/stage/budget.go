package stage

import (
	"context"
	"fmt"
	"strings"

	"tripplanner/models"
)

// Recommended budget split across spending categories.
var budgetAllocation = []struct {
	Category string
	Share    float64
}{
	{"flights", 0.40},
	{"accommodation", 0.30},
	{"activities", 0.15},
	{"meals", 0.10},
	{"transportation", 0.05},
}

// BudgetProvider compares the assembled trip costs against the total
// budget. Pure computation; the summary it produces is the canonical
// source of the plan's total cost and remaining budget.
type BudgetProvider struct{}

// NewBudgetProvider builds the budget provider.
func NewBudgetProvider() *BudgetProvider { return &BudgetProvider{} }

func (p *BudgetProvider) Name() string { return models.StageBudget }

func (p *BudgetProvider) Run(ctx context.Context, in Input) (map[string]any, error) {
	var missing []string
	if in.Spec.Budget <= 0 {
		missing = append(missing, "total_budget")
	}
	if in.Flights == nil {
		missing = append(missing, "flights")
	}
	if in.Hotels == nil {
		missing = append(missing, "hotels")
	}
	if in.Itinerary == nil {
		missing = append(missing, "itinerary")
	}
	if len(missing) > 0 {
		return nil, NewContractError(p.Name(), missing...)
	}

	totalBudget := in.Spec.Budget
	actual := actualCosts(in.Flights, in.Hotels, in.Itinerary)
	allocation := allocate(totalBudget)
	analysis := analyze(actual, allocation, totalBudget)

	return map[string]any{
		"total_budget":      totalBudget,
		"actual_costs":      actual,
		"budget_allocation": allocation,
		"budget_analysis":   analysis,
		"recommendations":   budgetRecommendations(analysis),
		"summary":           summarize(analysis),
	}, nil
}

// actualCosts derives spending per category: the cheapest flight
// option, the top-ranked hotel and the itinerary's daily totals.
func actualCosts(flights, hotels, itinerary map[string]any) map[string]any {
	costs := map[string]float64{}

	if best := firstMap(getSlice(flights, "flight_options")); best != nil {
		costs["flights"] = number(best["total_price"])
	}
	if best := firstMap(getSlice(hotels, "hotel_options")); best != nil {
		costs["accommodation"] = number(best["estimated_price"])
	}
	for _, day := range getSlice(itinerary, "daily_plans") {
		plan, ok := day.(map[string]any)
		if !ok {
			continue
		}
		cost := getMap(plan, "estimated_cost")
		costs["activities"] += number(cost["activities"])
		costs["meals"] += number(cost["meals"])
		costs["transportation"] += number(cost["transportation"])
	}

	total := 0.0
	out := map[string]any{}
	for _, alloc := range budgetAllocation {
		out[alloc.Category] = costs[alloc.Category]
		total += costs[alloc.Category]
	}
	out["total"] = total
	return out
}

func allocate(totalBudget float64) map[string]any {
	allocation := map[string]any{}
	for _, alloc := range budgetAllocation {
		allocation[alloc.Category] = map[string]any{
			"recommended": totalBudget * alloc.Share,
			"percentage":  alloc.Share * 100,
		}
	}
	return allocation
}

func analyze(actual, allocation map[string]any, totalBudget float64) map[string]any {
	analysis := map[string]any{}

	for _, alloc := range budgetAllocation {
		spent := number(actual[alloc.Category])
		recommended := number(getMap(allocation, alloc.Category)["recommended"])

		percentageUsed := 0.0
		status := "no_budget"
		if recommended > 0 {
			percentageUsed = spent / recommended * 100
			status = budgetStatus(percentageUsed)
		}

		analysis[alloc.Category] = map[string]any{
			"actual":          spent,
			"recommended":     recommended,
			"percentage_used": percentageUsed,
			"status":          status,
			"difference":      spent - recommended,
		}
	}

	totalActual := number(actual["total"])
	totalPercentage := 0.0
	if totalBudget > 0 {
		totalPercentage = totalActual / totalBudget * 100
	}
	analysis["overall"] = map[string]any{
		"actual":          totalActual,
		"budget":          totalBudget,
		"percentage_used": totalPercentage,
		"status":          budgetStatus(totalPercentage),
		"remaining":       totalBudget - totalActual,
	}

	return analysis
}

func budgetStatus(percentageUsed float64) string {
	switch {
	case percentageUsed < 80:
		return "under_budget"
	case percentageUsed <= 100:
		return "within_budget"
	case percentageUsed <= 120:
		return "over_budget"
	default:
		return "significantly_over_budget"
	}
}

func budgetRecommendations(analysis map[string]any) []map[string]any {
	var recs []map[string]any

	overall := getMap(analysis, "overall")
	remaining := number(overall["remaining"])
	switch overall["status"] {
	case "under_budget":
		if remaining > 100 {
			recs = append(recs, map[string]any{
				"type":     "suggestion",
				"category": "overall",
				"message":  fmt.Sprintf("You have $%.2f remaining. Consider upgrading your accommodation or adding premium activities.", remaining),
				"priority": "low",
			})
		}
	case "over_budget":
		recs = append(recs, map[string]any{
			"type":     "warning",
			"category": "overall",
			"message":  fmt.Sprintf("You are $%.2f over budget. Consider cost-saving alternatives.", -remaining),
			"priority": "high",
		})
	case "significantly_over_budget":
		recs = append(recs, map[string]any{
			"type":     "critical",
			"category": "overall",
			"message":  fmt.Sprintf("You are significantly over budget by $%.2f. Major adjustments needed.", -remaining),
			"priority": "critical",
		})
	}

	for _, alloc := range budgetAllocation {
		categoryAnalysis := getMap(analysis, alloc.Category)
		difference := number(categoryAnalysis["difference"])
		switch categoryAnalysis["status"] {
		case "over_budget", "significantly_over_budget":
			recs = append(recs, map[string]any{
				"type":     "warning",
				"category": alloc.Category,
				"message":  fmt.Sprintf("%s is $%.2f over recommended budget.", titleCase(alloc.Category), difference),
				"priority": "medium",
			})
		case "under_budget":
			if difference < -50 {
				recs = append(recs, map[string]any{
					"type":     "suggestion",
					"category": alloc.Category,
					"message":  fmt.Sprintf("%s is $%.2f under budget. You could upgrade this category.", titleCase(alloc.Category), -difference),
					"priority": "low",
				})
			}
		}
	}

	return recs
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func summarize(analysis map[string]any) map[string]any {
	overall := getMap(analysis, "overall")

	categories := map[string]any{}
	for _, alloc := range budgetAllocation {
		categoryAnalysis := getMap(analysis, alloc.Category)
		categories[alloc.Category] = map[string]any{
			"cost":       categoryAnalysis["actual"],
			"percentage": categoryAnalysis["percentage_used"],
			"status":     categoryAnalysis["status"],
		}
	}

	return map[string]any{
		"total_cost":      overall["actual"],
		"total_budget":    overall["budget"],
		"remaining":       overall["remaining"],
		"status":          overall["status"],
		"percentage_used": overall["percentage_used"],
		"categories":      categories,
	}
}
