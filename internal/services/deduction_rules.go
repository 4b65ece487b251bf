package services

import (
	"sort"

	"lounge_pos_backend/internal/models"
)

// StockTarget says which stock rows a deduction rule decrements.
type StockTarget int

const (
	// TargetInventoryItems decrements the fixed consumables named in Resources.
	TargetInventoryItems StockTarget = iota
	// TargetMatchedBeverages decrements the beverage rows whose names were sold.
	TargetMatchedBeverages
)

// DeductionRule maps one product classification to the stock it consumes.
// Every resource of a rule is decremented by the same amount: the
// classification's aggregate sold quantity times PerUnit.
type DeductionRule struct {
	Classification models.Classification
	Target         StockTarget
	Resources      []string
	PerUnit        int
}

// DefaultDeductionRules is the rule table used at checkout.
var DefaultDeductionRules = []DeductionRule{
	{
		Classification: models.ClassificationBarista,
		Target:         TargetInventoryItems,
		Resources:      []string{"straw", "lids", "cups"},
		PerUnit:        1,
	},
	{
		Classification: models.ClassificationUtensils,
		Target:         TargetInventoryItems,
		Resources:      []string{"forks"},
		PerUnit:        1,
	},
	{
		Classification: models.ClassificationBeverage,
		Target:         TargetMatchedBeverages,
		PerUnit:        1,
	},
}

// PlannedDeduction is one decrement to apply inside the sale transaction.
type PlannedDeduction struct {
	Rule      DeductionRule
	Quantity  int
	Resources []string
}

// PlanDeductions works out, for each rule, how much to take from which rows.
// Classifications are evaluated independently, so one line may feed several
// rules. Rules whose classification sold nothing are left out.
func PlanDeductions(rules []DeductionRule, lines models.OrderLines, matched models.Classified) []PlannedDeduction {
	plan := make([]PlannedDeduction, 0, len(rules))
	for _, rule := range rules {
		names := matched[rule.Classification]
		if len(names) == 0 {
			continue
		}

		sold := 0
		for _, line := range lines {
			if names.Has(line.Product) {
				sold += line.Quantity
			}
		}
		perUnit := rule.PerUnit
		if perUnit <= 0 {
			perUnit = 1
		}
		quantity := sold * perUnit
		if quantity <= 0 {
			continue
		}

		var resources []string
		switch rule.Target {
		case TargetMatchedBeverages:
			resources = make([]string, 0, len(names))
			for name := range names {
				resources = append(resources, name)
			}
			sort.Strings(resources)
		default:
			resources = append([]string(nil), rule.Resources...)
		}
		if len(resources) == 0 {
			continue
		}

		plan = append(plan, PlannedDeduction{Rule: rule, Quantity: quantity, Resources: resources})
	}
	return plan
}
