package usecase

import (
	"fmt"

	"github.com/tumbuh/backend/internal/domain"
)

// costItem is a base per-hectare cost in rupiah
type costItem struct {
	name      string
	perHectRp float64
}

// Base per-hectare costs before economies of scale
var (
	capitalCostItems = []costItem{
		{"Land preparation (ploughing, harrowing)", 1_500_000},
		{"Improved seed / seedlings", 800_000},
		{"Base fertilizer (before planting)", 1_000_000},
		{"Land rent (if rented)", 3_000_000},
		{"Small tools (hoes, sprayers, etc.)", 500_000},
	}

	maintenanceCostItems = []costItem{
		{"Follow-up fertilizer (Urea, SP-36, KCl)", 1_800_000},
		{"Pesticide / herbicide", 800_000},
		{"Labour (planting, upkeep, harvest)", 4_000_000},
		{"Irrigation", 600_000},
		{"Equipment repair", 300_000},
	}
)

// ScaleFactor returns the per-hectare cost multiplier for a farm size.
// Larger farms get cheaper per-hectare costs.
func ScaleFactor(areaHa float64) float64 {
	switch {
	case areaHa <= 2:
		return 1.0
	case areaHa <= 10:
		return 0.95
	default:
		return 0.85
	}
}

// EstimateCosts itemises initial capital and maintenance costs for an area
func EstimateCosts(areaHa float64) (domain.CostBreakdown, error) {
	if areaHa <= 0 {
		return domain.CostBreakdown{}, fmt.Errorf("%w: area must be positive, got %v", domain.ErrInvalidRequest, areaHa)
	}

	factor := ScaleFactor(areaHa)
	breakdown := domain.CostBreakdown{
		AreaHa:      areaHa,
		ScaleFactor: factor,
	}

	breakdown.Capital, breakdown.CapitalRp = expandCosts(capitalCostItems, areaHa, factor)
	breakdown.Maintenance, breakdown.MaintenanceRp = expandCosts(maintenanceCostItems, areaHa, factor)
	breakdown.TotalRp = breakdown.CapitalRp + breakdown.MaintenanceRp

	return breakdown, nil
}

func expandCosts(items []costItem, areaHa, factor float64) ([]domain.CostComponent, float64) {
	components := make([]domain.CostComponent, 0, len(items))
	var total float64
	for _, item := range items {
		c := domain.CostComponent{
			Name:      item.name,
			PerHectRp: item.perHectRp,
			TotalRp:   item.perHectRp * areaHa * factor,
		}
		total += c.TotalRp
		components = append(components, c)
	}
	return components, total
}
