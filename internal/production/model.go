package production

import (
	"math"
	"time"
)

// The conversion chain resolves exactly two named hops: the product's base
// unit into cans, then cans into sacks. These names are domain constants
// matching the conversion factor table; the aggregator is not a generic
// unit graph.
const (
	UnitCan  = "Can"
	UnitSack = "Sack"
	// PoundsPerSack is the raw-material weight of one sack. It travels with
	// the Can->Sack conversion but is not stored as a generic factor.
	PoundsPerSack = 25.0
)

// Round2 rounds half-up to two decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// ConsolidatedRow is one product's production requirement for a date.
// Derived columns are nil when a conversion factor is missing; the base
// total is always present.
type ConsolidatedRow struct {
	ProductID      int64    `json:"product_id"`
	ProductName    string   `json:"product_name"`
	TotalBaseUnits float64  `json:"total_base_units"`
	BaseUnitName   string   `json:"base_unit_name"`
	CansNeeded     *float64 `json:"cans_needed"`
	PoundsNeeded   *float64 `json:"pounds_needed"`
	SacksNeeded    *float64 `json:"sacks_needed"`
	// Adjusted marks rows whose base total was overridden by a planner.
	Adjusted bool `json:"adjusted"`
}

// Adjustment is a planning-side override of the computed base total for one
// product on one date. It never rewrites order lines.
type Adjustment struct {
	OrderDate  time.Time `json:"order_date"`
	ProductID  int64     `json:"product_id"`
	Quantity   float64   `json:"quantity"`
	AdjustedBy int64     `json:"adjusted_by"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BaseTotal is the per-product sum of ordered quantities expressed in the
// product's base unit.
type BaseTotal struct {
	ProductID    int64
	ProductName  string
	BaseUnitName string
	Total        float64
}

// AdjustRequest carries a planner override.
type AdjustRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	NewTotal  float64 `json:"new_total" validate:"gte=0"`
}
