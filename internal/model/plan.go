package model

// Plan is a fixed priced bundle of credits offered for purchase.
// Prices are in minor currency units (paise).
type Plan struct {
	ID              string
	PriceMinorUnits int64
	Credits         int
}

// Plans is the process-wide plan catalog. Reconciliation requires a paid
// amount to match one of these prices exactly.
var Plans = []Plan{
	{ID: "BASIC", PriceMinorUnits: 84900, Credits: 50},
	{ID: "PRO", PriceMinorUnits: 251200, Credits: 200},
	{ID: "ENTERPRISE", PriceMinorUnits: 840000, Credits: 750},
}

// PlanByID looks up a plan by its catalog id.
func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// PlanByAmount resolves a paid amount (minor units) back to a plan.
func PlanByAmount(amount int64) (Plan, bool) {
	for _, p := range Plans {
		if p.PriceMinorUnits == amount {
			return p, true
		}
	}
	return Plan{}, false
}
