package billing

// Plan is a subscription tier. Prices are monthly, in cents.
type Plan struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	SeatLimit  int    `json:"seat_limit"` // 0 means unlimited
}

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

var Plans = []Plan{
	{ID: PlanFree, Name: "Free", PriceCents: 0, Currency: "usd", SeatLimit: 5},
	{ID: PlanPro, Name: "Pro", PriceCents: 1200, Currency: "usd", SeatLimit: 50},
	{ID: PlanEnterprise, Name: "Enterprise", PriceCents: 4900, Currency: "usd", SeatLimit: 0},
}

// PlanByID returns the plan with the given id, or nil.
func PlanByID(id string) *Plan {
	for i := range Plans {
		if Plans[i].ID == id {
			return &Plans[i]
		}
	}
	return nil
}
