package domain

// Plan 会费套餐（对应 plans 表）
type Plan struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"` // 有效天数
}

// DefaultPlans 套餐目录为空时播种的默认套餐
func DefaultPlans() []Plan {
	return []Plan{
		{ID: "p1", Name: "Daily Pass", Price: 15, Duration: 1},
		{ID: "p2", Name: "Weekly Pass", Price: 50, Duration: 7},
		{ID: "p3", Name: "Monthly Membership", Price: 80, Duration: 30},
		{ID: "p4", Name: "Yearly Membership", Price: 800, Duration: 365},
	}
}
