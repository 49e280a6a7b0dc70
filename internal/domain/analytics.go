package domain

import "time"

// CustomerSpend is one row of the per-customer aggregation.
type CustomerSpend struct {
	CustomerID string  `json:"customer_id"`
	TotalSpent float64 `json:"total_spent"`
	OrderCount int     `json:"order_count"`
}

// KPIReport is the batch aggregation over one owner's synced data.
type KPIReport struct {
	OrderVolume      int64           `json:"order_volume"`
	TotalRevenue     float64         `json:"total_revenue"`
	AvgOrderValue    float64         `json:"avg_customer_order"`
	CustomerSpending []CustomerSpend `json:"customer_spending"`
}

// RevenuePoint is one bucket of a revenue time series. Date is the bucket's
// end boundary.
type RevenuePoint struct {
	Date    time.Time `json:"date"`
	Revenue float64   `json:"revenue"`
}

// OrderRevenue is one order's contribution to the aggregations: the sum of
// its item prices times quantities.
type OrderRevenue struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	PlacedAt   time.Time `json:"placed_at"`
	Revenue    float64   `json:"revenue"`
}
