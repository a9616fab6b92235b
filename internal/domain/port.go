package domain

type PortStatus string

const (
	PortStatusActive   PortStatus = "Active"
	PortStatusInactive PortStatus = "Inactive"
)

// Port is a metered charging port owned by exactly one account. Monthly
// fields are zeroed by the bulk reset engine; utilization is recomputed on
// every accrual cycle and capped at 100.
type Port struct {
	ID                     string     `json:"id" firestore:"-"`
	AccountID              string     `json:"account_id" firestore:"-"`
	Status                 PortStatus `json:"status" firestore:"status"`
	Package                string     `json:"package" firestore:"package"`
	Region                 string     `json:"region" firestore:"region"`
	LocationName           string     `json:"location_name" firestore:"locationName"`
	PortIdentifier         string     `json:"port_identifier" firestore:"portIdentifier"`
	LifetimeEarnings       float64    `json:"lifetime_earnings" firestore:"lifetimeEarnings"`
	MonthlyEarnings        float64    `json:"monthly_earnings" firestore:"monthlyEarnings"`
	MonthlyDurationMinutes float64    `json:"monthly_duration_minutes" firestore:"monthlyDurationMinutes"`
	Utilization            float64    `json:"utilization" firestore:"utilization"`
}
