package domain

import "time"

// Account is the owner-facing document holding the derived balance and the
// period/lifetime aggregates. AvailableBalance is a materialized view of the
// activity ledger; it is only ever mutated inside a store transaction or a
// batch issued by one of the engines.
type Account struct {
	ID                   string    `json:"id" firestore:"-"`
	Email                string    `json:"email" firestore:"email"`
	DisplayName          string    `json:"display_name" firestore:"displayName"`
	AvailableBalance     float64   `json:"available_balance" firestore:"availableBalance"`
	MonthlyEarnings      float64   `json:"monthly_earnings" firestore:"monthlyEarnings"`
	MonthlyKwhDelivered  float64   `json:"monthly_kwh_delivered" firestore:"monthlyKwhDelivered"`
	MonthlySessions      int64     `json:"monthly_sessions" firestore:"monthlySessions"`
	MonthlyCo2Offset     float64   `json:"monthly_co2_offset" firestore:"monthlyCo2Offset"`
	LifetimeEarnings     float64   `json:"lifetime_earnings" firestore:"lifetimeEarnings"`
	LifetimeKwhDelivered float64   `json:"lifetime_kwh_delivered" firestore:"lifetimeKwhDelivered"`
	LifetimeSessions     int64     `json:"lifetime_sessions" firestore:"lifetimeSessions"`
	LifetimeCo2Offset    float64   `json:"lifetime_co2_offset" firestore:"lifetimeCo2Offset"`
	WithdrawalCode       string    `json:"-" firestore:"withdrawalCode"`
	LastMonthlyReset     time.Time `json:"last_monthly_reset" firestore:"lastMonthlyReset"`
}
