package domain

import "time"

type ActivityType string

const (
	ActivityTypeEarning     ActivityType = "earning"
	ActivityTypeWithdrawal  ActivityType = "withdrawal"
	ActivityTypeDeposit     ActivityType = "deposit"
	ActivityTypeMaintenance ActivityType = "maintenance"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "Pending"
	WithdrawalStatusRejected WithdrawalStatus = "Rejected"
	WithdrawalStatusApproved WithdrawalStatus = "Approved"
)

// SessionDetails carries the synthetic telemetry attached to an earning
// activity by the simulation engine.
type SessionDetails struct {
	Vehicle         string  `json:"vehicle" firestore:"vehicle"`
	EnergyKwh       float64 `json:"energy_kwh" firestore:"energyKwh"`
	DurationMinutes float64 `json:"duration_minutes" firestore:"durationMinutes"`
	Miles           float64 `json:"miles" firestore:"miles"`
}

// Activity is an append-only ledger entry owned by exactly one account.
// Entries are never deleted; only Status (withdrawals) and BalanceUpdated
// transition after creation. BalanceUpdated flips false->true at most once:
// it marks the moment Amount was folded into the account balance.
type Activity struct {
	ID             string            `json:"id" firestore:"-"`
	AccountID      string            `json:"account_id" firestore:"-"`
	Type           ActivityType      `json:"type" firestore:"type"`
	Status         WithdrawalStatus  `json:"status,omitempty" firestore:"status,omitempty"`
	Amount         float64           `json:"amount" firestore:"amount"`
	Description    string            `json:"description" firestore:"description"`
	Timestamp      time.Time         `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	BalanceUpdated bool              `json:"balance_updated" firestore:"balanceUpdated"`
	PortID         string            `json:"port_id,omitempty" firestore:"portId,omitempty"`
	Details        map[string]string `json:"details,omitempty" firestore:"details,omitempty"`
	SessionDetails *SessionDetails   `json:"session_details,omitempty" firestore:"sessionDetails,omitempty"`
}
