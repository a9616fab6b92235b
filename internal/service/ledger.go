package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"voltport-backend/internal/domain"
	"voltport-backend/internal/logger"
	"voltport-backend/internal/metrics"
	"voltport-backend/internal/store"
)

type ledgerService struct {
	store store.Store
	email EmailService
}

func NewLedgerService(st store.Store, email EmailService) LedgerService {
	return &ledgerService{store: st, email: email}
}

// verifyWithdrawalCode compares a submitted code against the stored one.
// Codes at rest are either bcrypt hashes or legacy plaintext; both compare
// case-sensitively.
func verifyWithdrawalCode(stored, submitted string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

func (s *ledgerService) SubmitWithdrawal(ctx context.Context, accountID string, amount float64, details map[string]string, code string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("%w: withdrawal amount must be positive", domain.ErrValidation)
	}
	if len(details) == 0 {
		return "", fmt.Errorf("%w: destination details are required", domain.ErrValidation)
	}
	if code == "" {
		return "", fmt.Errorf("%w: withdrawal code is required", domain.ErrValidation)
	}

	var (
		activityID string
		account    *domain.Account
	)
	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		acct, err := tx.Account(accountID)
		if err != nil {
			return err
		}
		if !verifyWithdrawalCode(acct.WithdrawalCode, code) {
			return domain.ErrInvalidWithdrawalCode
		}
		if amount > acct.AvailableBalance {
			return domain.ErrInsufficientFunds
		}
		id, err := tx.CreateActivity(accountID, &domain.Activity{
			Type:        domain.ActivityTypeWithdrawal,
			Status:      domain.WithdrawalStatusPending,
			Amount:      -amount,
			Description: fmt.Sprintf("Withdrawal to %s", details["method"]),
			Details:     details,
		})
		if err != nil {
			return err
		}
		// Reserve the funds immediately so a concurrent submission cannot
		// spend them again while this withdrawal is pending.
		if err := tx.UpdateAccount(accountID, store.Increment("availableBalance", -amount)); err != nil {
			return err
		}
		activityID = id
		account = acct
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.WithdrawalsSubmitted.Inc()
	logger.Info("Withdrawal submitted", "account_id", accountID, "activity_id", activityID, "amount", amount)

	// Notify outside the atomic unit: the store may retry the closure on
	// conflict and a notification must not be sent twice.
	if s.email != nil && account.Email != "" {
		if err := s.email.SendWithdrawalSubmittedNotice(ctx, account.Email, account.DisplayName, amount); err != nil {
			logger.Warn("Failed to send withdrawal notice", "account_id", accountID, "error", err)
		}
	}
	return activityID, nil
}

func (s *ledgerService) RejectWithdrawal(ctx context.Context, activityID string) error {
	// Resolve the owning account through the cross-account activity index;
	// the admin only knows the activity id.
	found, err := s.store.FindActivity(ctx, activityID)
	if err != nil {
		return err
	}

	var account *domain.Account
	err = s.store.RunTransaction(ctx, func(tx store.Tx) error {
		acct, err := tx.Account(found.AccountID)
		if err != nil {
			return err
		}
		// Re-read inside the unit: a concurrent rejection must not refund
		// twice.
		act, err := tx.Activity(found.AccountID, activityID)
		if err != nil {
			return err
		}
		if act.Type != domain.ActivityTypeWithdrawal || act.Status != domain.WithdrawalStatusPending {
			return domain.ErrInvalidActivityState
		}
		// The withdrawal amount is stored negative; subtracting it restores
		// the reserved funds.
		if err := tx.UpdateAccount(found.AccountID, store.Increment("availableBalance", -act.Amount)); err != nil {
			return err
		}
		if err := tx.UpdateActivity(found.AccountID, activityID, store.Set("status", string(domain.WithdrawalStatusRejected))); err != nil {
			return err
		}
		account = acct
		return nil
	})
	if err != nil {
		return err
	}

	metrics.WithdrawalsRejected.Inc()
	logger.Info("Withdrawal rejected", "account_id", found.AccountID, "activity_id", activityID)

	if s.email != nil && account.Email != "" {
		if err := s.email.SendWithdrawalRejectedNotice(ctx, account.Email, account.DisplayName, -found.Amount); err != nil {
			logger.Warn("Failed to send rejection notice", "account_id", found.AccountID, "error", err)
		}
	}
	return nil
}

func (s *ledgerService) SettleActivity(ctx context.Context, accountID, activityID string) error {
	var settled bool
	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		settled = false
		act, err := tx.Activity(accountID, activityID)
		if err != nil {
			return err
		}
		// Idempotent replay: the amount has already been folded in.
		if act.BalanceUpdated {
			return nil
		}
		if act.Type != domain.ActivityTypeWithdrawal && act.Type != domain.ActivityTypeDeposit {
			// Irrelevant types are marked processed so they are never
			// examined again, without touching the balance.
			return tx.UpdateActivity(accountID, activityID, store.Set("balanceUpdated", true))
		}
		if err := tx.UpdateAccount(accountID, store.Increment("availableBalance", act.Amount)); err != nil {
			return err
		}
		if err := tx.UpdateActivity(accountID, activityID, store.Set("balanceUpdated", true)); err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		return err
	}
	if settled {
		metrics.ActivitiesSettled.Inc()
		logger.Info("Activity settled", "account_id", accountID, "activity_id", activityID)
	}
	return nil
}

func (s *ledgerService) AddLifetimeEarnings(ctx context.Context, accountID string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	return s.store.RunTransaction(ctx, func(tx store.Tx) error {
		if _, err := tx.Account(accountID); err != nil {
			return err
		}
		return tx.UpdateAccount(accountID, store.Increment("lifetimeEarnings", amount))
	})
}

func (s *ledgerService) GetBalance(ctx context.Context, accountID string) (float64, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acct.AvailableBalance, nil
}
