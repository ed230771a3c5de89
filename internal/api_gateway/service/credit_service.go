package service

import (
	"context"
	"fmt"

	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/ledger"
)

// ErrUnsupportedOperation is returned for a transaction type the scope does not accept
type ErrUnsupportedOperation struct {
	Scope credit.Scope
	Op    credit.TransactionType
}

func (e ErrUnsupportedOperation) Error() string {
	return fmt.Sprintf("operation %q is not supported on %s credits", e.Op, e.Scope)
}

// CreditServiceImpl implements CreditService over the ledger
type CreditServiceImpl struct {
	ledger *ledger.Ledger
}

// NewCreditService creates a new credit service
func NewCreditService(l *ledger.Ledger) CreditService {
	return &CreditServiceImpl{ledger: l}
}

func (s *CreditServiceImpl) SystemBalance(ctx context.Context) credit.SystemCredits {
	return s.ledger.SystemBalance()
}

func (s *CreditServiceImpl) ChangeSystem(ctx context.Context, op credit.TransactionType, amount, actorID int64, reason string) (*ledger.Result, error) {
	switch op {
	case credit.TransactionAdd:
		return s.ledger.AddSystemCredits(ctx, amount, actorID, reason)
	case credit.TransactionDeduct:
		return s.ledger.DeductSystemCredits(ctx, amount, actorID, reason)
	case credit.TransactionSet:
		return s.ledger.SetSystemCredits(ctx, amount, actorID, reason)
	}
	return nil, ErrUnsupportedOperation{Scope: credit.ScopeSystem, Op: op}
}

func (s *CreditServiceImpl) SystemHistory(ctx context.Context, filter credit.HistoryFilter) []credit.HistoryEntry {
	return s.ledger.SystemHistory(filter)
}

func (s *CreditServiceImpl) ClientBalance(ctx context.Context, clientID int64) (entity.Client, error) {
	return s.ledger.ClientBalance(clientID)
}

func (s *CreditServiceImpl) ChangeClient(ctx context.Context, clientID int64, op credit.TransactionType, amount, actorID int64, reason string) (*ledger.Result, error) {
	switch op {
	case credit.TransactionAdd:
		return s.ledger.AddClientCredits(ctx, clientID, amount, actorID, reason)
	case credit.TransactionDeduct:
		return s.ledger.DeductClientCredits(ctx, clientID, amount, actorID, reason)
	case credit.TransactionSet:
		return s.ledger.SetClientCredits(ctx, clientID, amount, actorID, reason)
	case credit.TransactionAllocate:
		return s.ledger.AllocateClientCreditsFromSystem(ctx, clientID, amount, actorID, reason)
	}
	return nil, ErrUnsupportedOperation{Scope: credit.ScopeClient, Op: op}
}

func (s *CreditServiceImpl) ClientHistory(ctx context.Context, clientID int64, filter credit.HistoryFilter) ([]credit.HistoryEntry, error) {
	if _, err := s.ledger.ClientBalance(clientID); err != nil {
		return nil, err
	}
	return s.ledger.ClientHistory(clientID, filter), nil
}
