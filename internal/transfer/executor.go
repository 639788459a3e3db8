package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gooddeedstech/billy-main-service/internal/rubies"
	"github.com/gooddeedstech/billy-main-service/internal/transaction"
	"github.com/gooddeedstech/billy-main-service/internal/user"
)

var (
	// ErrIncorrectPin indicates the supplied PIN does not match the stored hash.
	ErrIncorrectPin = errors.New("incorrect pin")

	// ErrPinNotSet indicates the user has no transaction PIN on record, which
	// is a different situation from a mismatch.
	ErrPinNotSet = errors.New("transaction pin not set")

	// ErrNoFundingAccount indicates the user has no funding virtual account
	// to debit.
	ErrNoFundingAccount = errors.New("no funding account")

	// ErrTransferDeclined indicates the provider definitively rejected the
	// transfer.
	ErrTransferDeclined = errors.New("transfer declined")
)

// InsufficientBalanceError carries the balance context the user needs to see.
type InsufficientBalanceError struct {
	Balance int64
	Amount  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Balance, e.Amount)
}

// Gateway is the slice of the payments provider the executor needs.
type Gateway interface {
	FundTransfer(ctx context.Context, req rubies.TransferRequest) (rubies.TransferResult, error)
	ConfirmTransfer(ctx context.Context, reference string) (rubies.TransferResult, error)
}

// Intent is a fully resolved, verified transfer waiting on execution.
type Intent struct {
	Amount        int64
	AccountNumber string
	AccountName   string
	BankCode      string
	BankName      string
}

// Receipt describes a completed transfer.
type Receipt struct {
	Reference       string
	ResponseMessage string
	Amount          int64
	NewBalance      int64
}

// Executor performs the PIN gate, balance check and the single external
// transfer call for a confirmed intent.
type Executor struct {
	users        user.Repository
	transactions transaction.Repository
	gateway      Gateway
	logger       *slog.Logger
}

// NewExecutor wires the transfer executor.
func NewExecutor(users user.Repository, transactions transaction.Repository, gateway Gateway, logger *slog.Logger) *Executor {
	return &Executor{users: users, transactions: transactions, gateway: gateway, logger: logger}
}

// VerifyPin compares the supplied PIN against the user's stored hash.
func (e *Executor) VerifyPin(ctx context.Context, phone, pin string) error {
	u, err := e.users.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if len(u.PinHash) == 0 {
		return ErrPinNotSet
	}
	if err := bcrypt.CompareHashAndPassword(u.PinHash, []byte(pin)); err != nil {
		return ErrIncorrectPin
	}
	return nil
}

// Execute re-fetches the user, checks balance sufficiency and issues exactly
// one fund-transfer call for the intent. Only a successful provider response
// debits the cached balance. The external call and the local debit are not
// atomic; a crash between them leaves the transfer committed upstream with a
// stale local balance.
func (e *Executor) Execute(ctx context.Context, phone string, intent Intent) (Receipt, error) {
	u, err := e.users.FindByPhone(ctx, phone)
	if err != nil {
		return Receipt{}, err
	}
	if u.FundingAccount == "" {
		return Receipt{}, ErrNoFundingAccount
	}
	if u.Balance < intent.Amount {
		return Receipt{}, &InsufficientBalanceError{Balance: u.Balance, Amount: intent.Amount}
	}

	now := time.Now()
	reference := fmt.Sprintf("tx-%s-%d", u.Phone, now.UnixMilli())

	result, err := e.gateway.FundTransfer(ctx, rubies.TransferRequest{
		Amount:              intent.Amount,
		CreditAccountNumber: intent.AccountNumber,
		CreditAccountName:   intent.AccountName,
		BankCode:            intent.BankCode,
		BankName:            intent.BankName,
		Narration:           fmt.Sprintf("Billy Transfer from %s", u.FullName()),
		DebitAccountNumber:  u.FundingAccount,
		Reference:           reference,
		SessionID:           fmt.Sprintf("%s-%d", u.Phone, now.UnixMilli()),
	})
	if err != nil {
		return Receipt{}, err
	}
	if !result.Ok() {
		e.logger.Warn("transfer declined", "reference", reference, "code", result.ResponseCode)
		return Receipt{}, fmt.Errorf("%w: %s", ErrTransferDeclined, result.ResponseMessage)
	}

	newBalance := u.Balance - intent.Amount
	if err := e.users.UpdateBalance(ctx, u.ID, newBalance); err != nil {
		// The transfer is already committed upstream; keep the receipt and
		// flag the stale balance for reconciliation.
		e.logger.Error("balance debit failed after committed transfer", "user", u.ID, "reference", reference, "error", err)
	}

	if _, err := e.transactions.Record(ctx, transaction.Record{
		UserID:      u.ID,
		Type:        transaction.TypeDebit,
		Amount:      intent.Amount,
		Description: fmt.Sprintf("Transfer to %s (%s)", intent.AccountName, intent.BankName),
		Reference:   reference,
	}); err != nil {
		e.logger.Error("record transaction failed", "user", u.ID, "reference", reference, "error", err)
	}

	e.logger.Info("transfer executed", "user", u.ID, "reference", reference, "amount", intent.Amount)

	return Receipt{
		Reference:       result.Reference,
		ResponseMessage: result.ResponseMessage,
		Amount:          intent.Amount,
		NewBalance:      newBalance,
	}, nil
}

// Status looks up one of the user's past transfers by reference and asks the
// provider for its current state (TSQ). References belonging to other users
// read as not found.
func (e *Executor) Status(ctx context.Context, phone, reference string) (Receipt, error) {
	u, err := e.users.FindByPhone(ctx, phone)
	if err != nil {
		return Receipt{}, err
	}

	rec, err := e.transactions.FindByReference(ctx, reference)
	if err != nil {
		return Receipt{}, err
	}
	if rec.UserID != u.ID {
		return Receipt{}, transaction.ErrNotFound
	}

	result, err := e.gateway.ConfirmTransfer(ctx, reference)
	if err != nil {
		return Receipt{}, err
	}

	return Receipt{
		Reference:       reference,
		ResponseMessage: result.ResponseMessage,
		Amount:          rec.Amount,
	}, nil
}
