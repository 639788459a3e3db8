package transaction

import (
	"context"
	"errors"
	"time"
)

// Type distinguishes debits from credits on a user's wallet.
type Type string

const (
	TypeDebit  Type = "DR"
	TypeCredit Type = "CR"
)

// ErrNotFound indicates no transaction exists for the given reference.
var ErrNotFound = errors.New("transaction not found")

// Record is one wallet movement tied to an external reference.
type Record struct {
	ID          string
	UserID      string
	Type        Type
	Amount      int64
	Description string
	Reference   string
	CreatedAt   time.Time
}

// Page is one page of transaction history.
type Page struct {
	Items      []Record
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// Repository persists wallet transaction records.
type Repository interface {
	Record(ctx context.Context, rec Record) (Record, error)
	History(ctx context.Context, userID string, page, limit int) (Page, error)
	FindByReference(ctx context.Context, reference string) (Record, error)
}
