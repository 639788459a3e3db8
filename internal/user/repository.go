package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no user exists for the given identifier.
var ErrNotFound = errors.New("user not found")

// Repository persists users and their saved beneficiaries.
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (User, error)
	UpdateBalance(ctx context.Context, id string, balance int64) error
	SaveBeneficiary(ctx context.Context, userID string, b Beneficiary) error
	ListBeneficiaries(ctx context.Context, userID string) ([]Beneficiary, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, phone, first_name, last_name, balance, pin_hash, funding_account, created_at
        FROM users WHERE phone = $1`, phone)

	var (
		id        uuid.UUID
		createdAt time.Time
		u         User
	)
	if err := row.Scan(&id, &u.Phone, &u.FirstName, &u.LastName, &u.Balance, &u.PinHash, &u.FundingAccount, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	u.CreatedAt = createdAt.UTC()
	return u, nil
}

// UpdateBalance stores the user's cached wallet balance.
func (r *PostgresRepository) UpdateBalance(ctx context.Context, id string, balance int64) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET balance = $1 WHERE id = $2`, balance, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveBeneficiary records a reusable transfer recipient for the user.
func (r *PostgresRepository) SaveBeneficiary(ctx context.Context, userID string, b Beneficiary) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO user_beneficiaries (id, user_id, account_number, bank_code, bank_name, account_name, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (user_id, account_number, bank_code) DO NOTHING`,
		uuid.New(), id, b.AccountNumber, b.BankCode, b.BankName, b.AccountName, time.Now().UTC())
	return err
}

// ListBeneficiaries returns the user's saved recipients, newest first.
func (r *PostgresRepository) ListBeneficiaries(ctx context.Context, userID string) ([]Beneficiary, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT account_number, bank_code, bank_name, account_name
        FROM user_beneficiaries WHERE user_id = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Beneficiary
	for rows.Next() {
		var b Beneficiary
		if err := rows.Scan(&b.AccountNumber, &b.BankCode, &b.BankName, &b.AccountName); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
