package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed transaction repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record inserts a wallet movement.
func (r *PostgresRepository) Record(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return Record{}, err
	}
	userID, err := uuid.Parse(rec.UserID)
	if err != nil {
		return Record{}, err
	}

	_, err = r.db.Exec(ctx, `INSERT INTO user_transactions (id, user_id, type, amount, description, reference, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, userID, string(rec.Type), rec.Amount, rec.Description, rec.Reference, rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// History returns one page of the user's movements, newest first.
func (r *PostgresRepository) History(ctx context.Context, userID string, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return Page{}, err
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM user_transactions WHERE user_id = $1`, id).Scan(&total); err != nil {
		return Page{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, user_id, type, amount, description, reference, created_at
        FROM user_transactions WHERE user_id = $1
        ORDER BY created_at DESC OFFSET $2 LIMIT $3`, id, (page-1)*limit, limit)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var items []Record
	for rows.Next() {
		var (
			rec       Record
			recID     uuid.UUID
			recUserID uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&recID, &recUserID, &rec.Type, &rec.Amount, &rec.Description, &rec.Reference, &createdAt); err != nil {
			return Page{}, err
		}
		rec.ID = recID.String()
		rec.UserID = recUserID.String()
		rec.CreatedAt = createdAt.UTC()
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// FindByReference looks up a movement by its external reference.
func (r *PostgresRepository) FindByReference(ctx context.Context, reference string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT id, user_id, type, amount, description, reference, created_at
        FROM user_transactions WHERE reference = $1`, reference)

	var (
		rec       Record
		recID     uuid.UUID
		recUserID uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&recID, &recUserID, &rec.Type, &rec.Amount, &rec.Description, &rec.Reference, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.ID = recID.String()
	rec.UserID = recUserID.String()
	rec.CreatedAt = createdAt.UTC()
	return rec, nil
}
