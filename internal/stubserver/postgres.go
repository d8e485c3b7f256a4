package stubserver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/comptes-dev/comptes/internal/model"
)

// NewPostgresPool configures and returns a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS comptes (
    id            BIGSERIAL PRIMARY KEY,
    solde         NUMERIC(18, 2) NOT NULL CHECK (solde >= 0),
    date_creation DATE NOT NULL,
    type          TEXT NOT NULL CHECK (type IN ('COURANT', 'EPARGNE'))
)`

// PostgresStore persists accounts in the comptes table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the comptes table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate comptes: %w", err)
	}
	return nil
}

const selectColumns = `id, solde::text, to_char(date_creation, 'YYYY-MM-DD'), type`

func (s *PostgresStore) List(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.Query(ctx, `SELECT `+selectColumns+` FROM comptes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list comptes: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, p model.Payload) (model.Account, error) {
	row := s.db.QueryRow(ctx, `INSERT INTO comptes (solde, date_creation, type)
        VALUES ($1::text::numeric, $2::text::date, $3)
        RETURNING `+selectColumns,
		p.Balance.String(), p.CreationDate.String(), string(p.Type))
	acct, err := scanAccount(row)
	if err != nil {
		return model.Account{}, fmt.Errorf("insert compte: %w", err)
	}
	return acct, nil
}

func (s *PostgresStore) Update(ctx context.Context, id model.ID, p model.Payload) (model.Account, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil {
		return model.Account{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `UPDATE comptes
        SET solde = $2::text::numeric, date_creation = $3::text::date, type = $4
        WHERE id = $1
        RETURNING `+selectColumns,
		n, p.Balance.String(), p.CreationDate.String(), string(p.Type))
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("update compte %s: %w", id, err)
	}
	return acct, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id model.ID) error {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM comptes WHERE id = $1`, n)
	if err != nil {
		return fmt.Errorf("delete compte %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		id               int64
		solde, date, typ string
	)
	if err := row.Scan(&id, &solde, &date, &typ); err != nil {
		return model.Account{}, err
	}
	balance, err := decimal.NewFromString(solde)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing solde %q: %w", solde, err)
	}
	created, err := model.ParseDate(date)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing date_creation %q: %w", date, err)
	}
	return model.Account{
		ID:           model.ID(strconv.FormatInt(id, 10)),
		Balance:      balance,
		CreationDate: created,
		Type:         model.AccountType(typ),
	}, nil
}
