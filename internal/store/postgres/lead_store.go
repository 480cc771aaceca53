// Package postgres provides the Postgres-backed lead store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realcrm/lead-harvester/internal/pipeline"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for lead rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Store writes lead rows into Postgres. It assumes a schema like:
//
//	CREATE TABLE leads (
//		lead_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//		tenant_id BIGINT NOT NULL,
//		external_listing_id TEXT NOT NULL,
//		title TEXT, price TEXT, address TEXT, neighborhood TEXT,
//		property_type TEXT, description TEXT,
//		phone_number TEXT,
//		listing_url TEXT, owner_name TEXT,
//		apartment_size TEXT, rooms_count TEXT, publish_date TEXT,
//		status TEXT NOT NULL DEFAULT 'new',
//		message_sent BOOLEAN NOT NULL DEFAULT FALSE,
//		scraped_at TIMESTAMPTZ NOT NULL,
//		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//		UNIQUE (tenant_id, external_listing_id)
//	);
//
// The unique constraint is the dedup guarantee; the store never updates
// an existing row's content, status, or message_sent on re-observation.
type Store struct {
	pool  dbPool
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "leads"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool dbPool, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "leads"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// InsertLead inserts a candidate lead guarded by the dedup key. A key
// collision is a no-op reported as OutcomeDuplicate, never an error.
func (s *Store) InsertLead(ctx context.Context, lead pipeline.Lead) (pipeline.InsertOutcome, pipeline.Lead, error) {
	if lead.ExternalListingID == "" {
		return "", pipeline.Lead{}, fmt.Errorf("external listing id is required")
	}
	if lead.Status == "" {
		lead.Status = pipeline.StatusNew
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	tenant_id,
	external_listing_id,
	title,
	price,
	address,
	neighborhood,
	property_type,
	description,
	phone_number,
	listing_url,
	owner_name,
	apartment_size,
	rooms_count,
	publish_date,
	status,
	message_sent,
	scraped_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11,$12,$13,$14,$15,$16,$17
)
ON CONFLICT (tenant_id, external_listing_id) DO NOTHING
RETURNING lead_id, created_at, updated_at`, s.table)

	args := []any{
		lead.TenantID,
		lead.ExternalListingID,
		lead.Title,
		lead.Price,
		lead.Address,
		lead.Neighborhood,
		lead.PropertyType,
		lead.Description,
		lead.PhoneNumber,
		lead.ListingURL,
		lead.OwnerName,
		lead.ApartmentSize,
		lead.RoomsCount,
		lead.PublishDate,
		lead.Status,
		lead.MessageSent,
		lead.ScrapedAt,
	}
	row := s.pool.QueryRow(ctx, query, args...)
	err := row.Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return pipeline.OutcomeDuplicate, pipeline.Lead{}, nil
	}
	if err != nil {
		return "", pipeline.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return pipeline.OutcomeCreated, lead, nil
}

// MarkMessageSent flips the message_sent flag. Called by the downstream
// outreach flow, never by the ingestion loop.
func (s *Store) MarkMessageSent(ctx context.Context, leadID int64) error {
	query := fmt.Sprintf(
		`UPDATE %s SET message_sent = TRUE, updated_at = NOW() WHERE lead_id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, leadID)
	if err != nil {
		return fmt.Errorf("mark message sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lead %d not found", leadID)
	}
	return nil
}

// ActiveTenants lists tenants with a live subscription.
func (s *Store) ActiveTenants(ctx context.Context) ([]pipeline.Tenant, error) {
	query := `
SELECT u.tenant_id, u.email, u.whatsapp_ready
FROM tenants u
JOIN subscriptions s ON u.tenant_id = s.tenant_id
WHERE s.status = 'active' AND s.end_date > NOW()`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []pipeline.Tenant
	for rows.Next() {
		var t pipeline.Tenant
		if err := rows.Scan(&t.ID, &t.Email, &t.WhatsappReady); err != nil {
			return nil, fmt.Errorf("scan tenant row: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant rows: %w", err)
	}
	return tenants, nil
}
