package pipeline

import (
	"context"
	"time"
)

// Fetcher fetches a URL through the anti-bot relay and returns the body
// plus metadata. Implementations perform no retries of their own.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// LeadStore persists deduplicated leads. InsertLead must be a no-op that
// reports OutcomeDuplicate when the (tenant, external listing) key exists.
type LeadStore interface {
	InsertLead(ctx context.Context, lead Lead) (InsertOutcome, Lead, error)
	MarkMessageSent(ctx context.Context, leadID int64) error
	Close()
}

// TenantStore lists the CRM accounts the pipeline ingests for.
type TenantStore interface {
	ActiveTenants(ctx context.Context) ([]Tenant, error)
}

// ArchiveSink writes raw per-run artifacts for post-hoc debugging.
// Failures are best-effort and must never abort a run.
type ArchiveSink interface {
	SaveHTML(ctx context.Context, name string, body []byte) (string, error)
	SaveJSON(ctx context.Context, name string, payload any) (string, error)
}

// Pauser abstracts how the pipeline waits between outbound requests.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
