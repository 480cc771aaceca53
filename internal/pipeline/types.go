// Package pipeline defines core types shared across subsystems.
package pipeline

import "time"

// RunState represents the lifecycle state of an ingestion run.
type RunState string

// Run states, in the order a healthy run moves through them.
const (
	RunStateIdle           RunState = "idle"
	RunStatePaginating     RunState = "paginating"
	RunStateExtracting     RunState = "extracting"
	RunStatePhoneResolving RunState = "phone_resolving"
	RunStatePersisting     RunState = "persisting"
	RunStateCompleted      RunState = "completed"
	RunStateFailed         RunState = "failed"
)

// LeadStatus is the workflow state owned by the downstream CRM.
type LeadStatus string

// Lead workflow statuses. The pipeline only ever writes StatusNew; every
// other transition belongs to the CRM.
const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusClosed    LeadStatus = "closed"
)

// Lead is the persisted record handed to the CRM. Identity is the
// (TenantID, ExternalListingID) pair; everything else is descriptive.
type Lead struct {
	ID                int64      `json:"lead_id"`
	TenantID          int64      `json:"tenant_id"`
	ExternalListingID string     `json:"external_listing_id"`
	Title             string     `json:"title"`
	Price             string     `json:"price"`
	Address           string     `json:"address"`
	Neighborhood      string     `json:"neighborhood"`
	PropertyType      string     `json:"property_type"`
	Description       string     `json:"description"`
	PhoneNumber       string     `json:"phone_number,omitempty"`
	ListingURL        string     `json:"listing_url"`
	OwnerName         string     `json:"owner_name"`
	ApartmentSize     string     `json:"apartment_size"`
	RoomsCount        string     `json:"rooms_count"`
	PublishDate       string     `json:"publish_date"`
	Status            LeadStatus `json:"status"`
	MessageSent       bool       `json:"message_sent"`
	ScrapedAt         time.Time  `json:"scraped_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Tenant is a CRM account the pipeline ingests leads for.
type Tenant struct {
	ID            int64  `json:"tenant_id"`
	Email         string `json:"email"`
	WhatsappReady bool   `json:"whatsapp_ready"`
}

// InsertOutcome reports what the dedup writer did with a candidate lead.
type InsertOutcome string

// Insert outcomes surfaced in the run summary.
const (
	OutcomeCreated   InsertOutcome = "created"
	OutcomeDuplicate InsertOutcome = "duplicate"
)

// FetchRequest captures everything needed for one relay fetch.
type FetchRequest struct {
	URL            string
	JSRender       bool
	JSInstructions string
	Outputs        string
}

// FetchResponse is the raw result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// RunCounters tracks outcome stats for a single run.
type RunCounters struct {
	PagesVisited       int `json:"pages_visited"`
	ListingsSeen       int `json:"listings_seen"`
	LeadsCreated       int `json:"leads_created"`
	Duplicates         int `json:"duplicates"`
	FilteredOut        int `json:"filtered_out"`
	ExtractionFailures int `json:"extraction_failures"`
	PhoneFailures      int `json:"phone_failures"`
}

// RunSummary is the terminal report of one scheduled execution.
type RunSummary struct {
	RunID      string      `json:"run_id"`
	TenantID   int64       `json:"tenant_id"`
	State      RunState    `json:"state"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	ErrorText  string      `json:"error_text,omitempty"`
	Counters   RunCounters `json:"counters"`
}
