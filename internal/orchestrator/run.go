// Package orchestrator drives one full acquisition run: paginate, extract,
// resolve phones, sanitize, and persist deduplicated leads.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/realcrm/lead-harvester/internal/extract"
	"github.com/realcrm/lead-harvester/internal/pipeline"
	"github.com/realcrm/lead-harvester/internal/retry"
	"github.com/realcrm/lead-harvester/internal/sanitize"
)

// Config controls orchestrator behavior.
type Config struct {
	BaseURL       string
	PageCap       int
	CountryPrefix string
	// FilterPrivateOwners drops agency listings before ingestion.
	FilterPrivateOwners bool
	// FilterPostedToday drops listings older than the run's date.
	FilterPostedToday bool
}

// The reveal instructions the relay executes to expose a seller's phone.
const phoneRevealInstructions = `[{"wait":2000},{"click":".viewPhone"},{"wait":2000}]`

// Orchestrator executes runs sequentially: one page is fetched and fully
// processed before the next begins. The jittered pause before every relay
// request is the primary rate-limit defense, so nothing here is parallel.
type Orchestrator struct {
	fetcher    pipeline.Fetcher
	pageRetry  *retry.Retryer
	phoneRetry *retry.Retryer
	pause      pipeline.Pauser
	store      pipeline.LeadStore
	tenants    pipeline.TenantStore
	sink       pipeline.ArchiveSink
	clock      pipeline.Clock
	ids        pipeline.IDGenerator
	cfg        Config
	siteRoot   string
	logger     *zap.Logger
}

// New constructs an Orchestrator.
func New(
	fetcher pipeline.Fetcher,
	pageRetry *retry.Retryer,
	phoneRetry *retry.Retryer,
	pause pipeline.Pauser,
	store pipeline.LeadStore,
	tenants pipeline.TenantStore,
	sink pipeline.ArchiveSink,
	clock pipeline.Clock,
	ids pipeline.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CountryPrefix == "" {
		cfg.CountryPrefix = sanitize.DefaultCountryPrefix
	}
	// Relative listing links resolve against the site root, not the
	// search URL with its query string.
	siteRoot := cfg.BaseURL
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Host != "" {
		siteRoot = u.Scheme + "://" + u.Host
	}
	return &Orchestrator{
		fetcher:    fetcher,
		pageRetry:  pageRetry,
		phoneRetry: phoneRetry,
		pause:      pause,
		store:      store,
		tenants:    tenants,
		sink:       sink,
		clock:      clock,
		ids:        ids,
		cfg:        cfg,
		siteRoot:   siteRoot,
		logger:     logger,
	}
}

// RunAll executes one run per active tenant, sequentially.
func (o *Orchestrator) RunAll(ctx context.Context) ([]pipeline.RunSummary, error) {
	tenants, err := o.tenants.ActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	if len(tenants) == 0 {
		o.logger.Warn("no active tenants, skipping run")
		return nil, nil
	}
	summaries := make([]pipeline.RunSummary, 0, len(tenants))
	for _, tenant := range tenants {
		summary, runErr := o.Run(ctx, tenant)
		summaries = append(summaries, summary)
		if runErr != nil {
			// A failed run for one tenant does not block the rest.
			o.logger.Error("run failed",
				zap.Int64("tenant_id", tenant.ID),
				zap.Error(runErr),
			)
		}
		if ctx.Err() != nil {
			return summaries, ctx.Err()
		}
	}
	return summaries, nil
}

// Run executes one full run for a single tenant and reports its summary.
// The run is terminal-failure only when the very first page is unreachable
// after retries, or when the store itself errors; individual listing
// failures are counted and skipped.
func (o *Orchestrator) Run(ctx context.Context, tenant pipeline.Tenant) (pipeline.RunSummary, error) {
	runID, err := o.ids.NewID()
	if err != nil {
		runID = "unknown"
	}
	summary := pipeline.RunSummary{
		RunID:     runID,
		TenantID:  tenant.ID,
		State:     pipeline.RunStateIdle,
		StartedAt: o.clock.Now(),
	}
	log := o.logger.With(zap.String("run_id", runID), zap.Int64("tenant_id", tenant.ID))
	log.Info("run started", zap.String("base_url", o.cfg.BaseURL))

	err = o.paginate(ctx, tenant, log, &summary)

	summary.FinishedAt = o.clock.Now()
	if err != nil {
		summary.State = pipeline.RunStateFailed
		summary.ErrorText = err.Error()
	} else {
		summary.State = pipeline.RunStateCompleted
	}
	log.Info("run finished",
		zap.String("state", string(summary.State)),
		zap.Int("pages_visited", summary.Counters.PagesVisited),
		zap.Int("leads_created", summary.Counters.LeadsCreated),
		zap.Int("duplicates", summary.Counters.Duplicates),
		zap.Int("extraction_failures", summary.Counters.ExtractionFailures),
		zap.Int("phone_failures", summary.Counters.PhoneFailures),
	)
	return summary, err
}

func (o *Orchestrator) paginate(
	ctx context.Context,
	tenant pipeline.Tenant,
	log *zap.Logger,
	summary *pipeline.RunSummary,
) error {
	summary.State = pipeline.RunStatePaginating

	for page := 1; o.cfg.PageCap == 0 || page <= o.cfg.PageCap; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pageURL, err := o.pageURL(page)
		if err != nil {
			return fmt.Errorf("build page url: %w", err)
		}

		resp, err := o.fetchPage(ctx, pageURL)
		if err != nil {
			if summary.Counters.PagesVisited == 0 {
				// Nothing succeeded this run: the relay is unreachable.
				return fmt.Errorf("first page unreachable: %w", err)
			}
			log.Warn("page fetch failed, stopping pagination",
				zap.Int("page", page), zap.Error(err))
			return nil
		}
		summary.Counters.PagesVisited++

		name := fmt.Sprintf("run_%s_page_%d", summary.RunID, page)
		o.archiveHTML(ctx, log, name, resp.Body)

		summary.State = pipeline.RunStateExtracting
		parsed, err := extract.Page(resp.Body)
		if err != nil {
			summary.Counters.ExtractionFailures++
			pipeline.TotalExtractionFailures.Inc()
			log.Warn("page extraction failed, skipping page",
				zap.Int("page", page), zap.Error(err))
			continue
		}
		o.archiveJSON(ctx, log, name, parsed.Raw)

		if len(parsed.Listings) == 0 {
			log.Info("no listings on page, pagination complete", zap.Int("page", page))
			return nil
		}

		if err := o.processListings(ctx, tenant, log, summary, parsed.Listings); err != nil {
			return err
		}
		summary.State = pipeline.RunStatePaginating
	}
	return nil
}

func (o *Orchestrator) processListings(
	ctx context.Context,
	tenant pipeline.Tenant,
	log *zap.Logger,
	summary *pipeline.RunSummary,
	listings []extract.ListingNode,
) error {
	now := o.clock.Now()
	for _, node := range listings {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Counters.ListingsSeen++

		if o.cfg.FilterPrivateOwners && !node.IsPrivateOwner() {
			summary.Counters.FilteredOut++
			continue
		}
		if o.cfg.FilterPostedToday && !node.PostedToday(now) {
			summary.Counters.FilteredOut++
			continue
		}

		lead := node.Lead(tenant.ID, o.siteRoot)

		if lead.PhoneNumber == "" && lead.ListingURL != "" {
			summary.State = pipeline.RunStatePhoneResolving
			phone, err := o.resolvePhone(ctx, lead.ListingURL)
			if err != nil {
				summary.Counters.PhoneFailures++
				pipeline.TotalPhoneFailures.Inc()
				log.Warn("phone reveal exhausted, keeping lead without phone",
					zap.String("listing_id", lead.ExternalListingID),
					zap.Error(err))
			} else {
				lead.PhoneNumber = sanitize.Phone(phone, o.cfg.CountryPrefix)
			}
		}

		if lead.ExternalListingID == "" {
			lead.ExternalListingID = extract.FallbackID(lead.PhoneNumber, lead.Address, lead.PublishDate)
		}
		if lead.ExternalListingID == "" {
			summary.Counters.ExtractionFailures++
			pipeline.TotalExtractionFailures.Inc()
			log.Warn("listing has no derivable identity, skipping",
				zap.String("url", lead.ListingURL))
			continue
		}

		lead = sanitize.Lead(lead)
		lead.ScrapedAt = o.clock.Now()

		summary.State = pipeline.RunStatePersisting
		outcome, stored, err := o.store.InsertLead(ctx, lead)
		if err != nil {
			// Store unreachable is fatal for the run; no in-memory buffering.
			return fmt.Errorf("persist lead %s: %w", lead.ExternalListingID, err)
		}
		switch outcome {
		case pipeline.OutcomeCreated:
			summary.Counters.LeadsCreated++
			pipeline.TotalLeadsCreated.Inc()
			log.Info("lead created",
				zap.Int64("lead_id", stored.ID),
				zap.String("listing_id", stored.ExternalListingID))
		case pipeline.OutcomeDuplicate:
			summary.Counters.Duplicates++
			pipeline.TotalDuplicates.Inc()
			log.Debug("duplicate listing skipped",
				zap.String("listing_id", lead.ExternalListingID))
		}
	}
	return nil
}

func (o *Orchestrator) fetchPage(ctx context.Context, pageURL string) (pipeline.FetchResponse, error) {
	var resp pipeline.FetchResponse
	err := o.pageRetry.Do(ctx, "fetch listing page", func(ctx context.Context) error {
		o.pause.Pause(ctx, 0)
		var fetchErr error
		resp, fetchErr = o.fetcher.Fetch(ctx, pipeline.FetchRequest{
			URL:      pageURL,
			JSRender: true,
		})
		return fetchErr
	})
	return resp, err
}

// resolvePhone performs the secondary reveal fetch under its own, smaller
// retry budget. A not-found phone counts as a failed attempt: the reveal
// click sometimes needs a second try before the number renders.
func (o *Orchestrator) resolvePhone(ctx context.Context, listingURL string) (string, error) {
	var phone string
	err := o.phoneRetry.Do(ctx, "reveal phone", func(ctx context.Context) error {
		o.pause.Pause(ctx, 0)
		resp, fetchErr := o.fetcher.Fetch(ctx, pipeline.FetchRequest{
			URL:            listingURL,
			JSRender:       true,
			JSInstructions: phoneRevealInstructions,
			Outputs:        "phone_numbers",
		})
		if fetchErr != nil {
			return fetchErr
		}
		found, extractErr := extract.PhoneNumber(resp.Body)
		if extractErr != nil {
			return extractErr
		}
		phone = found
		return nil
	})
	return phone, err
}

func (o *Orchestrator) pageURL(page int) (string, error) {
	u, err := url.Parse(o.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	if page > 1 {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (o *Orchestrator) archiveHTML(ctx context.Context, log *zap.Logger, name string, body []byte) {
	if o.sink == nil {
		return
	}
	if _, err := o.sink.SaveHTML(ctx, name, body); err != nil {
		log.Warn("archive html failed", zap.String("name", name), zap.Error(err))
	}
}

func (o *Orchestrator) archiveJSON(ctx context.Context, log *zap.Logger, name string, raw json.RawMessage) {
	if o.sink == nil {
		return
	}
	if _, err := o.sink.SaveJSON(ctx, name, raw); err != nil {
		log.Warn("archive json failed", zap.String("name", name), zap.Error(err))
	}
}
