// Package session holds the in-memory invoice drafts, one per editing session.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/invoice-studio/internal/application/dispatcher"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/domain/event"
	"github.com/garyjia/invoice-studio/internal/domain/pricing"
)

// Defaults seeds new drafts. The freelancer identity comes from configuration;
// nothing in this package hardcodes one.
type Defaults struct {
	Freelancer    entity.FreelancerDetails
	InvoiceNumber string
	PaymentTerms  string
	PaymentMethod string
}

// NewInvoiceData builds the initial aggregate for a session started at now
func NewInvoiceData(defaults Defaults, now time.Time) entity.InvoiceData {
	return entity.InvoiceData{
		FreelancerDetails: defaults.Freelancer,
		InvoiceDetails: entity.InvoiceDetails{
			InvoiceNumber: defaults.InvoiceNumber,
			InvoiceDate:   now.Format(entity.DateLayout),
			DueDate:       now.AddDate(0, 0, entity.DefaultDueDays).Format(entity.DateLayout),
		},
		AdditionalInfo: entity.AdditionalInfo{
			PaymentTerms:  defaults.PaymentTerms,
			PaymentMethod: defaults.PaymentMethod,
		},
	}
}

// Session owns one InvoiceData. Every update replaces exactly one
// sub-record and leaves the other four as they were.
type Session struct {
	id         string
	catalog    *entity.Catalog
	dispatcher dispatcher.Dispatcher
	logger     Logger

	mu         sync.RWMutex
	data       entity.InvoiceData
	backfilled bool
	lastAccess time.Time

	exporting atomic.Bool
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

func newSession(id string, data entity.InvoiceData, catalog *entity.Catalog, d dispatcher.Dispatcher, logger Logger, now time.Time) *Session {
	return &Session{
		id:         id,
		catalog:    catalog,
		dispatcher: d,
		logger:     logger,
		data:       data,
		lastAccess: now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Data returns a copy of the current aggregate
func (s *Session) Data() entity.InvoiceData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Pricing derives amounts from the current selection; nothing is cached
func (s *Session) Pricing() pricing.Pricing {
	_, p := s.Snapshot()
	return p
}

// Snapshot returns the draft together with the pricing derived from that
// same copy, so the pair always agrees under concurrent updates
func (s *Session) Snapshot() (entity.InvoiceData, pricing.Pricing) {
	data := s.Data()
	return data, pricing.Resolve(s.catalog, data.ServiceSelection)
}

// Catalog returns the catalog the session prices against
func (s *Session) Catalog() *entity.Catalog {
	return s.catalog
}

// UpdateFreelancerDetails replaces the freelancer record
func (s *Session) UpdateFreelancerDetails(ctx context.Context, details entity.FreelancerDetails) entity.InvoiceData {
	return s.apply(ctx, event.SectionFreelancer, func(d entity.InvoiceData) entity.InvoiceData {
		return d.WithFreelancerDetails(details)
	})
}

// UpdateClientDetails replaces the client record
func (s *Session) UpdateClientDetails(ctx context.Context, details entity.ClientDetails) entity.InvoiceData {
	return s.apply(ctx, event.SectionClient, func(d entity.InvoiceData) entity.InvoiceData {
		return d.WithClientDetails(details)
	})
}

// UpdateInvoiceDetails replaces the invoice metadata. A due date before the
// invoice date is accepted as given.
func (s *Session) UpdateInvoiceDetails(ctx context.Context, details entity.InvoiceDetails) entity.InvoiceData {
	return s.apply(ctx, event.SectionInvoice, func(d entity.InvoiceData) entity.InvoiceData {
		return d.WithInvoiceDetails(details)
	})
}

// UpdateServiceSelection replaces the service selection. The discount is
// clamped to [0,100]; a category change always clears the package tier, and a
// tier that does not belong to the selected category is cleared too.
func (s *Session) UpdateServiceSelection(ctx context.Context, selection entity.ServiceSelection) entity.InvoiceData {
	return s.apply(ctx, event.SectionService, func(d entity.InvoiceData) entity.InvoiceData {
		return d.WithServiceSelection(NormalizeSelection(s.catalog, d.ServiceSelection, selection))
	})
}

// UpdateAdditionalInfo replaces notes and payment instructions
func (s *Session) UpdateAdditionalInfo(ctx context.Context, info entity.AdditionalInfo) entity.InvoiceData {
	return s.apply(ctx, event.SectionAdditional, func(d entity.InvoiceData) entity.InvoiceData {
		return d.WithAdditionalInfo(info)
	})
}

// BackfillDates fills an empty invoice date with today and an empty due date
// with today plus 30 days. It takes effect at most once per session; later
// calls, or calls when both dates are set, change nothing. Reports whether
// the aggregate changed.
func (s *Session) BackfillDates(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	if s.backfilled {
		s.mu.Unlock()
		return false
	}
	s.backfilled = true

	details := s.data.InvoiceDetails
	changed := false
	if details.InvoiceDate == "" {
		details.InvoiceDate = now.Format(entity.DateLayout)
		changed = true
	}
	if details.DueDate == "" {
		details.DueDate = now.AddDate(0, 0, entity.DefaultDueDays).Format(entity.DateLayout)
		changed = true
	}
	if changed {
		s.data = s.data.WithInvoiceDetails(details)
	}
	s.mu.Unlock()

	if changed {
		s.notify(ctx, event.TypeInvoiceUpdated, map[string]interface{}{
			"section":  event.SectionInvoice,
			"backfill": true,
		})
	}
	return changed
}

// TryBeginExport marks the session as exporting. It returns false when an
// export is already in flight.
func (s *Session) TryBeginExport() bool {
	return s.exporting.CompareAndSwap(false, true)
}

// EndExport clears the exporting mark
func (s *Session) EndExport() {
	s.exporting.Store(false)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

func (s *Session) apply(ctx context.Context, section string, update func(entity.InvoiceData) entity.InvoiceData) entity.InvoiceData {
	s.mu.Lock()
	s.data = update(s.data)
	result := s.data
	s.mu.Unlock()

	s.notify(ctx, event.TypeInvoiceUpdated, map[string]interface{}{"section": section})
	return result
}

func (s *Session) notify(ctx context.Context, eventType event.Type, payload map[string]interface{}) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, event.NewEvent(eventType, s.id, payload)); err != nil && s.logger != nil {
		s.logger.Error("Failed to notify session listeners",
			"session_id", s.id,
			"event_type", eventType,
			"error", err,
		)
	}
}

// NormalizeSelection applies the selection invariants against the previous
// selection: clamped discount, tier cleared on category change, tier cleared
// when it is not offered by the category.
func NormalizeSelection(catalog *entity.Catalog, previous, next entity.ServiceSelection) entity.ServiceSelection {
	next.DiscountPercentage = pricing.ClampDiscount(next.DiscountPercentage)

	if next.Category != previous.Category {
		next.PackageTier = ""
		return next
	}
	if next.PackageTier != "" {
		if _, ok := catalog.FindPackage(next.Category, next.PackageTier); !ok {
			next.PackageTier = ""
		}
	}
	return next
}
