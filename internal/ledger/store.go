// Package ledger provides access to the outstanding-invoice snapshot the
// matching engine consumes. The store is the persistence collaborator: it
// owns filtering (status, usable identifier) so the engine never has to, and
// it returns an ordered, read-only snapshot per organization.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"remittance-matching-service/internal/models"
)

// InvoiceStore supplies the candidate invoices for one matching run.
type InvoiceStore interface {
	// ListOutstanding returns the organization's invoices restricted to the
	// given statuses, excluding invoices without a usable identifier, in
	// stable insertion order. The returned slice is a snapshot owned by the
	// caller.
	ListOutstanding(ctx context.Context, organizationID string, statuses ...models.InvoiceStatus) ([]*models.Invoice, error)
}

// MemoryStore is an in-memory InvoiceStore keyed by organization. It backs
// the CLI (loaded from a ledger CSV) and tests; a database-backed store
// would satisfy the same interface.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string][]*models.Invoice
}

// NewMemoryStore creates an empty in-memory invoice store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: make(map[string][]*models.Invoice),
	}
}

// Load replaces the invoice set for an organization, preserving the order
// of the given slice.
func (s *MemoryStore) Load(organizationID string, invoices []*models.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*models.Invoice, len(invoices))
	copy(snapshot, invoices)
	s.invoices[organizationID] = snapshot
}

// Add appends a single invoice to an organization's ledger.
func (s *MemoryStore) Add(organizationID string, invoice *models.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[organizationID] = append(s.invoices[organizationID], invoice)
	return nil
}

// ListOutstanding implements InvoiceStore. When no statuses are given, the
// authorised status is assumed, matching the usual "outstanding" subset.
func (s *MemoryStore) ListOutstanding(ctx context.Context, organizationID string, statuses ...models.InvoiceStatus) ([]*models.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(statuses) == 0 {
		statuses = []models.InvoiceStatus{models.InvoiceStatusAuthorised}
	}

	allowed := make(map[models.InvoiceStatus]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Invoice
	for _, inv := range s.invoices[organizationID] {
		if strings.TrimSpace(inv.InvoiceNumber) == "" {
			continue
		}
		if !allowed[inv.Status] {
			continue
		}
		result = append(result, inv)
	}

	return result, nil
}

// Count returns the total number of invoices held for an organization,
// before any filtering.
func (s *MemoryStore) Count(organizationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invoices[organizationID])
}
