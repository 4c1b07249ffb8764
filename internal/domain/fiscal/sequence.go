// Package fiscal allocates document numbers: the internal invoice and order series
// and the NCF (numero de comprobante fiscal) series mandated by the tax authority.
package fiscal

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/shared"
)

// DocumentType classifies what a series numbers
type DocumentType string

const (
	DocumentInvoice DocumentType = "INVOICE" // internal sale number
	DocumentOrder   DocumentType = "ORDER"
	DocumentNCF     DocumentType = "NCF"
)

// IsValid checks if the document type is known
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentInvoice, DocumentOrder, DocumentNCF:
		return true
	}
	return false
}

// DefaultPadding is the zero padding used when a series does not set one
const DefaultPadding = 8

// Number is an allocated document number
type Number struct {
	Prefix    string
	Value     int64
	Formatted string
}

// String returns the formatted number
func (n Number) String() string {
	return n.Formatted
}

// Sequence is the counter of one series. NextValue is the value the next allocation returns.
type Sequence struct {
	shared.BaseAggregateRoot
	Prefix       string
	DocumentType DocumentType
	Description  string
	NextValue    int64
	EndValue     int64 // last issuable value, 0 for no ceiling
	Padding      int
	ExpiresAt    *time.Time
}

// NewSequence creates a series starting at 1
func NewSequence(prefix string, docType DocumentType, padding int) (*Sequence, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, shared.NewValidationError("prefix", "Series prefix cannot be empty")
	}
	if !docType.IsValid() {
		return nil, shared.NewValidationError("document_type", "Unknown document type: "+string(docType))
	}
	if padding <= 0 {
		padding = DefaultPadding
	}
	return &Sequence{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Prefix:            prefix,
		DocumentType:      docType,
		NextValue:         1,
		Padding:           padding,
	}, nil
}

// WithRange sets the authorized range end and expiry of an NCF series
func (s *Sequence) WithRange(endValue int64, expiresAt *time.Time) *Sequence {
	s.EndValue = endValue
	s.ExpiresAt = expiresAt
	return s
}

// Remaining returns how many numbers can still be issued, -1 when unbounded
func (s *Sequence) Remaining() int64 {
	if s.EndValue == 0 {
		return -1
	}
	if s.NextValue > s.EndValue {
		return 0
	}
	return s.EndValue - s.NextValue + 1
}

// Allocate issues the next number and advances the counter.
// The caller must hold the series row lock for the remainder of its transaction.
func (s *Sequence) Allocate(now time.Time) (Number, error) {
	if s.ExpiresAt != nil && !now.Before(*s.ExpiresAt) {
		return Number{}, allocationFailed(s.Prefix, "series expired")
	}
	if s.EndValue > 0 && s.NextValue > s.EndValue {
		return Number{}, allocationFailed(s.Prefix, "series range exhausted")
	}

	n := Number{
		Prefix:    s.Prefix,
		Value:     s.NextValue,
		Formatted: Format(s.Prefix, s.NextValue, s.Padding),
	}
	s.NextValue++
	s.Touch(now)
	return n, nil
}

// Format renders prefix followed by the zero-padded value
func Format(prefix string, value int64, padding int) string {
	return fmt.Sprintf("%s%0*d", prefix, padding, value)
}

func allocationFailed(prefix, reason string) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeFiscalNumberAllocationFailed,
		"Cannot allocate number for series %s: %s", prefix, reason).
		WithDetail("series", prefix)
}
