// Package certificates derives certificate sequence numbers from the ledger.
//
// A certificate number is prefix + four-digit year + six-digit zero-padded sequence + suffix,
// e.g. "CERT2025000001". The sequence restarts every year for every entity.
package certificates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
)

// SequenceWidth is the number of digits of the sequence part.
const SequenceWidth = 6

// MaxSequence is the largest sequence representable in SequenceWidth digits.
const MaxSequence = 999999

// Years a certificate number can carry in its four-digit year part.
const (
	MinYear = 1900
	MaxYear = 9999
)

// ErrSequenceExhausted is returned when a year's sequence has no numbers left.
var ErrSequenceExhausted = errors.New("certificate sequence exhausted for year")

// ErrYearOutOfRange is returned for a year that does not fit the four-digit year part.
var ErrYearOutOfRange = errors.New("certificate year out of range")

// Format describes how numbers are rendered for an entity.
type Format struct {
	Prefix      string
	Suffix      string
	StartNumber int // first sequence used when no certificate exists yet in the year
}

// Render formats a sequence number for a year.
func (f Format) Render(year, sequence int) (string, error) {
	if year < MinYear || year > MaxYear {
		return "", fmt.Errorf("%w: %d is outside %d..%d", ErrYearOutOfRange, year, MinYear, MaxYear)
	}
	if sequence < 1 || sequence > MaxSequence {
		return "", fmt.Errorf("%w: %d is outside 1..%d", ErrSequenceExhausted, sequence, MaxSequence)
	}
	return fmt.Sprintf("%s%04d%0*d%s", f.Prefix, year, SequenceWidth, sequence, f.Suffix), nil
}

func (f Format) start() int {
	if f.StartNumber < 1 {
		return 1
	}
	return f.StartNumber
}

// ParseSequence extracts the trailing six-digit sequence from a certificate number,
// ignoring the given suffix if present. ok is false for numbers in a foreign format.
func ParseSequence(number, suffix string) (seq int, ok bool) {
	trimmed := number
	if suffix != "" {
		trimmed = strings.TrimSuffix(trimmed, suffix)
	}
	if len(trimmed) < SequenceWidth {
		return 0, false
	}
	digits := trimmed[len(trimmed)-SequenceWidth:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IssuedInYear reports whether the transaction carries a certificate issued in year.
func IssuedInYear(tx domain.Transaction, year int) bool {
	if !tx.HasCertificate() || tx.CertificateIssueDate == nil {
		return false
	}
	return tx.CertificateIssueDate.UTC().Year() == year
}

// YearBounds returns the first and last instant of a calendar year in UTC.
func YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)
}

// State scans the ledger for the highest sequence allocated to entityID in year.
func State(log []domain.Transaction, entityID string, year int, suffix string) domain.CertificateSequenceState {
	state := domain.CertificateSequenceState{EntityID: entityID, Year: year}
	for _, tx := range log {
		if tx.EntityID != entityID || !IssuedInYear(tx, year) {
			continue
		}
		if seq, ok := ParseSequence(*tx.CertificateNumber, suffix); ok && seq > state.Highest {
			state.Highest = seq
		}
	}
	return state
}

// NextNumber returns the next certificate number for entityID in year: the highest
// sequence found in the ledger plus one, or the format's start number when there is none.
func NextNumber(log []domain.Transaction, entityID string, year int, f Format) (string, error) {
	state := State(log, entityID, year, f.Suffix)
	next := f.start()
	if state.Highest > 0 {
		next = state.Highest + 1
	}
	if next > MaxSequence {
		return "", fmt.Errorf("%w %d (entity %s)", ErrSequenceExhausted, year, entityID)
	}
	return f.Render(year, next)
}
