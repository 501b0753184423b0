package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// DefaultLimit is the page size used when the caller does not ask for one.
const DefaultLimit = 50

// Cursor is the keyset position of the last ledger entry of a page: its effective date and ID.
type Cursor struct {
	EffectiveDate time.Time
	TransactionID string
}

// After reports whether the entry (date, id) sorts after the cursor.
func (c Cursor) After(date time.Time, id string) bool {
	if !date.Equal(c.EffectiveDate) {
		return date.After(c.EffectiveDate)
	}
	return id > c.TransactionID
}

// EncodeToken creates a base64 encoded token from a ledger cursor.
// This is used for consistent pagination across the memory and PostgreSQL repositories.
func EncodeToken(c Cursor) string {
	tokenStr := fmt.Sprintf("%s|%s", c.EffectiveDate.UTC().Format(timeFormat), c.TransactionID)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses the base64 encoded token back into a cursor.
func DecodeToken(token string) (Cursor, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Cursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (effective date parse): %w", err)
	}
	return Cursor{EffectiveDate: date, TransactionID: parts[1]}, nil
}

// NormalizeLimit clamps a requested page size to 1..max, using DefaultLimit for zero.
func NormalizeLimit(limit, max int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}
