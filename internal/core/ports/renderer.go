package ports

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SscSPs/securities_registry/internal/utils"
)

// PageOptions controls how a rendered HTML document is laid out on paper.
type PageOptions struct {
	Format          string  `json:"format"`       // Paper size name, e.g. "A4"
	MarginTop       float64 `json:"marginTop"`    // Inches
	MarginRight     float64 `json:"marginRight"`  // Inches
	MarginBottom    float64 `json:"marginBottom"` // Inches
	MarginLeft      float64 `json:"marginLeft"`   // Inches
	PrintBackground bool    `json:"printBackground"`
}

// DefaultPageOptions is A4 with half-inch margins and backgrounds printed.
func DefaultPageOptions() PageOptions {
	return PageOptions{Format: "A4", MarginTop: 0.5, MarginRight: 0.5, MarginBottom: 0.5, MarginLeft: 0.5, PrintBackground: true}
}

// CacheKey is a stable textual form of the options, used in render cache keys.
func (o PageOptions) CacheKey() string {
	return fmt.Sprintf("%s|%g|%g|%g|%g|%t", o.Format, o.MarginTop, o.MarginRight, o.MarginBottom, o.MarginLeft, o.PrintBackground)
}

// DocumentRenderer converts rendered certificate markup into a binary document.
// Implementations must honour ctx cancellation and report failures as *apperrors.RenderingError.
type DocumentRenderer interface {
	Render(ctx context.Context, html string, opts PageOptions) ([]byte, error)
}

// DocumentKey are all the inputs that change a rendered document.
type DocumentKey struct {
	TransactionID   string
	TemplateID      string
	TemplateVersion int
	Options         PageOptions
	DataFingerprint string // hash of the substituted markup
}

// String derives the cache key for a document.
func (k DocumentKey) String() string {
	return utils.Fingerprint(
		k.TransactionID,
		k.TemplateID,
		strconv.Itoa(k.TemplateVersion),
		k.Options.CacheKey(),
		k.DataFingerprint,
	)
}

// DocumentCache keeps rendered documents by key. Implementations must be safe for concurrent use.
type DocumentCache interface {
	Get(key string) ([]byte, bool)
	Add(key string, doc []byte)
}
