package templates

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/SscSPs/securities_registry/internal/utils"
	"github.com/shopspring/decimal"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z][A-Za-z0-9_]*)\s*\}\}`)

// RenderResult is a substituted template body.
type RenderResult struct {
	Body       string   `json:"body"`
	Warnings   []string `json:"warnings"`
	Unresolved []string `json:"unresolved"`
}

// TemplateCheck reports on the placeholders of a template body.
type TemplateCheck struct {
	IsValid      bool     `json:"isValid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	Placeholders []string `json:"placeholders"`
}

// Placeholders returns the distinct placeholder names of body in order of first appearance.
func Placeholders(body string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(body, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// ValidateTemplate checks that body carries every required placeholder. Placeholders the
// engine does not know are reported as warnings.
func (e *Engine) ValidateTemplate(body string) TemplateCheck {
	check := TemplateCheck{Errors: []string{}, Warnings: []string{}, Placeholders: Placeholders(body)}
	present := make(map[string]bool, len(check.Placeholders))
	for _, name := range check.Placeholders {
		present[name] = true
		if !e.IsKnown(name) {
			check.Warnings = append(check.Warnings, fmt.Sprintf("unknown placeholder {{%s}}", name))
		}
	}
	for _, name := range RequiredPlaceholders {
		if !present[name] {
			check.Errors = append(check.Errors, fmt.Sprintf("required placeholder {{%s}} is missing", name))
		}
	}
	check.IsValid = len(check.Errors) == 0
	return check
}

// Render substitutes data into body. Each {{field}} is replaced with its value, formatted
// for the engine locale, or with its fallback. Unknown placeholders and required fields
// without a value are left in place and reported. Substituted values are HTML-escaped.
func (e *Engine) Render(body string, data CertificateData) RenderResult {
	res := RenderResult{Warnings: []string{}, Unresolved: []string{}}
	now := e.now()
	values := data.values()
	custom := make(map[string]string, len(data.Custom))
	for _, c := range data.Custom {
		if _, ok := e.custom[c.Name]; ok {
			custom[c.Name] = strings.TrimSpace(c.Value)
		}
	}

	unresolved := make(map[string]bool)
	res.Body = placeholderPattern.ReplaceAllStringFunc(body, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		if !e.IsKnown(name) {
			unresolved[name] = true
			return token
		}
		v, kind, ok := e.resolve(name, values, custom, now)
		if !ok {
			unresolved[name] = true
			return token
		}
		return html.EscapeString(e.format(v, kind))
	})

	for name := range unresolved {
		res.Unresolved = append(res.Unresolved, name)
	}
	sort.Strings(res.Unresolved)
	for _, name := range res.Unresolved {
		if e.IsKnown(name) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("{{%s}} has no value and no fallback", name))
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unknown placeholder {{%s}} left unresolved", name))
		}
	}
	return res
}

// format applies locale formatting to numeric and monetary values. Values that do not
// parse are returned unchanged. Money is "CCC " followed by the amount at the currency's
// minor-unit precision.
func (e *Engine) format(v string, kind Kind) string {
	switch kind {
	case KindNumber, KindAmount:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return v
		}
		var scale int32
		if d.Exponent() < 0 {
			scale = -d.Exponent()
		}
		if kind == KindAmount && scale < 2 {
			scale = 2
		}
		return e.style.format(d, scale)
	case KindMoney:
		code, amount, found := strings.Cut(v, " ")
		if !found {
			return v
		}
		d, err := decimal.NewFromString(amount)
		if err != nil || utils.LookupCurrency(code) == nil {
			return v
		}
		return code + " " + e.style.format(d, int32(utils.CurrencyFraction(code)))
	default:
		return v
	}
}
