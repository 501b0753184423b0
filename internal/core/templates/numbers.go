package templates

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// numberStyle holds the digits and separators of a locale. Decimals are laid out from
// their exact string form so no value passes through float64.
type numberStyle struct {
	digits    [10]string
	group     string
	decimal   string
	primary   int // size of the group next to the decimal separator, 0 for no grouping
	secondary int // size of every further group
}

// newNumberStyle learns the style of a locale by formatting sample values with x/text.
func newNumberStyle(tag language.Tag) numberStyle {
	p := message.NewPrinter(tag)
	s := numberStyle{decimal: ".", group: ","}
	for i := range s.digits {
		s.digits[i] = p.Sprintf("%v", number.Decimal(i))
	}

	// 1234567.5 shows every separator the locale uses.
	sample := []rune(p.Sprintf("%v", number.Decimal(1234567.5, number.Scale(1))))
	var (
		groups []int // digit run lengths, rightmost first
		seps   []string
		run    int
		sep    []rune
	)
	for i := len(sample) - 1; i >= 0; i-- {
		r := sample[i]
		if unicode.IsDigit(r) {
			if len(sep) > 0 {
				seps = append(seps, reverse(sep))
				sep = sep[:0]
			}
			run++
			continue
		}
		if run > 0 {
			groups = append(groups, run)
			run = 0
		}
		sep = append(sep, r)
	}
	if run > 0 {
		groups = append(groups, run)
	}
	// groups[0] is the fraction, seps[0] the decimal separator.
	if len(groups) < 2 || len(seps) < 1 {
		return s
	}
	s.decimal = seps[0]
	intGroups := groups[1:]
	if len(intGroups) < 2 || len(seps) < 2 {
		s.primary = 0
		return s
	}
	s.group = seps[1]
	s.primary = intGroups[0]
	s.secondary = s.primary
	if len(intGroups) > 2 {
		s.secondary = intGroups[1]
	}
	return s
}

func reverse(rs []rune) string {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[len(rs)-1-i] = r
	}
	return string(out)
}

// format lays out d rounded to scale fraction digits.
func (s numberStyle) format(d decimal.Decimal, scale int32) string {
	fixed := d.StringFixed(scale)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		left := len(intPart) - i
		if i > 0 && s.primary > 0 && s.isBoundary(left) {
			b.WriteString(s.group)
		}
		b.WriteString(s.digits[r-'0'])
	}
	if frac != "" {
		b.WriteString(s.decimal)
		for _, r := range frac {
			b.WriteString(s.digits[r-'0'])
		}
	}
	return b.String()
}

// isBoundary reports whether a separator goes before the digit with left digits remaining.
func (s numberStyle) isBoundary(left int) bool {
	if left == s.primary {
		return true
	}
	if left < s.primary || s.secondary == 0 {
		return false
	}
	return (left-s.primary)%s.secondary == 0
}
