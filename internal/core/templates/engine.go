// Package templates validates certificate data bags and substitutes them into template bodies.
package templates

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

var (
	txnIDPattern = regexp.MustCompile(`^[A-Z0-9\-_]+$`)
	moneyPattern = regexp.MustCompile(`^[A-Z]{3} [0-9]+\.[0-9]{2}$`)
)

// ValidationResult reports on a certificate data bag. The engine never fails on bad data;
// everything is surfaced here.
type ValidationResult struct {
	IsValid           bool              `json:"isValid"`
	Errors            []string          `json:"errors"`
	Warnings          []string          `json:"warnings"`
	CompletenessScore int               `json:"completenessScore"`
	MissingVariables  []string          `json:"missingVariables"`
	InvalidFormats    []string          `json:"invalidFormats"`
	FallbackValues    map[string]string `json:"fallbackValues"`
}

// Engine validates and renders certificate data. It is safe for concurrent use.
type Engine struct {
	validate *validator.Validate
	locale   language.Tag
	style    numberStyle
	now      func() time.Time
	custom   map[string]CustomFieldSpec
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocale sets the locale used to format numbers when rendering.
func WithLocale(tag language.Tag) Option {
	return func(e *Engine) { e.locale = tag }
}

// WithClock overrides the clock used for date fallbacks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCustomFields permits extra placeholders beyond the built-in set.
func WithCustomFields(specs ...CustomFieldSpec) Option {
	return func(e *Engine) {
		for _, s := range specs {
			if _, builtin := knownIndex[s.Name]; builtin || s.Name == "" {
				continue
			}
			e.custom[s.Name] = s
		}
	}
}

// NewEngine creates an engine with the built-in field rules registered.
func NewEngine(opts ...Option) *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("txnid", func(fl validator.FieldLevel) bool {
		return txnIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		return moneyPattern.MatchString(fl.Field().String())
	})

	e := &Engine{
		validate: v,
		locale:   language.English,
		now:      time.Now,
		custom:   make(map[string]CustomFieldSpec),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.style = newNumberStyle(e.locale)
	return e
}

// IsKnown reports whether name is a built-in or permitted custom field.
func (e *Engine) IsKnown(name string) bool {
	if _, ok := knownIndex[name]; ok {
		return true
	}
	_, ok := e.custom[name]
	return ok
}

// Validate checks a data bag against the field rules.
//
// A missing required field is an error listed in MissingVariables. A missing optional field is
// a warning and its fallback goes to FallbackValues. A malformed value is listed in
// InvalidFormats; it is an error for required fields and a warning for optional ones.
func (e *Engine) Validate(data CertificateData) ValidationResult {
	res := ValidationResult{
		Errors:           []string{},
		Warnings:         []string{},
		MissingVariables: []string{},
		InvalidFormats:   []string{},
		FallbackValues:   map[string]string{},
	}
	now := e.now()
	values := data.values()

	supplied := 0
	for _, f := range knownFields {
		v := values[f.name]
		if v == "" {
			if f.required {
				res.MissingVariables = append(res.MissingVariables, f.name)
				res.Errors = append(res.Errors, fmt.Sprintf("%s is required", f.name))
				continue
			}
			fb := f.fallback(now)
			res.FallbackValues[f.name] = fb
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s not provided, using fallback %q", f.name, fb))
			continue
		}
		supplied++
		if rule, ok := e.check(v, f.tag()); !ok {
			res.InvalidFormats = append(res.InvalidFormats, f.name)
			msg := fmt.Sprintf("%s has an invalid format (%s)", f.name, rule)
			if f.required {
				res.Errors = append(res.Errors, msg)
			} else {
				res.Warnings = append(res.Warnings, msg)
			}
		}
	}

	e.validateCustom(data.Custom, &res)

	res.CompletenessScore = int(math.Round(100 * float64(supplied) / float64(len(knownFields))))
	res.IsValid = len(res.Errors) == 0
	return res
}

func (e *Engine) validateCustom(custom []CustomField, res *ValidationResult) {
	seen := make(map[string]bool, len(custom))
	for _, c := range custom {
		spec, ok := e.custom[c.Name]
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("custom field %q is not permitted and was ignored", c.Name))
			continue
		}
		seen[c.Name] = true
		v := strings.TrimSpace(c.Value)
		if v == "" {
			continue
		}
		if rule, ok := e.check(v, spec.Kind.rule()); !ok {
			res.InvalidFormats = append(res.InvalidFormats, c.Name)
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s has an invalid format (%s)", c.Name, rule))
		}
	}
	names := make([]string, 0, len(e.custom))
	for name := range e.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if seen[name] {
			continue
		}
		if fb := e.custom[name].Fallback; fb != "" {
			res.FallbackValues[name] = fb
		}
	}
}

// check runs a validator tag against a value and returns the failing rule, if any.
func (e *Engine) check(value, tag string) (string, bool) {
	err := e.validate.Var(value, tag)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		rule := verrs[0].Tag()
		if p := verrs[0].Param(); p != "" {
			rule += "=" + p
		}
		return rule, false
	}
	return tag, false
}

// resolve returns the value to substitute for name, its fallback when absent,
// and whether anything could be resolved at all.
func (e *Engine) resolve(name string, values map[string]string, custom map[string]string, now time.Time) (string, Kind, bool) {
	if f, ok := knownIndex[name]; ok {
		if v := values[name]; v != "" {
			return v, f.kind, true
		}
		if f.fallback != nil {
			return f.fallback(now), KindText, true
		}
		return "", f.kind, false
	}
	if spec, ok := e.custom[name]; ok {
		if v := custom[name]; v != "" {
			return v, spec.Kind, true
		}
		return spec.Fallback, KindText, spec.Fallback != ""
	}
	return "", KindText, false
}
