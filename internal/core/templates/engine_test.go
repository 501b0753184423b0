package templates_test

import (
	"testing"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/core/templates"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var fixedNow = time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC)

func newEngine(opts ...templates.Option) *templates.Engine {
	opts = append([]templates.Option{templates.WithClock(func() time.Time { return fixedNow })}, opts...)
	return templates.NewEngine(opts...)
}

func requiredOnly() templates.CertificateData {
	return templates.CertificateData{
		EntityName:        "Acme Holdings Pty Ltd",
		MemberName:        "Jane Citizen",
		TransactionID:     "TX-2025-0001",
		TransactionDate:   "2025-01-01",
		SecurityName:      "Ordinary Shares",
		Quantity:          "1000",
		TransactionAmount: "AUD 1234.50",
		Currency:          "AUD",
	}
}

func TestValidate_OnlyEntityName(t *testing.T) {
	e := newEngine()

	res := e.Validate(templates.CertificateData{EntityName: "Acme Holdings"})

	assert.False(t, res.IsValid)
	assert.Len(t, res.MissingVariables, 7)
	assert.NotContains(t, res.MissingVariables, templates.FieldEntityName)
	assert.Equal(t, 5, res.CompletenessScore, "1 of 21 known fields")
}

func TestValidate_MissingAllRequired(t *testing.T) {
	e := newEngine()

	res := e.Validate(templates.CertificateData{})

	assert.False(t, res.IsValid)
	assert.ElementsMatch(t, templates.RequiredFields(), res.MissingVariables)
	assert.Equal(t, 0, res.CompletenessScore)
}

func TestValidate_FallbacksForOptionalFields(t *testing.T) {
	e := newEngine()

	res := e.Validate(requiredOnly())

	require.True(t, res.IsValid, "errors: %v", res.Errors)
	assert.Empty(t, res.MissingVariables)
	assert.Empty(t, res.InvalidFormats)
	assert.Len(t, res.Warnings, 13, "one warning per missing optional field")
	assert.Len(t, res.FallbackValues, 13)
	assert.Equal(t, "Entity", res.FallbackValues[templates.FieldEntityType])
	assert.Equal(t, "PENDING", res.FallbackValues[templates.FieldCertificateNumber])
	assert.Equal(t, "2025-06-30", res.FallbackValues[templates.FieldGenerationDate])
	assert.Equal(t, 38, res.CompletenessScore, "8 of 21 known fields")
}

func TestValidate_InvalidFormats(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*templates.CertificateData)
		field   string
		isValid bool
	}{
		{name: "short entity name", mutate: func(d *templates.CertificateData) { d.EntityName = "A" }, field: templates.FieldEntityName},
		{name: "lower case transaction id", mutate: func(d *templates.CertificateData) { d.TransactionID = "tx-2025-1" }, field: templates.FieldTransactionID},
		{name: "short transaction id", mutate: func(d *templates.CertificateData) { d.TransactionID = "TX1" }, field: templates.FieldTransactionID},
		{name: "date format", mutate: func(d *templates.CertificateData) { d.TransactionDate = "01/02/2025" }, field: templates.FieldTransactionDate},
		{name: "non numeric quantity", mutate: func(d *templates.CertificateData) { d.Quantity = "1,000" }, field: templates.FieldQuantity},
		{name: "amount without currency", mutate: func(d *templates.CertificateData) { d.TransactionAmount = "1234.50" }, field: templates.FieldTransactionAmount},
		{name: "lower case currency", mutate: func(d *templates.CertificateData) { d.Currency = "aud" }, field: templates.FieldCurrency},
		{name: "optional issue date", mutate: func(d *templates.CertificateData) { d.IssueDate = "June 1" }, field: templates.FieldIssueDate, isValid: true},
		{name: "optional paid amount", mutate: func(d *templates.CertificateData) { d.AmountPaidPerSecurity = "one" }, field: templates.FieldAmountPaidPerSecurity, isValid: true},
	}

	e := newEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := requiredOnly()
			tt.mutate(&data)

			res := e.Validate(data)

			assert.Equal(t, tt.isValid, res.IsValid, "errors: %v", res.Errors)
			assert.Equal(t, []string{tt.field}, res.InvalidFormats)
		})
	}
}

func TestValidate_CustomFields(t *testing.T) {
	e := newEngine(templates.WithCustomFields(
		templates.CustomFieldSpec{Name: "trancheName", Fallback: "Series A"},
		templates.CustomFieldSpec{Name: "votesPerShare", Kind: templates.KindNumber},
	))

	data := requiredOnly()
	data.Custom = []templates.CustomField{
		{Name: "votesPerShare", Value: "many"},
		{Name: "favouriteColour", Value: "green"},
	}

	res := e.Validate(data)

	assert.True(t, res.IsValid)
	assert.Contains(t, res.InvalidFormats, "votesPerShare")
	assert.Contains(t, res.Warnings, `custom field "favouriteColour" is not permitted and was ignored`)
	assert.Equal(t, "Series A", res.FallbackValues["trancheName"])
	assert.True(t, e.IsKnown("trancheName"))
	assert.False(t, e.IsKnown("favouriteColour"))
}

func TestFromTransaction(t *testing.T) {
	settled := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	issued := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	paid := decimal.RequireFromString("1.2345")
	number := "CERT2025000001"
	tx := domain.Transaction{
		ID:                    "TX-2025-0001",
		Type:                  domain.Issue,
		Quantity:              decimal.NewFromInt(1000),
		AmountPaidPerSecurity: &paid,
		CurrencyCode:          "AUD",
		SettlementDate:        &settled,
		CertificateNumber:     &number,
		CertificateIssueDate:  &issued,
	}
	subject := templates.Subject{
		Entity: domain.Entity{Name: "Acme Holdings Pty Ltd", Type: "Company"},
		Member: domain.Member{Name: "Jane Citizen", Type: domain.MemberIndividual},
		Class:  domain.SecurityClass{Name: "Ordinary Shares", Symbol: "ORD"},
	}

	data := templates.FromTransaction(tx, subject)

	assert.Equal(t, "2025-01-01", data.TransactionDate)
	assert.Equal(t, "AUD 1234.50", data.TransactionAmount)
	assert.Equal(t, "1.23", data.AmountPaidPerSecurity)
	assert.Equal(t, "2025-01-02", data.IssueDate)
	assert.Equal(t, "Individual", data.MemberType)
	assert.True(t, newEngine().Validate(data).IsValid)
}

func TestNewEngine_Locale(t *testing.T) {
	e := newEngine(templates.WithLocale(language.German))
	data := requiredOnly()
	data.Quantity = "1234.5"

	res := e.Render("{{quantity}}", data)

	assert.Equal(t, "1.234,5", res.Body)
}

func TestParseCustomFieldSpec(t *testing.T) {
	tests := []struct {
		decl    string
		want    templates.CustomFieldSpec
		wantErr bool
	}{
		{decl: "trancheName", want: templates.CustomFieldSpec{Name: "trancheName", Kind: templates.KindText}},
		{decl: " votesPerShare:number:1 ", want: templates.CustomFieldSpec{Name: "votesPerShare", Kind: templates.KindNumber, Fallback: "1"}},
		{decl: "lodged:DATE", want: templates.CustomFieldSpec{Name: "lodged", Kind: templates.KindDate}},
		{decl: "note::n/a", want: templates.CustomFieldSpec{Name: "note", Kind: templates.KindText, Fallback: "n/a"}},
		{decl: ":number", wantErr: true},
		{decl: "x:colour", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			got, err := templates.ParseCustomFieldSpec(tt.decl)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
