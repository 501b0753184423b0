package templates_test

import (
	"testing"

	"github.com/SscSPs/securities_registry/internal/core/templates"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

const certificateBody = `<h1>{{entityName}}</h1>
<p>Certificate {{ certificateNumber }} issued {{issueDate}}</p>
<p>{{memberName}} holds {{quantity}} {{securityName}}</p>`

func TestValidateTemplate(t *testing.T) {
	e := newEngine()

	check := e.ValidateTemplate(certificateBody)
	assert.True(t, check.IsValid, "errors: %v", check.Errors)
	assert.Empty(t, check.Warnings)
	assert.Equal(t, []string{"entityName", "certificateNumber", "issueDate", "memberName", "quantity", "securityName"}, check.Placeholders)

	check = e.ValidateTemplate("<p>{{memberName}} owes {{amountOwing}}</p>")
	assert.False(t, check.IsValid)
	assert.Len(t, check.Errors, 5)
	assert.Equal(t, []string{"unknown placeholder {{amountOwing}}"}, check.Warnings)
}

func TestRender_SubstitutesAndFormats(t *testing.T) {
	e := newEngine()
	data := requiredOnly()
	data.MemberName = "Jane <Citizen> & Co"

	res := e.Render(certificateBody+"\n{{transactionAmount}} {{entityType}} {{generationDate}}", data)

	assert.Contains(t, res.Body, "<h1>Acme Holdings Pty Ltd</h1>")
	assert.Contains(t, res.Body, "Certificate PENDING issued 2025-06-30")
	assert.Contains(t, res.Body, "Jane &lt;Citizen&gt; &amp; Co holds 1,000 Ordinary Shares")
	assert.Contains(t, res.Body, "AUD 1,234.50 Entity 2025-06-30")
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Unresolved)
}

func TestRender_LeavesUnknownPlaceholders(t *testing.T) {
	e := newEngine()
	data := requiredOnly()
	data.SecurityName = ""

	res := e.Render("{{memberName}} {{signatory}} {{securityName}} {{signatory}}", data)

	assert.Equal(t, "Jane Citizen {{signatory}} {{securityName}} {{signatory}}", res.Body)
	assert.Equal(t, []string{"securityName", "signatory"}, res.Unresolved)
	assert.Equal(t, []string{
		"{{securityName}} has no value and no fallback",
		"unknown placeholder {{signatory}} left unresolved",
	}, res.Warnings)
}

func TestRender_CustomFields(t *testing.T) {
	e := newEngine(templates.WithCustomFields(
		templates.CustomFieldSpec{Name: "trancheName", Fallback: "Series A"},
		templates.CustomFieldSpec{Name: "votesPerShare", Kind: templates.KindNumber},
	))
	data := requiredOnly()
	data.Custom = []templates.CustomField{
		{Name: "votesPerShare", Value: "10000"},
		{Name: "favouriteColour", Value: "green"},
	}

	res := e.Render("{{trancheName}}|{{votesPerShare}}|{{favouriteColour}}", data)

	assert.Equal(t, "Series A|10,000|{{favouriteColour}}", res.Body)
	assert.Equal(t, []string{"favouriteColour"}, res.Unresolved)
}

func TestRender_KeepsLargeValuesExact(t *testing.T) {
	e := newEngine()
	data := requiredOnly()
	data.Quantity = "123456789012345678"
	data.AmountPaidPerSecurity = "0.123456789012345678"
	data.TransactionAmount = "AUD 98765432109876543.21"

	res := e.Render("{{quantity}}|{{amountPaidPerSecurity}}|{{transactionAmount}}", data)

	assert.Equal(t, "123,456,789,012,345,678|0.123456789012345678|AUD 98,765,432,109,876,543.21", res.Body)
}

func TestRender_MoneyFollowsLocale(t *testing.T) {
	tests := []struct {
		name   string
		locale language.Tag
		amount string
		want   string
	}{
		{name: "english", locale: language.English, amount: "AUD 1234.50", want: "1,000|AUD 1,234.50"},
		{name: "german", locale: language.German, amount: "AUD 1234.50", want: "1.000|AUD 1.234,50"},
		{name: "currency without minor units", locale: language.English, amount: "JPY 1234.50", want: "1,000|JPY 1,235"},
		{name: "negative", locale: language.English, amount: "AUD -1234.50", want: "1,000|AUD -1,234.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(templates.WithLocale(tt.locale))
			data := requiredOnly()
			data.TransactionAmount = tt.amount

			res := e.Render("{{quantity}}|{{transactionAmount}}", data)

			assert.Equal(t, tt.want, res.Body)
		})
	}
}
