package templates

import (
	"fmt"
	"strings"
	"time"
)

// Field names as they appear in {{placeholders}} and in JSON data bags.
const (
	FieldEntityName              = "entityName"
	FieldEntityType              = "entityType"
	FieldEntityAddress           = "entityAddress"
	FieldRegistrationNumber      = "registrationNumber"
	FieldMemberName              = "memberName"
	FieldMemberType              = "memberType"
	FieldMemberAddress           = "memberAddress"
	FieldTransactionID           = "transactionId"
	FieldTransactionType         = "transactionType"
	FieldTransactionDate         = "transactionDate"
	FieldSecurityName            = "securityName"
	FieldSecuritySymbol          = "securitySymbol"
	FieldQuantity                = "quantity"
	FieldTransactionAmount       = "transactionAmount"
	FieldCurrency                = "currency"
	FieldAmountPaidPerSecurity   = "amountPaidPerSecurity"
	FieldAmountUnpaidPerSecurity = "amountUnpaidPerSecurity"
	FieldCertificateNumber       = "certificateNumber"
	FieldIssueDate               = "issueDate"
	FieldGenerationDate          = "generationDate"
	FieldReference               = "reference"
)

const dateLayout = "2006-01-02"

// Kind selects the format rule and the display formatting of a field.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindNumber // quantities, grouped per locale
	KindAmount // per-security amounts, at least two decimals
	KindMoney  // "CCC 0.00"
	KindCurrencyCode
)

func (k Kind) rule() string {
	switch k {
	case KindDate:
		return "datetime=" + dateLayout
	case KindNumber, KindAmount:
		return "numeric"
	case KindMoney:
		return "money"
	case KindCurrencyCode:
		return "len=3,alpha,uppercase"
	default:
		return "max=500"
	}
}

type field struct {
	name     string
	required bool
	kind     Kind
	rule     string // validator tag, overrides kind.rule()
	fallback func(now time.Time) string
}

func (f field) tag() string {
	if f.rule != "" {
		return f.rule
	}
	return f.kind.rule()
}

func static(v string) func(time.Time) string {
	return func(time.Time) string { return v }
}

func today(now time.Time) string {
	return now.Format(dateLayout)
}

// knownFields is the closed set of built-in fields, required first.
var knownFields = []field{
	{name: FieldEntityName, required: true, rule: "min=2,max=200"},
	{name: FieldMemberName, required: true, rule: "min=2,max=200"},
	{name: FieldTransactionID, required: true, rule: "min=5,max=50,txnid"},
	{name: FieldTransactionDate, required: true, kind: KindDate},
	{name: FieldSecurityName, required: true, rule: "min=1,max=200"},
	{name: FieldQuantity, required: true, kind: KindNumber},
	{name: FieldTransactionAmount, required: true, kind: KindMoney},
	{name: FieldCurrency, required: true, kind: KindCurrencyCode},

	{name: FieldEntityType, fallback: static("Entity")},
	{name: FieldEntityAddress, fallback: static("Not provided")},
	{name: FieldRegistrationNumber, fallback: static("Not provided")},
	{name: FieldMemberType, fallback: static("Individual")},
	{name: FieldMemberAddress, fallback: static("Not provided")},
	{name: FieldTransactionType, fallback: static("Not specified")},
	{name: FieldSecuritySymbol, fallback: static("N/A")},
	{name: FieldAmountPaidPerSecurity, kind: KindAmount, fallback: static("0.00")},
	{name: FieldAmountUnpaidPerSecurity, kind: KindAmount, fallback: static("0.00")},
	{name: FieldCertificateNumber, fallback: static("PENDING")},
	{name: FieldIssueDate, kind: KindDate, fallback: today},
	{name: FieldGenerationDate, kind: KindDate, fallback: today},
	{name: FieldReference, fallback: static("Not provided")},
}

var knownIndex = func() map[string]field {
	m := make(map[string]field, len(knownFields))
	for _, f := range knownFields {
		m[f.name] = f
	}
	return m
}()

// RequiredFields returns the names of the fields a data bag must supply.
func RequiredFields() []string {
	var names []string
	for _, f := range knownFields {
		if f.required {
			names = append(names, f.name)
		}
	}
	return names
}

// RequiredPlaceholders must appear in every certificate template body.
var RequiredPlaceholders = []string{
	FieldEntityName,
	FieldMemberName,
	FieldSecurityName,
	FieldQuantity,
	FieldCertificateNumber,
	FieldIssueDate,
}

// CustomFieldSpec declares a custom field an engine accepts in addition to the built-in ones.
type CustomFieldSpec struct {
	Name     string
	Kind     Kind
	Fallback string
}

// CustomField is a typed extension value carried by CertificateData.
type CustomField struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// CertificateData is the data bag rendered into a certificate template.
type CertificateData struct {
	EntityName              string        `json:"entityName"`
	EntityType              string        `json:"entityType,omitempty"`
	EntityAddress           string        `json:"entityAddress,omitempty"`
	RegistrationNumber      string        `json:"registrationNumber,omitempty"`
	MemberName              string        `json:"memberName"`
	MemberType              string        `json:"memberType,omitempty"`
	MemberAddress           string        `json:"memberAddress,omitempty"`
	TransactionID           string        `json:"transactionId"`
	TransactionType         string        `json:"transactionType,omitempty"`
	TransactionDate         string        `json:"transactionDate"`
	SecurityName            string        `json:"securityName"`
	SecuritySymbol          string        `json:"securitySymbol,omitempty"`
	Quantity                string        `json:"quantity"`
	TransactionAmount       string        `json:"transactionAmount"`
	Currency                string        `json:"currency"`
	AmountPaidPerSecurity   string        `json:"amountPaidPerSecurity,omitempty"`
	AmountUnpaidPerSecurity string        `json:"amountUnpaidPerSecurity,omitempty"`
	CertificateNumber       string        `json:"certificateNumber,omitempty"`
	IssueDate               string        `json:"issueDate,omitempty"`
	GenerationDate          string        `json:"generationDate,omitempty"`
	Reference               string        `json:"reference,omitempty"`
	Custom                  []CustomField `json:"custom,omitempty"`
}

// values maps every built-in field name to its trimmed value.
func (d CertificateData) values() map[string]string {
	m := map[string]string{
		FieldEntityName:              d.EntityName,
		FieldEntityType:              d.EntityType,
		FieldEntityAddress:           d.EntityAddress,
		FieldRegistrationNumber:      d.RegistrationNumber,
		FieldMemberName:              d.MemberName,
		FieldMemberType:              d.MemberType,
		FieldMemberAddress:           d.MemberAddress,
		FieldTransactionID:           d.TransactionID,
		FieldTransactionType:         d.TransactionType,
		FieldTransactionDate:         d.TransactionDate,
		FieldSecurityName:            d.SecurityName,
		FieldSecuritySymbol:          d.SecuritySymbol,
		FieldQuantity:                d.Quantity,
		FieldTransactionAmount:       d.TransactionAmount,
		FieldCurrency:                d.Currency,
		FieldAmountPaidPerSecurity:   d.AmountPaidPerSecurity,
		FieldAmountUnpaidPerSecurity: d.AmountUnpaidPerSecurity,
		FieldCertificateNumber:       d.CertificateNumber,
		FieldIssueDate:               d.IssueDate,
		FieldGenerationDate:          d.GenerationDate,
		FieldReference:               d.Reference,
	}
	for k, v := range m {
		m[k] = strings.TrimSpace(v)
	}
	return m
}

var kindNames = map[string]Kind{
	"text":     KindText,
	"date":     KindDate,
	"number":   KindNumber,
	"amount":   KindAmount,
	"money":    KindMoney,
	"currency": KindCurrencyCode,
}

// ParseCustomFieldSpec reads a "name[:kind[:fallback]]" declaration, e.g. "votesPerShare:number:1".
// The kind defaults to text.
func ParseCustomFieldSpec(decl string) (CustomFieldSpec, error) {
	parts := strings.SplitN(strings.TrimSpace(decl), ":", 3)
	spec := CustomFieldSpec{Name: strings.TrimSpace(parts[0]), Kind: KindText}
	if spec.Name == "" {
		return CustomFieldSpec{}, fmt.Errorf("custom field declaration %q has no name", decl)
	}
	if len(parts) > 1 && parts[1] != "" {
		kind, ok := kindNames[strings.ToLower(strings.TrimSpace(parts[1]))]
		if !ok {
			return CustomFieldSpec{}, fmt.Errorf("custom field %q has unknown kind %q", spec.Name, parts[1])
		}
		spec.Kind = kind
	}
	if len(parts) > 2 {
		spec.Fallback = parts[2]
	}
	return spec, nil
}
