// File path: internal/tender/types.go
package tender

import (
	"strings"
	"time"
)

// Identifier wraps a structured notation code (expediente id, tax id, ...).
type Identifier struct {
	Notation string `json:"notation"`
}

// MonetaryValue pairs an amount with its ISO currency code.
type MonetaryValue struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Address is the locn-style postal address block shared by buyers and
// places of performance. Every field is independently optional.
type Address struct {
	Country      *string `json:"country,omitempty"`
	NutsCode     *string `json:"nuts_code,omitempty"`
	AddressArea  *string `json:"address_area,omitempty"`
	AdminUnit    *string `json:"admin_unit,omitempty"`
	PostCode     *string `json:"post_code,omitempty"`
	PostName     *string `json:"post_name,omitempty"`
	Thoroughfare *string `json:"thoroughfare,omitempty"`
}

// Organization describes the contracting entity. LegalName gates the whole
// object: without it the buyer is absent entirely, never partially filled.
type Organization struct {
	ID              string      `json:"id"`
	LegalName       string      `json:"legal_name"`
	BuyerProfile    *string     `json:"buyer_profile,omitempty"`
	TaxIdentifier   *Identifier `json:"tax_identifier,omitempty"`
	LegalIdentifier *Identifier `json:"legal_identifier,omitempty"`
	Address         *Address    `json:"address,omitempty"`
}

// Purpose carries the CPV classification codes attached to a procedure.
type Purpose struct {
	MainClassifications       []string `json:"main_classifications"`
	AdditionalClassifications []string `json:"additional_classifications"`
}

// Location is a place of performance: coded country/NUTS plus the full
// address block.
type Location struct {
	CountryCode *string  `json:"country_code,omitempty"`
	NutsCode    *string  `json:"nuts_code,omitempty"`
	Address     *Address `json:"address,omitempty"`
}

// ContractTerm captures the contract nature and where it will be performed.
type ContractTerm struct {
	ContractNatureType       string    `json:"contract_nature_type"`
	AdditionalContractNature *string   `json:"additional_contract_nature,omitempty"`
	PlaceOfPerformance       *Location `json:"place_of_performance,omitempty"`
}

// SubmissionTerm holds the tender submission deadline and language.
type SubmissionTerm struct {
	ReceiptDeadline time.Time `json:"receipt_deadline"`
	Language        *string   `json:"language,omitempty"`
}

// ProcurementDocument is one legal/technical/additional document reference.
type ProcurementDocument struct {
	Title        string `json:"title"`
	DocumentType string `json:"document_type"`
	AccessURL    string `json:"access_url"`
}

// Lot is one lot of a procedure divided into lots.
type Lot struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    *string        `json:"description,omitempty"`
	EstimatedValue *MonetaryValue `json:"estimated_value,omitempty"`
	GrossValue     *MonetaryValue `json:"gross_value,omitempty"`
	NetValue       *MonetaryValue `json:"net_value,omitempty"`
}

// Detail is the read-time projection of one tender assembled from the named
// graph queries. It is constructed fresh per request and never mutated after
// reconciliation; Summary, URLDocument and Status stay unset here and are
// merged in later from the relational store.
type Detail struct {
	URI                   string                `json:"uri"`
	Identifier            *Identifier           `json:"identifier,omitempty"`
	Title                 string                `json:"title"`
	Description           *string               `json:"description,omitempty"`
	AdditionalInformation *string               `json:"additional_information,omitempty"`
	EstimatedValue        *MonetaryValue        `json:"estimated_value,omitempty"`
	NetValue              *MonetaryValue        `json:"net_value,omitempty"`
	GrossValue            *MonetaryValue        `json:"gross_value,omitempty"`
	Buyer                 *Organization         `json:"buyer,omitempty"`
	Purpose               *Purpose              `json:"purpose,omitempty"`
	ContractTerm          *ContractTerm         `json:"contract_term,omitempty"`
	SubmissionTerm        *SubmissionTerm       `json:"submission_term,omitempty"`
	ProcurementDocuments  []ProcurementDocument `json:"procurement_documents"`
	Lots                  []Lot                 `json:"lots"`

	Summary     *string `json:"summary,omitempty"`
	URLDocument *string `json:"url_document,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// lastSegment returns the substring after the final occurrence of sep, or
// the whole string when sep is absent.
func lastSegment(s, sep string) string {
	if idx := strings.LastIndex(s, sep); idx >= 0 {
		return s[idx+len(sep):]
	}
	return s
}

// optional returns a pointer to s, or nil for the empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
