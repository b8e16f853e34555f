// File path: internal/tender/mappers.go
package tender

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/graph"
)

// receiptDeadlineLayout matches the store's xsd:dateTime serialization with
// fractional seconds and a literal Z suffix.
const receiptDeadlineLayout = "2006-01-02T15:04:05.999999Z"

// lotCurrency is assumed for lot values: the lots query exposes no currency
// variable and every observed lot is Euro-denominated.
const lotCurrency = "EUR"

// multiValueSeparator joins GROUP_CONCAT'ed document fields.
const multiValueSeparator = "||"

func parseAmount(field, raw string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ConversionError{Field: field, Value: raw, Err: errors.New("not a number")}
	}
	return amount, nil
}

// mapContractingEntity builds the buyer organization from the
// contracting_entity row. A missing legal name makes the buyer absent
// entirely, regardless of how many other fields are present.
func mapContractingEntity(row graph.Row) *Organization {
	orgID := lastSegment(row.Value("buyer"), "-")
	orgName := row.Value("orgName")
	if orgID == "" || orgName == "" {
		return nil
	}
	org := &Organization{
		ID:           orgID,
		LegalName:    orgName,
		BuyerProfile: optional(row.Value("orgBuyerProfile")),
	}
	if tax := row.Value("taxIdCode"); tax != "" {
		org.TaxIdentifier = &Identifier{Notation: tax}
	}
	if legal := row.Value("legalIdCode"); legal != "" {
		org.LegalIdentifier = &Identifier{Notation: legal}
	}
	org.Address = &Address{
		Country:      optional(row.Value("partyCountryCode")),
		NutsCode:     optional(row.Value("partyNutsCode")),
		AddressArea:  optional(row.Value("country")),
		AdminUnit:    optional(row.Value("province")),
		PostCode:     optional(row.Value("postCode")),
		PostName:     optional(row.Value("postName")),
		Thoroughfare: optional(row.Value("thoroughfare")),
	}
	return org
}

// mapMonetary reads one amount/currency variable pair off the row. The value
// is absent unless both variables are bound; a bound but non-numeric amount
// is a ConversionError, never a silent default.
func mapMonetary(row graph.Row, amountVar, currencyVar string) (*MonetaryValue, error) {
	rawAmount := row.Value(amountVar)
	currency := row.Value(currencyVar)
	if rawAmount == "" || currency == "" {
		return nil, nil
	}
	amount, err := parseAmount(amountVar, rawAmount)
	if err != nil {
		return nil, err
	}
	return &MonetaryValue{Amount: amount, Currency: currency}, nil
}

// mapPurpose collects every classification row's CPV code, in row order,
// duplicates allowed. No rows with a bound cpv means no purpose at all.
func mapPurpose(rows []graph.Row) *Purpose {
	var codes []string
	for _, row := range rows {
		if cpv := row.Value("cpv"); cpv != "" {
			codes = append(codes, lastSegment(cpv, "/"))
		}
	}
	if len(codes) == 0 {
		return nil
	}
	return &Purpose{MainClassifications: codes, AdditionalClassifications: []string{}}
}

// mapContractTerm reads the contract nature and place of performance. The
// nature type is required within the row; without it the term is absent.
func mapContractTerm(row graph.Row) *ContractTerm {
	natureType := row.Value("contractType")
	if natureType == "" {
		return nil
	}
	term := &ContractTerm{ContractNatureType: lastSegment(natureType, "/")}
	if sub := row.Value("contractSubType"); sub != "" {
		converted := lastSegment(sub, "/")
		term.AdditionalContractNature = &converted
	}
	location := &Location{}
	if code := row.Value("contractCountryCode"); code != "" {
		converted := lastSegment(code, "/")
		location.CountryCode = &converted
	}
	var nuts *string
	if code := row.Value("contractNutsCode"); code != "" {
		converted := lastSegment(code, "/")
		nuts = &converted
	}
	location.NutsCode = nuts
	location.Address = &Address{
		Country:      optional(row.Value("country")),
		NutsCode:     nuts,
		AdminUnit:    optional(row.Value("province")),
		PostCode:     optional(row.Value("postCode")),
		PostName:     optional(row.Value("postName")),
		Thoroughfare: optional(row.Value("thoroughfare")),
	}
	term.PlaceOfPerformance = location
	return term
}

// mapSubmissionTerm parses the receipt deadline. A missing deadline makes
// the term absent; a present but unparseable one is a ConversionError.
func mapSubmissionTerm(row graph.Row) (*SubmissionTerm, error) {
	raw := row.Value("submissionDeadline")
	if raw == "" {
		return nil, nil
	}
	deadline, err := time.Parse(receiptDeadlineLayout, raw)
	if err != nil {
		return nil, &ConversionError{Field: "submissionDeadline", Value: raw, Err: err}
	}
	return &SubmissionTerm{
		ReceiptDeadline: deadline,
		Language:        optional(row.Value("submissionLanguage")),
	}, nil
}

// mapLots builds the lot list. Procedures with fewer than two lot rows are
// treated as not divided into lots; rows missing either the lot URI or the
// title are skipped, not errors.
func mapLots(rows []graph.Row) ([]Lot, error) {
	if len(rows) <= 1 {
		return []Lot{}, nil
	}
	lots := make([]Lot, 0, len(rows))
	for _, row := range rows {
		lotURI := row.Value("lot")
		title := row.Value("lotTitle")
		if lotURI == "" || title == "" {
			continue
		}
		lot := Lot{
			ID:          lastSegment(lotURI, "/"),
			Title:       title,
			Description: optional(row.Value("lotDesc")),
		}
		var err error
		if lot.EstimatedValue, err = lotValue(row, "lotEstimated"); err != nil {
			return nil, err
		}
		if lot.GrossValue, err = lotValue(row, "lotGross"); err != nil {
			return nil, err
		}
		if lot.NetValue, err = lotValue(row, "lotNet"); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

func lotValue(row graph.Row, amountVar string) (*MonetaryValue, error) {
	raw := row.Value(amountVar)
	if raw == "" {
		return nil, nil
	}
	amount, err := parseAmount(amountVar, raw)
	if err != nil {
		return nil, err
	}
	return &MonetaryValue{Amount: amount, Currency: lotCurrency}, nil
}

// mapDocuments handles both row shapes of the document queries: plain scalar
// title/URL variables, and the GROUP_CONCAT aggregation whose fields are
// "||"-joined parallel lists. Mismatched list lengths degrade to an empty
// list with a log line; documents are additive and never abort the
// reconciliation.
func mapDocuments(row graph.Row, docType string) []ProcurementDocument {
	titleVar := fmt.Sprintf("ID_%s", docType)
	urlVar := fmt.Sprintf("urlAcceso_%s", docType)

	if rowContains(row, multiValueSeparator) {
		titles := strings.Split(row.Value(titleVar), multiValueSeparator)
		urls := strings.Split(row.Value(urlVar), multiValueSeparator)
		if len(titles) != len(urls) {
			common.Logger().Error("tender: document titles and access URLs have different lengths",
				"document_type", docType, "titles", len(titles), "urls", len(urls))
			return []ProcurementDocument{}
		}
		docs := make([]ProcurementDocument, 0, len(titles))
		for i := range titles {
			docs = append(docs, ProcurementDocument{
				Title:        titles[i],
				DocumentType: docType,
				AccessURL:    urls[i],
			})
		}
		return docs
	}

	title := row.Value(titleVar)
	url := row.Value(urlVar)
	if title == "" || url == "" {
		return []ProcurementDocument{}
	}
	return []ProcurementDocument{{Title: title, DocumentType: docType, AccessURL: url}}
}

// rowContains reports whether any bound value in the row contains the token.
// GROUP_CONCAT rows are the only place the separator occurs in practice.
func rowContains(row graph.Row, token string) bool {
	for _, binding := range row {
		if strings.Contains(binding.Value, token) {
			return true
		}
	}
	return false
}
