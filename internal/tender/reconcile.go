// File path: internal/tender/reconcile.go
package tender

import (
	"github.com/GH-TeamBID/gober-api/internal/graph"
)

func firstRow(rows []graph.Row) (graph.Row, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

// Reconcile folds the named query results into one Detail. Single-valued
// sections read only the first row of their result; multi-valued sections
// (cpvs, lots) iterate every row. Sections whose query is missing or empty
// are simply absent from the aggregate, so an all-empty input yields the
// minimal aggregate without error; a present-but-malformed value aborts with
// a ConversionError and no partial Detail is returned. Detection of the
// all-empty "unknown tender" case belongs to the caller.
func Reconcile(named graph.NamedResults) (*Detail, error) {
	detail := &Detail{
		ProcurementDocuments: []ProcurementDocument{},
		Lots:                 []Lot{},
	}

	coreRow, _ := firstRow(named.RowsFor("core"))
	core, err := MapRow(coreRow, coreRules())
	if err != nil {
		return nil, err
	}
	if core["uri"] != nil {
		detail.URI = *core["uri"]
	}
	if core["title"] != nil {
		detail.Title = *core["title"]
	}
	detail.Description = core["description"]
	detail.AdditionalInformation = core["additional_information"]

	if row, ok := firstRow(named.RowsFor("identifier")); ok {
		if notation := row.Value("identifier"); notation != "" {
			detail.Identifier = &Identifier{Notation: notation}
		}
	}

	if row, ok := firstRow(named.RowsFor("contracting_entity")); ok {
		detail.Buyer = mapContractingEntity(row)
	}

	if row, ok := firstRow(named.RowsFor("monetary_values")); ok {
		if detail.EstimatedValue, err = mapMonetary(row, "baseBudgetAmount", "baseBudgetCurrency"); err != nil {
			return nil, err
		}
		if detail.NetValue, err = mapMonetary(row, "netBudgetAmount", "netBudgetCurrency"); err != nil {
			return nil, err
		}
		if detail.GrossValue, err = mapMonetary(row, "grossBudgetAmount", "grossBudgetCurrency"); err != nil {
			return nil, err
		}
	}

	detail.Purpose = mapPurpose(named.RowsFor("cpvs"))

	if row, ok := firstRow(named.RowsFor("contractual_terms_and_location")); ok {
		detail.ContractTerm = mapContractTerm(row)
	}

	if row, ok := firstRow(named.RowsFor("submission_terms")); ok {
		if detail.SubmissionTerm, err = mapSubmissionTerm(row); err != nil {
			return nil, err
		}
	}

	for _, docs := range []struct {
		name    string
		docType string
	}{
		{"legal_documents", "legal"},
		{"technical_documents", "technical"},
		{"additional_documents", "adds"},
	} {
		if row, ok := firstRow(named.RowsFor(docs.name)); ok {
			detail.ProcurementDocuments = append(detail.ProcurementDocuments, mapDocuments(row, docs.docType)...)
		}
	}

	if detail.Lots, err = mapLots(named.RowsFor("lots")); err != nil {
		return nil, err
	}

	return detail, nil
}
