package services

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/propflow/lead-intake/models"
)

// ExportColumns is the fixed column order of the CSV export. The importer
// accepts the same header names.
var ExportColumns = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "notes", "tags", "status",
}

func intPtrString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func exportRow(b *models.Buyer) []string {
	return []string{
		b.FullName,
		b.Email,
		b.Phone,
		b.City,
		b.PropertyType,
		b.BHK,
		b.Purpose,
		intPtrString(b.BudgetMin),
		intPtrString(b.BudgetMax),
		b.Timeline,
		b.Source,
		b.Notes,
		strings.Join(b.Tags, ","),
		b.Status,
	}
}

// Export streams every buyer matching the filter as CSV, using the same
// predicate and sort as the listing endpoint but without pagination.
func (s *BuyerService) Export(w io.Writer, f BuyerFilter) error {
	f.normalize()

	var buyers []models.Buyer
	if err := f.apply(s.DB.Model(&models.Buyer{})).
		Order(f.orderClause()).
		Find(&buyers).Error; err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for i := range buyers {
		if err := cw.Write(exportRow(&buyers[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
