package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/propflow/lead-intake/models"
	"github.com/propflow/lead-intake/validation"
)

const (
	// MaxImportRows caps the number of data rows per upload. A file over
	// the cap is rejected outright, never truncated.
	MaxImportRows = 200

	// maxReportedRowErrors bounds the error list in the import result.
	maxReportedRowErrors = 100
)

var (
	ErrEmptyFile   = errors.New("file is empty or contains no data rows")
	ErrTooManyRows = fmt.Errorf("file exceeds the maximum of %d data rows", MaxImportRows)
	ErrInvalidCSV  = errors.New("file is not a parsable CSV")
)

// RowError collects the violations of one rejected row. Row numbers are
// 1-based and include the header line, so the first data row is row 2.
type RowError struct {
	Row    int                     `json:"row"`
	Errors []validation.FieldError `json:"errors"`
}

type ImportResult struct {
	Total     int        `json:"total"`
	Valid     int        `json:"valid"`
	Imported  int        `json:"imported"`
	Errors    []RowError `json:"errors"`
	Truncated bool       `json:"truncated"`
	Status    string     `json:"status"` // "success" or "partial"
}

type ImportService struct {
	DB *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{DB: db}
}

// normalizeLines strips blank lines, trims each line and drops a single
// trailing delimiter, tolerating common spreadsheet export artifacts.
func normalizeLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSuffix(line, ",")
		out = append(out, line)
	}
	return out
}

// parseBudget strips everything but digits, so "₹ 50,00,000" becomes
// 5000000. A cell with no digits at all is treated as absent.
func parseBudget(cell string) *int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cell)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

func splitTags(cell string) []string {
	var tags []string
	for _, t := range strings.Split(cell, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// rowToInput maps one record onto a BuyerInput using the header. Columns
// outside the known field set are dropped without error, as are blank cells.
func rowToInput(header []string, record []string) validation.BuyerInput {
	var in validation.BuyerInput
	for i, name := range header {
		if i >= len(record) {
			break
		}
		cell := strings.TrimSpace(record[i])
		if cell == "" {
			continue
		}
		switch name {
		case "fullName":
			in.FullName = cell
		case "email":
			in.Email = cell
		case "phone":
			in.Phone = cell
		case "city":
			in.City = cell
		case "propertyType":
			in.PropertyType = cell
		case "bhk":
			in.BHK = cell
		case "purpose":
			in.Purpose = cell
		case "budgetMin":
			in.BudgetMin = parseBudget(cell)
		case "budgetMax":
			in.BudgetMax = parseBudget(cell)
		case "timeline":
			in.Timeline = cell
		case "source":
			in.Source = cell
		case "notes":
			in.Notes = cell
		case "tags":
			in.Tags = splitTags(cell)
		case "status":
			in.Status = cell
		}
	}
	return in
}

// Import runs the whole pipeline: normalize, tokenize with the header row,
// coerce cells, validate each row independently, reject in-batch and
// against-store phone/email duplicates, then insert every surviving row in
// a single transaction with one creation history entry each. A failing row
// never aborts the batch; a failing transaction persists nothing.
func (s *ImportService) Import(ownerID uint, raw string) (*ImportResult, error) {
	lines := normalizeLines(raw)
	if len(lines) < 2 {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	data := records[1:]
	if len(data) > MaxImportRows {
		return nil, ErrTooManyRows
	}

	inputs := make([]validation.BuyerInput, len(data))
	rowErrors := make([][]validation.FieldError, len(data))
	for i, record := range data {
		inputs[i] = rowToInput(header, record)
		validation.Normalize(&inputs[i])
		rowErrors[i] = validation.CheckBuyer(inputs[i])
	}

	// Duplicates within the same upload: the later row loses.
	seenPhone := map[string]bool{}
	seenEmail := map[string]bool{}
	for i := range inputs {
		if p := inputs[i].Phone; p != "" {
			if seenPhone[p] {
				rowErrors[i] = append(rowErrors[i], validation.FieldError{
					Field: "phone", Message: "duplicate phone within this upload",
				})
			}
			seenPhone[p] = true
		}
		if e := inputs[i].Email; e != "" {
			if seenEmail[e] {
				rowErrors[i] = append(rowErrors[i], validation.FieldError{
					Field: "email", Message: "duplicate email within this upload",
				})
			}
			seenEmail[e] = true
		}
	}

	existingPhones, existingEmails, err := s.existingContacts(ownerID, inputs)
	if err != nil {
		return nil, err
	}
	for i := range inputs {
		if p := inputs[i].Phone; p != "" && existingPhones[p] {
			rowErrors[i] = append(rowErrors[i], validation.FieldError{
				Field: "phone", Message: "a lead with this phone already exists",
			})
		}
		if e := inputs[i].Email; e != "" && existingEmails[e] {
			rowErrors[i] = append(rowErrors[i], validation.FieldError{
				Field: "email", Message: "a lead with this email already exists",
			})
		}
	}

	result := &ImportResult{Total: len(data)}
	var toInsert []models.Buyer
	for i := range inputs {
		if len(rowErrors[i]) > 0 {
			if len(result.Errors) < maxReportedRowErrors {
				result.Errors = append(result.Errors, RowError{Row: i + 2, Errors: rowErrors[i]})
			} else {
				result.Truncated = true
			}
			continue
		}
		buyer := buyerFromInput(inputs[i])
		buyer.OwnerID = ownerID
		buyer.UpdatedAt = time.Now().Truncate(time.Millisecond)
		toInsert = append(toInsert, buyer)
	}
	result.Valid = len(toInsert)

	if len(toInsert) > 0 {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			for i := range toInsert {
				if err := tx.Create(&toInsert[i]).Error; err != nil {
					return err
				}
				history := models.BuyerHistory{
					BuyerID:   toInsert[i].ID,
					ChangedBy: ownerID,
					ChangedAt: toInsert[i].UpdatedAt,
					Diff:      DiffFromNothing(&toInsert[i]),
				}
				if err := tx.Create(&history).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			// All-or-nothing: the transaction rolled back, so the whole
			// import failed even though the rows had already validated.
			return nil, fmt.Errorf("bulk insert failed, no rows were imported: %w", err)
		}
		result.Imported = len(toInsert)
	}

	if len(result.Errors) == 0 {
		result.Status = "success"
	} else {
		result.Status = "partial"
	}
	return result, nil
}

// existingContacts looks up which of the uploaded phones/emails already
// belong to a lead owned by the same user.
func (s *ImportService) existingContacts(ownerID uint, inputs []validation.BuyerInput) (map[string]bool, map[string]bool, error) {
	var phones, emails []string
	for i := range inputs {
		if inputs[i].Phone != "" {
			phones = append(phones, inputs[i].Phone)
		}
		if inputs[i].Email != "" {
			emails = append(emails, inputs[i].Email)
		}
	}

	foundPhones := map[string]bool{}
	foundEmails := map[string]bool{}
	if len(phones) == 0 && len(emails) == 0 {
		return foundPhones, foundEmails, nil
	}

	query := s.DB.Model(&models.Buyer{}).Where("owner_id = ?", ownerID)
	switch {
	case len(phones) > 0 && len(emails) > 0:
		query = query.Where("phone IN ? OR email IN ?", phones, emails)
	case len(phones) > 0:
		query = query.Where("phone IN ?", phones)
	default:
		query = query.Where("email IN ?", emails)
	}

	var existing []models.Buyer
	if err := query.Find(&existing).Error; err != nil {
		return nil, nil, err
	}
	for i := range existing {
		if existing[i].Phone != "" {
			foundPhones[existing[i].Phone] = true
		}
		if existing[i].Email != "" {
			foundEmails[existing[i].Email] = true
		}
	}
	return foundPhones, foundEmails, nil
}
