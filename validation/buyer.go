package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/propflow/lead-intake/models"
)

// BuyerInput is a candidate buyer record before validation. Empty strings
// and nil budgets mean "absent". It is shared by the JSON create/update
// handlers and the CSV importer.
type BuyerInput struct {
	FullName     string
	Email        string
	Phone        string
	City         string
	PropertyType string
	BHK          string
	Purpose      string
	BudgetMin    *int
	BudgetMax    *int
	Timeline     string
	Source       string
	Status       string
	Notes        string
	Tags         []string
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

// Normalize trims whitespace, drops empty tags and applies the default
// status. It never rejects anything.
func Normalize(in *BuyerInput) {
	in.FullName = strings.TrimSpace(in.FullName)
	// Emails are stored lowercase everywhere, so duplicate checks cannot
	// be dodged by casing.
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.City = strings.TrimSpace(in.City)
	in.PropertyType = strings.TrimSpace(in.PropertyType)
	in.BHK = strings.TrimSpace(in.BHK)
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.Timeline = strings.TrimSpace(in.Timeline)
	in.Source = strings.TrimSpace(in.Source)
	in.Status = strings.TrimSpace(in.Status)
	in.Notes = strings.TrimSpace(in.Notes)

	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags

	if in.Status == "" {
		in.Status = models.StatusNew
	}
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

func isResidential(propertyType string) bool {
	return oneOf(propertyType, models.ResidentialTypes)
}

// rule is one refinement check run after the base field checks. All rules
// run; nothing short-circuits.
type rule struct {
	field   string
	message string
	ok      func(in *BuyerInput) bool
}

var refinements = []rule{
	{
		field:   "bhk",
		message: "bhk is required for Apartment and Villa",
		ok: func(in *BuyerInput) bool {
			return !isResidential(in.PropertyType) || in.BHK != ""
		},
	},
	{
		field:   "bhk",
		message: fmt.Sprintf("bhk must be one of %s", strings.Join(models.BHKOptions, ", ")),
		ok: func(in *BuyerInput) bool {
			return in.BHK == "" || oneOf(in.BHK, models.BHKOptions)
		},
	},
	{
		field:   "budgetMax",
		message: "budgetMax must be greater than or equal to budgetMin",
		ok: func(in *BuyerInput) bool {
			return in.BudgetMin == nil || in.BudgetMax == nil || *in.BudgetMax >= *in.BudgetMin
		},
	},
}

// CheckBuyer validates a normalized input and returns every violation with
// its field path. An empty result means the record is acceptable as-is.
func CheckBuyer(in BuyerInput) []FieldError {
	var errs []FieldError
	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	if n := utf8.RuneCountInString(in.FullName); n < 2 || n > 80 {
		add("fullName", "fullName must be between 2 and 80 characters")
	}
	if !phonePattern.MatchString(in.Phone) {
		add("phone", "phone must be 10 to 15 digits")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			add("email", "email must be a valid address")
		}
	}
	if !oneOf(in.City, models.Cities) {
		add("city", fmt.Sprintf("city must be one of %s", strings.Join(models.Cities, ", ")))
	}
	if !oneOf(in.PropertyType, models.PropertyTypes) {
		add("propertyType", fmt.Sprintf("propertyType must be one of %s", strings.Join(models.PropertyTypes, ", ")))
	}
	if !oneOf(in.Purpose, models.Purposes) {
		add("purpose", fmt.Sprintf("purpose must be one of %s", strings.Join(models.Purposes, ", ")))
	}
	if !oneOf(in.Timeline, models.Timelines) {
		add("timeline", fmt.Sprintf("timeline must be one of %s", strings.Join(models.Timelines, ", ")))
	}
	if !oneOf(in.Source, models.Sources) {
		add("source", fmt.Sprintf("source must be one of %s", strings.Join(models.Sources, ", ")))
	}
	if !oneOf(in.Status, models.Statuses) {
		add("status", fmt.Sprintf("status must be one of %s", strings.Join(models.Statuses, ", ")))
	}
	if utf8.RuneCountInString(in.Notes) > 1000 {
		add("notes", "notes must be at most 1000 characters")
	}

	for _, r := range refinements {
		if !r.ok(&in) {
			add(r.field, r.message)
		}
	}

	return errs
}
