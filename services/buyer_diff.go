package services

import (
	"sort"

	"github.com/propflow/lead-intake/models"
)

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrValue(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// tagsEqual ignores insertion order; reordering tags is not a change.
func tagsEqual(a, b models.StringList) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// DiffBuyers compares every updatable field of two buyer records over an
// explicit field list and returns only the fields whose value differs.
func DiffBuyers(old, updated *models.Buyer) models.DiffMap {
	diff := models.DiffMap{}
	str := func(field, from, to string) {
		if from != to {
			diff[field] = models.FieldChange{From: from, To: to}
		}
	}

	str("fullName", old.FullName, updated.FullName)
	str("email", old.Email, updated.Email)
	str("phone", old.Phone, updated.Phone)
	str("city", old.City, updated.City)
	str("propertyType", old.PropertyType, updated.PropertyType)
	str("bhk", old.BHK, updated.BHK)
	str("purpose", old.Purpose, updated.Purpose)
	str("timeline", old.Timeline, updated.Timeline)
	str("source", old.Source, updated.Source)
	str("status", old.Status, updated.Status)
	str("notes", old.Notes, updated.Notes)

	if !intPtrEqual(old.BudgetMin, updated.BudgetMin) {
		diff["budgetMin"] = models.FieldChange{From: intPtrValue(old.BudgetMin), To: intPtrValue(updated.BudgetMin)}
	}
	if !intPtrEqual(old.BudgetMax, updated.BudgetMax) {
		diff["budgetMax"] = models.FieldChange{From: intPtrValue(old.BudgetMax), To: intPtrValue(updated.BudgetMax)}
	}
	if !tagsEqual(old.Tags, updated.Tags) {
		diff["tags"] = models.FieldChange{From: []string(old.Tags), To: []string(updated.Tags)}
	}

	return diff
}

// DiffFromNothing records the creation of a buyer: every populated field
// from nil to its initial value.
func DiffFromNothing(b *models.Buyer) models.DiffMap {
	diff := models.DiffMap{}
	str := func(field, to string) {
		if to != "" {
			diff[field] = models.FieldChange{From: nil, To: to}
		}
	}

	str("fullName", b.FullName)
	str("email", b.Email)
	str("phone", b.Phone)
	str("city", b.City)
	str("propertyType", b.PropertyType)
	str("bhk", b.BHK)
	str("purpose", b.Purpose)
	str("timeline", b.Timeline)
	str("source", b.Source)
	str("status", b.Status)
	str("notes", b.Notes)

	if b.BudgetMin != nil {
		diff["budgetMin"] = models.FieldChange{From: nil, To: *b.BudgetMin}
	}
	if b.BudgetMax != nil {
		diff["budgetMax"] = models.FieldChange{From: nil, To: *b.BudgetMax}
	}
	if len(b.Tags) > 0 {
		diff["tags"] = models.FieldChange{From: nil, To: []string(b.Tags)}
	}

	return diff
}
