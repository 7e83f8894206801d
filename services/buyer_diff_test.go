package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/propflow/lead-intake/models"
)

func sampleBuyer() models.Buyer {
	return models.Buyer{
		ID:           "b-1",
		FullName:     "John Doe",
		Phone:        "9876543210",
		City:         "Chandigarh",
		PropertyType: "Apartment",
		BHK:          "3",
		Purpose:      "Buy",
		Timeline:     "3-6m",
		Source:       "Website",
		Status:       "New",
		Tags:         models.StringList{"vip", "hot"},
	}
}

func TestDiffIdenticalBuyersIsEmpty(t *testing.T) {
	a := sampleBuyer()
	b := sampleBuyer()
	assert.Empty(t, DiffBuyers(&a, &b))
}

func TestDiffSingleFieldChange(t *testing.T) {
	a := sampleBuyer()
	b := sampleBuyer()
	b.Status = "Qualified"

	diff := DiffBuyers(&a, &b)
	assert.Len(t, diff, 1)
	assert.Equal(t, models.FieldChange{From: "New", To: "Qualified"}, diff["status"])
}

func TestDiffTagReorderIsNotAChange(t *testing.T) {
	a := sampleBuyer()
	b := sampleBuyer()
	b.Tags = models.StringList{"hot", "vip"}
	assert.Empty(t, DiffBuyers(&a, &b))

	b.Tags = models.StringList{"hot", "vip", "new-tag"}
	diff := DiffBuyers(&a, &b)
	assert.Len(t, diff, 1)
	assert.Contains(t, diff, "tags")
}

func TestDiffBudgetPointerFields(t *testing.T) {
	min := 1000000
	a := sampleBuyer()
	b := sampleBuyer()
	b.BudgetMin = &min

	diff := DiffBuyers(&a, &b)
	assert.Len(t, diff, 1)
	assert.Equal(t, models.FieldChange{From: nil, To: 1000000}, diff["budgetMin"])

	// Same value behind different pointers is not a change.
	otherMin := 1000000
	a.BudgetMin = &otherMin
	assert.Empty(t, DiffBuyers(&a, &b))
}

func TestDiffFromNothingSkipsAbsentFields(t *testing.T) {
	b := sampleBuyer()
	diff := DiffFromNothing(&b)

	assert.Equal(t, models.FieldChange{From: nil, To: "John Doe"}, diff["fullName"])
	assert.NotContains(t, diff, "email")
	assert.NotContains(t, diff, "budgetMin")
	assert.NotContains(t, diff, "notes")
	assert.Contains(t, diff, "tags")
}
