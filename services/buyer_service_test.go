package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/lead-intake/models"
	"github.com/propflow/lead-intake/validation"
)

func serviceInput(name, phone string) validation.BuyerInput {
	return validation.BuyerInput{
		FullName:     name,
		Phone:        phone,
		City:         "Chandigarh",
		PropertyType: "Apartment",
		BHK:          "3",
		Purpose:      "Buy",
		Timeline:     "3-6m",
		Source:       "Website",
	}
}

func TestUpdateStaleTokenLeavesRecordUntouched(t *testing.T) {
	db := setupImportDB(t, "svc_stale")
	svc := NewBuyerService(db)

	buyer, errs, err := svc.Create(1, serviceInput("Alice One", "9876543210"))
	require.NoError(t, err)
	require.Empty(t, errs)

	in := serviceInput("Alice One", "9876543210")
	in.Status = "Qualified"
	_, errs, err = svc.Update(buyer.ID, 1, in, buyer.UpdatedAt)
	require.NoError(t, err)
	require.Empty(t, errs)

	// A second writer still holding the original token must lose.
	in.Status = "Dropped"
	_, _, err = svc.Update(buyer.ID, 1, in, buyer.UpdatedAt)
	require.ErrorIs(t, err, ErrStaleRecord)

	var stored models.Buyer
	require.NoError(t, db.First(&stored, "id = ?", buyer.ID).Error)
	assert.Equal(t, "Qualified", stored.Status)
}

func TestConditionalWriteSeesZeroRowsWhenTokenMoved(t *testing.T) {
	db := setupImportDB(t, "svc_cas")
	svc := NewBuyerService(db)

	buyer, errs, err := svc.Create(1, serviceInput("Bob Two", "9876543211"))
	require.NoError(t, err)
	require.Empty(t, errs)

	// Simulate a concurrent writer landing between this writer's read and
	// its write: the row's token moves on while our copy keeps the old one.
	staleToken := buyer.UpdatedAt
	bumped := staleToken.Add(time.Millisecond)
	require.NoError(t, db.Model(&models.Buyer{}).
		Where("id = ?", buyer.ID).
		Update("updated_at", bumped).Error)

	candidate := *buyer
	candidate.Status = "Dropped"
	candidate.UpdatedAt = bumped.Add(time.Millisecond)
	require.ErrorIs(t, svc.updateIfUnchanged(db, staleToken, &candidate), ErrStaleRecord)

	var stored models.Buyer
	require.NoError(t, db.First(&stored, "id = ?", buyer.ID).Error)
	assert.Equal(t, "New", stored.Status)
	assert.True(t, stored.UpdatedAt.Equal(bumped))

	// With the live token the same write lands.
	require.NoError(t, svc.updateIfUnchanged(db, bumped, &candidate))
	require.NoError(t, db.First(&stored, "id = ?", buyer.ID).Error)
	assert.Equal(t, "Dropped", stored.Status)
	assert.True(t, stored.UpdatedAt.Equal(candidate.UpdatedAt))
}
