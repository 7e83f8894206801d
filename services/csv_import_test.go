package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/propflow/lead-intake/models"
)

const importTestHeader = "fullName,email,phone,city,propertyType,bhk,purpose,budgetMin,budgetMax,timeline,source,notes,tags,status"

func setupImportDB(t *testing.T, name string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Buyer{}, &models.BuyerHistory{}))

	owner := models.User{Name: "Owner", Email: name + "@example.com"}
	require.NoError(t, db.Create(&owner).Error)
	return db
}

func importRow(name, email, phone string) string {
	return fmt.Sprintf("%s,%s,%s,Chandigarh,Apartment,3,Buy,,,3-6m,Website,,,", name, email, phone)
}

func TestImportPartialSuccess(t *testing.T) {
	db := setupImportDB(t, "import_partial")
	svc := NewImportService(db)

	csvText := strings.Join([]string{
		importTestHeader,
		importRow("Alice One", "alice@example.com", "9876543210"),
		importRow("Bob Two", "bob@example.com", "9876543211"),
		importRow("Cara Three", "", "9876543212"),
		importRow("Dan Four", "", "123"), // invalid phone
	}, "\n")

	result, err := svc.Import(1, csvText)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 3, result.Valid)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, "partial", result.Status)
	assert.False(t, result.Truncated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 5, result.Errors[0].Row)
	assert.Equal(t, "phone", result.Errors[0].Errors[0].Field)

	var buyers, history int64
	db.Model(&models.Buyer{}).Count(&buyers)
	db.Model(&models.BuyerHistory{}).Count(&history)
	assert.EqualValues(t, 3, buyers)
	assert.EqualValues(t, 3, history)
}

func TestImportFullSuccess(t *testing.T) {
	db := setupImportDB(t, "import_full")
	svc := NewImportService(db)

	csvText := strings.Join([]string{
		importTestHeader,
		importRow("Alice One", "", "9876543210"),
	}, "\n")

	result, err := svc.Import(1, csvText)
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Errors)
}

func TestImportRejectsOverRowCap(t *testing.T) {
	db := setupImportDB(t, "import_cap")
	svc := NewImportService(db)

	lines := []string{importTestHeader}
	for i := 0; i < MaxImportRows+1; i++ {
		lines = append(lines, importRow(fmt.Sprintf("Lead %d", i), "", fmt.Sprintf("98765%05d", i)))
	}

	_, err := svc.Import(1, strings.Join(lines, "\n"))
	require.ErrorIs(t, err, ErrTooManyRows)

	var buyers int64
	db.Model(&models.Buyer{}).Count(&buyers)
	assert.EqualValues(t, 0, buyers)
}

func TestImportDuplicatePhoneWithinBatch(t *testing.T) {
	db := setupImportDB(t, "import_dup_batch")
	svc := NewImportService(db)

	csvText := strings.Join([]string{
		importTestHeader,
		importRow("Alice One", "", "9876543210"),
		importRow("Alice Clone", "", "9876543210"),
	}, "\n")

	result, err := svc.Import(1, csvText)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	// The later row loses.
	assert.Equal(t, 3, result.Errors[0].Row)
}

func TestImportDuplicateEmailIgnoresCase(t *testing.T) {
	db := setupImportDB(t, "import_dup_case")
	svc := NewImportService(db)

	csvText := strings.Join([]string{
		importTestHeader,
		importRow("Alice One", "Alice@Example.com", "9876543210"),
		importRow("Alice Clone", "alice@example.com", "9876543211"),
	}, "\n")

	result, err := svc.Import(1, csvText)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "email", result.Errors[0].Errors[0].Field)

	var stored models.Buyer
	require.NoError(t, db.First(&stored, "phone = ?", "9876543210").Error)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestImportDuplicateAgainstStoreSameOwnerOnly(t *testing.T) {
	db := setupImportDB(t, "import_dup_store")
	svc := NewImportService(db)

	other := models.User{Name: "Other", Email: "other-import@example.com"}
	require.NoError(t, db.Create(&other).Error)

	existing := models.Buyer{
		FullName: "Existing Lead", Phone: "9876543210", City: "Mohali",
		PropertyType: "Plot", Purpose: "Buy", Timeline: "0-3m",
		Source: "Referral", Status: "New", OwnerID: 1,
	}
	require.NoError(t, db.Create(&existing).Error)

	csvText := strings.Join([]string{
		importTestHeader,
		importRow("Same Owner Dup", "", "9876543210"),
	}, "\n")

	result, err := svc.Import(1, csvText)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	require.Len(t, result.Errors, 1)

	// The same phone under a different owner is not a duplicate.
	result, err = svc.Import(other.ID, csvText)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Errors)
}

func TestImportToleratesSpreadsheetArtifacts(t *testing.T) {
	db := setupImportDB(t, "import_artifacts")
	svc := NewImportService(db)

	// Blank lines, trailing commas, an unknown column and formatted budgets.
	csvText := "fullName,phone,city,propertyType,purpose,timeline,source,budgetMin,budgetMax,tags,ignoredColumn,\r\n" +
		"\r\n" +
		"  Alice One ,9876543210,Chandigarh,Plot,Buy,3-6m,Website,\"₹ 50,00,000\",\"₹ 75,00,000\",\"vip, hot\",dropped,\r\n"

	result, err := svc.Import(1, csvText)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported, "errors: %+v", result.Errors)

	var buyer models.Buyer
	require.NoError(t, db.First(&buyer, "phone = ?", "9876543210").Error)
	assert.Equal(t, "Alice One", buyer.FullName)
	require.NotNil(t, buyer.BudgetMin)
	assert.Equal(t, 5000000, *buyer.BudgetMin)
	require.NotNil(t, buyer.BudgetMax)
	assert.Equal(t, 7500000, *buyer.BudgetMax)
	assert.Equal(t, models.StringList{"vip", "hot"}, buyer.Tags)
}

func TestImportWritesCreationHistory(t *testing.T) {
	db := setupImportDB(t, "import_history")
	svc := NewImportService(db)

	csvText := strings.Join([]string{
		importTestHeader,
		importRow("Alice One", "", "9876543210"),
	}, "\n")

	_, err := svc.Import(1, csvText)
	require.NoError(t, err)

	var entry models.BuyerHistory
	require.NoError(t, db.First(&entry).Error)
	assert.EqualValues(t, 1, entry.ChangedBy)
	assert.Equal(t, models.FieldChange{From: nil, To: "Alice One"}, entry.Diff["fullName"])
	assert.Equal(t, models.FieldChange{From: nil, To: "9876543210"}, entry.Diff["phone"])
}
