package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/propflow/lead-intake/services"
	"github.com/propflow/lead-intake/utils"
)

// maxUploadBytes caps the raw upload well above 200 rows of CSV.
const maxUploadBytes = 1 << 20

type ImportExportController struct {
	Buyers   *services.BuyerService
	Importer *services.ImportService
}

func NewImportExportController(db *gorm.DB) *ImportExportController {
	return &ImportExportController{
		Buyers:   services.NewBuyerService(db),
		Importer: services.NewImportService(db),
	}
}

// ImportBuyers accepts a multipart CSV upload and reports per-row results.
func (iec *ImportExportController) ImportBuyers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("a CSV file upload named \"file\" is required"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		utils.RespondError(c, http.StatusBadRequest, errors.New("file is too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := iec.Importer.Import(userID, string(raw))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTooManyRows),
			errors.Is(err, services.ErrEmptyFile),
			errors.Is(err, services.ErrInvalidCSV):
			utils.RespondError(c, http.StatusBadRequest, err)
		default:
			respondServiceError(c, err)
		}
		return
	}

	utils.InfoLogger.Printf("CSV import by user %d: %d/%d rows imported", userID, result.Imported, result.Total)
	utils.RespondJSON(c, http.StatusOK, "Import finished", result)
}

// ExportBuyers streams the filtered listing as a CSV download.
func (iec *ImportExportController) ExportBuyers(c *gin.Context) {
	var filter services.BuyerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="buyers.csv"`)

	if err := iec.Buyers.Export(c.Writer, filter); err != nil {
		utils.ErrorLogger.Printf("CSV export failed: %v", err)
		c.Status(http.StatusInternalServerError)
	}
}
