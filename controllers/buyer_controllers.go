package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/propflow/lead-intake/services"
	"github.com/propflow/lead-intake/utils"
	"github.com/propflow/lead-intake/validation"
)

const historyPageSize = 5

type BuyerController struct {
	DB     *gorm.DB
	Buyers *services.BuyerService
}

func NewBuyerController(db *gorm.DB) *BuyerController {
	return &BuyerController{DB: db, Buyers: services.NewBuyerService(db)}
}

type buyerRequest struct {
	FullName     string   `json:"fullName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	City         string   `json:"city"`
	PropertyType string   `json:"propertyType"`
	BHK          string   `json:"bhk"`
	Purpose      string   `json:"purpose"`
	BudgetMin    *int     `json:"budgetMin"`
	BudgetMax    *int     `json:"budgetMax"`
	Timeline     string   `json:"timeline"`
	Source       string   `json:"source"`
	Status       string   `json:"status"`
	Notes        string   `json:"notes"`
	Tags         []string `json:"tags"`
}

func (r buyerRequest) toInput() validation.BuyerInput {
	return validation.BuyerInput{
		FullName:     r.FullName,
		Email:        r.Email,
		Phone:        r.Phone,
		City:         r.City,
		PropertyType: r.PropertyType,
		BHK:          r.BHK,
		Purpose:      r.Purpose,
		BudgetMin:    r.BudgetMin,
		BudgetMax:    r.BudgetMax,
		Timeline:     r.Timeline,
		Source:       r.Source,
		Status:       r.Status,
		Notes:        r.Notes,
		Tags:         r.Tags,
	}
}

// ListBuyers
func (bc *BuyerController) ListBuyers(c *gin.Context) {
	var filter services.BuyerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	page, err := bc.Buyers.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Buyers", page)
}

// CreateBuyer
func (bc *BuyerController) CreateBuyer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var req buyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	buyer, fieldErrs, err := bc.Buyers.Create(userID, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if len(fieldErrs) > 0 {
		utils.RespondValidationErrors(c, fieldErrs)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Buyer created", buyer)
}

// GetBuyer returns the record plus its latest history entries.
func (bc *BuyerController) GetBuyer(c *gin.Context) {
	buyer, history, err := bc.Buyers.Get(c.Param("buyer_id"), historyPageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Buyer detail", gin.H{
		"buyer":   buyer,
		"history": history,
	})
}

// UpdateBuyer replaces the full field set. The body must echo the updatedAt
// value the client last saw; a stale value yields 409 and no change.
func (bc *BuyerController) UpdateBuyer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var req struct {
		buyerRequest
		UpdatedAt string `json:"updatedAt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	token, err := time.Parse(time.RFC3339Nano, req.UpdatedAt)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("updatedAt must be an RFC 3339 timestamp"))
		return
	}

	buyer, fieldErrs, err := bc.Buyers.Update(c.Param("buyer_id"), userID, req.toInput(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if len(fieldErrs) > 0 {
		utils.RespondValidationErrors(c, fieldErrs)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Buyer updated", buyer)
}

// DeleteBuyer
func (bc *BuyerController) DeleteBuyer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	buyerID := c.Param("buyer_id")
	if err := bc.Buyers.Delete(buyerID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Buyer deleted", gin.H{"buyer_id": buyerID})
}
