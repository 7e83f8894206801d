package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/propflow/lead-intake/models"
	"github.com/propflow/lead-intake/validation"
)

var (
	ErrNotFound    = errors.New("buyer not found")
	ErrForbidden   = errors.New("not the owner of this record")
	ErrStaleRecord = errors.New("record has changed since it was last read")
)

type BuyerService struct {
	DB *gorm.DB
}

func NewBuyerService(db *gorm.DB) *BuyerService {
	return &BuyerService{DB: db}
}

func buyerFromInput(in validation.BuyerInput) models.Buyer {
	return models.Buyer{
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		City:         in.City,
		PropertyType: in.PropertyType,
		BHK:          in.BHK,
		Purpose:      in.Purpose,
		BudgetMin:    in.BudgetMin,
		BudgetMax:    in.BudgetMax,
		Timeline:     in.Timeline,
		Source:       in.Source,
		Status:       in.Status,
		Notes:        in.Notes,
		Tags:         models.StringList(in.Tags),
	}
}

func applyInput(b *models.Buyer, in validation.BuyerInput) {
	b.FullName = in.FullName
	b.Email = in.Email
	b.Phone = in.Phone
	b.City = in.City
	b.PropertyType = in.PropertyType
	b.BHK = in.BHK
	b.Purpose = in.Purpose
	b.BudgetMin = in.BudgetMin
	b.BudgetMax = in.BudgetMax
	b.Timeline = in.Timeline
	b.Source = in.Source
	b.Status = in.Status
	b.Notes = in.Notes
	b.Tags = models.StringList(in.Tags)
}

// Create validates and stores a new buyer together with its creation
// history entry. Validation failures are returned without touching the
// store.
func (s *BuyerService) Create(ownerID uint, in validation.BuyerInput) (*models.Buyer, []validation.FieldError, error) {
	validation.Normalize(&in)
	if errs := validation.CheckBuyer(in); len(errs) > 0 {
		return nil, errs, nil
	}

	buyer := buyerFromInput(in)
	buyer.OwnerID = ownerID
	buyer.UpdatedAt = time.Now().Truncate(time.Millisecond)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&buyer).Error; err != nil {
			return err
		}
		history := models.BuyerHistory{
			BuyerID:   buyer.ID,
			ChangedBy: ownerID,
			ChangedAt: buyer.UpdatedAt,
			Diff:      DiffFromNothing(&buyer),
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &buyer, nil, nil
}

// Get returns a buyer and its most recent history entries, newest first.
func (s *BuyerService) Get(id string, historyLimit int) (*models.Buyer, []models.BuyerHistory, error) {
	var buyer models.Buyer
	if err := s.DB.First(&buyer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var history []models.BuyerHistory
	if err := s.DB.Where("buyer_id = ?", id).
		Order("changed_at DESC, id DESC").
		Limit(historyLimit).
		Find(&history).Error; err != nil {
		return nil, nil, err
	}
	return &buyer, history, nil
}

// Update applies a full replacement field set to a buyer. The caller must
// own the record and echo back the updatedAt value it last saw; any mismatch
// fails with ErrStaleRecord and changes nothing. The read, the token check
// and the write all happen inside one transaction.
//
// A non-empty diff appends exactly one history entry. An empty diff still
// bumps updatedAt but writes no history.
func (s *BuyerService) Update(id string, userID uint, in validation.BuyerInput, token time.Time) (*models.Buyer, []validation.FieldError, error) {
	validation.Normalize(&in)
	if errs := validation.CheckBuyer(in); len(errs) > 0 {
		return nil, errs, nil
	}

	var updated models.Buyer
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var stored models.Buyer
		if err := tx.First(&stored, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if stored.OwnerID != userID {
			return ErrForbidden
		}
		if !stored.UpdatedAt.Equal(token) {
			return ErrStaleRecord
		}

		updated = stored
		applyInput(&updated, in)
		diff := DiffBuyers(&stored, &updated)

		// Millisecond precision survives the round-trip through the
		// store; updatedAt must still strictly increase on a same-tick
		// write.
		now := time.Now().Truncate(time.Millisecond)
		if !now.After(stored.UpdatedAt) {
			now = stored.UpdatedAt.Add(time.Millisecond)
		}
		updated.UpdatedAt = now

		if err := s.updateIfUnchanged(tx, stored.UpdatedAt, &updated); err != nil {
			return err
		}
		if len(diff) == 0 {
			return nil
		}
		history := models.BuyerHistory{
			BuyerID:   updated.ID,
			ChangedBy: userID,
			ChangedAt: now,
			Diff:      diff,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &updated, nil, nil
}

// updateIfUnchanged writes the full field set with a conditional UPDATE so
// the token check and the write are one atomic statement. Under MySQL's
// repeatable-read isolation two overlapping transactions can both read the
// same updatedAt snapshot; the WHERE clause makes the loser see zero
// affected rows instead of silently overwriting the winner.
func (s *BuyerService) updateIfUnchanged(tx *gorm.DB, expected time.Time, b *models.Buyer) error {
	res := tx.Model(&models.Buyer{}).
		Where("id = ? AND updated_at = ?", b.ID, expected).
		Updates(map[string]interface{}{
			"full_name":     b.FullName,
			"email":         b.Email,
			"phone":         b.Phone,
			"city":          b.City,
			"property_type": b.PropertyType,
			"bhk":           b.BHK,
			"purpose":       b.Purpose,
			"budget_min":    b.BudgetMin,
			"budget_max":    b.BudgetMax,
			"timeline":      b.Timeline,
			"source":        b.Source,
			"status":        b.Status,
			"notes":         b.Notes,
			"tags":          b.Tags,
			"updated_at":    b.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}

// Delete hard-deletes a buyer and its history in one transaction so no
// orphaned history rows survive, matching the cascade on the foreign key.
func (s *BuyerService) Delete(id string, userID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var stored models.Buyer
		if err := tx.First(&stored, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if stored.OwnerID != userID {
			return ErrForbidden
		}
		if err := tx.Where("buyer_id = ?", id).Delete(&models.BuyerHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&stored).Error
	})
}
