package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Closed value sets for buyer fields. Validation and the CSV importer both
// check membership against these.
var (
	Cities        = []string{"Chandigarh", "Mohali", "Zirakpur", "Panchkula", "Other"}
	PropertyTypes = []string{"Apartment", "Villa", "Plot", "Office", "Retail"}
	BHKOptions    = []string{"1", "2", "3", "4", "Studio"}
	Purposes      = []string{"Buy", "Rent"}
	Timelines     = []string{"0-3m", "3-6m", ">6m", "Exploring"}
	Sources       = []string{"Website", "Referral", "Walk-in", "Call", "Other"}
	Statuses      = []string{"New", "Qualified", "Contacted", "Visited", "Negotiation", "Converted", "Dropped"}
)

const StatusNew = "New"

// ResidentialTypes are the property types for which BHK is mandatory.
var ResidentialTypes = []string{"Apartment", "Villa"}

// StringList is stored as a JSON array in a text column, preserving
// insertion order.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported source type for StringList")
}

// Buyer is a single lead record owned by one user. UpdatedAt doubles as the
// optimistic-concurrency token, so gorm's automatic touch is disabled and the
// service layer controls it explicitly.
type Buyer struct {
	ID           string     `gorm:"type:char(36);primaryKey" json:"id"`
	FullName     string     `gorm:"type:varchar(80);not null" json:"fullName"`
	Email        string     `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Phone        string     `gorm:"type:varchar(15);not null;index" json:"phone"`
	City         string     `gorm:"type:varchar(20);not null" json:"city"`
	PropertyType string     `gorm:"type:varchar(20);not null" json:"propertyType"`
	BHK          string     `gorm:"type:varchar(10)" json:"bhk,omitempty"`
	Purpose      string     `gorm:"type:varchar(10);not null" json:"purpose"`
	BudgetMin    *int       `json:"budgetMin,omitempty"`
	BudgetMax    *int       `json:"budgetMax,omitempty"`
	Timeline     string     `gorm:"type:varchar(15);not null" json:"timeline"`
	Source       string     `gorm:"type:varchar(15);not null" json:"source"`
	Status       string     `gorm:"type:varchar(15);not null;default:'New'" json:"status"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
	Tags         StringList `gorm:"type:text" json:"tags"`
	OwnerID      uint       `gorm:"not null;index" json:"ownerId"`
	Owner        User       `gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt    time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`
}

func (b *Buyer) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.UpdatedAt.IsZero() {
		// Millisecond precision matches what datetime(3) columns keep.
		b.UpdatedAt = time.Now().Truncate(time.Millisecond)
	}
	return nil
}
