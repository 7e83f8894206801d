package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// FieldChange records one field moving from an old value to a new one.
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// DiffMap maps a field name to its change, stored as a JSON object.
type DiffMap map[string]FieldChange

func (d DiffMap) Value() (driver.Value, error) {
	if d == nil {
		d = DiffMap{}
	}
	b, err := json.Marshal(d)
	return string(b), err
}

func (d *DiffMap) Scan(value interface{}) error {
	if value == nil {
		*d = DiffMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("unsupported source type for DiffMap")
}

// BuyerHistory is an append-only audit row for one accepted change to a
// buyer. Rows are never updated and are removed only together with the
// parent buyer.
type BuyerHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuyerID   string    `gorm:"type:char(36);not null;index" json:"buyerId"`
	Buyer     Buyer     `gorm:"foreignKey:BuyerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ChangedBy uint      `gorm:"not null" json:"changedBy"`
	Actor     User      `gorm:"foreignKey:ChangedBy;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	ChangedAt time.Time `gorm:"not null;index" json:"changedAt"`
	Diff      DiffMap   `gorm:"type:text" json:"diff"`
}
