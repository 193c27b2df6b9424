package models

import "time"

type Store struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:60;not null;index" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Address   string    `gorm:"size:400;not null" json:"address"`
	OwnerID   *uint     `gorm:"index" json:"ownerId"` // nullable, stores may be unassigned
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Associations
	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT;" json:"owner,omitempty"`
}

func (Store) TableName() string {
	return "stores"
}
