package models

import "time"

// Rating is unique per (user_id, store_id); the index name is shared with the SQL migrations.
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_ratings_user_store" json:"userId"`
	StoreID   uint      `gorm:"not null;uniqueIndex:idx_ratings_user_store;index" json:"storeId"`
	Rating    int       `gorm:"not null;check:chk_ratings_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Associations
	User  *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
	Store *Store `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE;" json:"store,omitempty"`
}

func (Rating) TableName() string {
	return "ratings"
}
