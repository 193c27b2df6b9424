package models

import (
	"time"

	"storehub/internal/shared"
)

type User struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"size:60;not null" json:"name"`
	Email     string      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string      `gorm:"column:password_hash;not null" json:"-"` // Not show in JSON
	Address   string      `gorm:"size:400;not null" json:"address"`
	Role      shared.Role `gorm:"size:20;not null;default:user;index;check:chk_users_role,role IN ('admin','user','store_owner')" json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
