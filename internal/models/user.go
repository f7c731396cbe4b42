package models

import "time"

type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleFinance        UserRole = "finance"
	RoleProjectManager UserRole = "project_manager"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleFinance, RoleProjectManager:
		return true
	}
	return false
}

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Name         string   `gorm:"size:100;not null" json:"name"`
	Email        string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	Role         UserRole `gorm:"size:20;not null" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
