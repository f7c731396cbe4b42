package models

import "time"

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Phone     string    `gorm:"size:30;uniqueIndex;not null" json:"phone"`
	Email     string    `gorm:"size:150" json:"email"`
	Address   string    `gorm:"size:255" json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProjectStatus string

const (
	ProjectStatusPlanned    ProjectStatus = "planned"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// Project is the assignment target for asset instances.
type Project struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Title      string        `gorm:"size:200;not null" json:"title"`
	CustomerID uint          `gorm:"index;not null" json:"customerId"`
	Customer   *Customer     `json:"customer,omitempty"`
	Status     ProjectStatus `gorm:"size:20;not null;default:'planned'" json:"status"`
	Location   string        `gorm:"size:200" json:"location"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}
