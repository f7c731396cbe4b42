package models

import (
	"time"

	"gorm.io/datatypes"
)

type SupplierBankAccount struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	IBAN          string `json:"iban,omitempty"`
}

type Supplier struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"size:200;not null" json:"name"`
	ContactPerson string `gorm:"size:150" json:"contactPerson"`
	Email         string `gorm:"size:150" json:"email"`
	Phone         string `gorm:"size:30" json:"phone"`
	Address       string `gorm:"size:255" json:"address"`

	BankAccountDetails datatypes.JSONSlice[SupplierBankAccount] `json:"bankAccountDetails"`

	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
