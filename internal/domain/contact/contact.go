package contact

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/rolodex-backend/internal/domain/user"
)

// Address is the optional postal block embedded in a contact row.
type Address struct {
	Country    string `gorm:"column:country" json:"country,omitempty"`
	PostalCode string `gorm:"column:postal_code" json:"postal_code,omitempty"`
	City       string `gorm:"column:city" json:"city,omitempty"`
	Street     string `gorm:"column:street" json:"street,omitempty"`
	House      string `gorm:"column:house" json:"house,omitempty"`
	Apartment  string `gorm:"column:apartment" json:"apartment,omitempty"`
}

type Contact struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"index;not null;column:owner_id" json:"owner_id"`
	Owner       *user.User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:ID" json:"-"`
	FirstName   string         `gorm:"not null;column:first_name" json:"first_name"`
	LastName    string         `gorm:"not null;column:last_name" json:"last_name"`
	Email       string         `gorm:"index;not null;column:email" json:"email"`
	PhoneNumber string         `gorm:"not null;column:phone_number" json:"phone_number"`
	Birthday    datatypes.Date `gorm:"not null;column:birthday" json:"birthday"`
	Notes       string         `gorm:"type:text;column:notes" json:"notes,omitempty"`
	Address     Address        `gorm:"embedded;embeddedPrefix:address_" json:"address"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Contact) TableName() string { return "contact" }

func (c *Contact) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
