package models

import "time"

// Registration is a completed Udyam submission. Rows are written once and
// never updated by any request flow.
type Registration struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Aadhaar            string    `gorm:"size:12;not null;uniqueIndex:idx_registrations_aadhaar" json:"aadhaar"`
	NameAsPerAadhaar   string    `gorm:"size:255;not null" json:"nameAsPerAadhaar"`
	TypeOfOrganisation string    `gorm:"size:100;not null" json:"typeOfOrganisation"`
	PAN                string    `gorm:"column:pan;size:10;not null;uniqueIndex:idx_registrations_pan" json:"pan"`
	Mobile             string    `gorm:"size:10;not null" json:"mobile"`
	Email              string    `gorm:"size:255;not null" json:"email"`
	SocialCategory     string    `gorm:"size:50;not null" json:"socialCategory"`
	Gender             string    `gorm:"size:20;not null" json:"gender"`
	SpeciallyAbled     bool      `gorm:"not null;default:false" json:"speciallyAbled"`
	NameOfEnterprise   string    `gorm:"size:100;not null" json:"nameOfEnterprise"`
	MajorActivity      string    `gorm:"size:100;not null" json:"majorActivity"`
	RegistrationNumber string    `gorm:"size:32;not null;uniqueIndex:idx_registrations_number" json:"registrationNumber"`
	RegistrationDate   time.Time `gorm:"not null" json:"registrationDate"`
	CreatedAt          time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (Registration) TableName() string {
	return "registrations"
}
