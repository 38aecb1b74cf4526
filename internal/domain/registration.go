package domain

import (
	"time"

	"gorm.io/gorm"
)

// InquiryType distinguishes a course registration from a general inquiry
type InquiryType string

const (
	InquiryTypeRegister InquiryType = "register"
	InquiryTypeInquiry  InquiryType = "inquiry"
)

// Valid reports whether t is a known inquiry type
func (t InquiryType) Valid() bool {
	return t == InquiryTypeRegister || t == InquiryTypeInquiry
}

// Status is the admin-managed lifecycle state of a registration
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusEnrolled  Status = "enrolled"
	StatusClosed    Status = "closed"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusEnrolled, StatusClosed:
		return true
	}
	return false
}

// Registration represents a registration or inquiry submitted by a prospective student
type Registration struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	Name        string      `gorm:"not null" json:"name"`
	Phone       string      `gorm:"not null;index" json:"phone"`
	Email       string      `gorm:"not null;index" json:"email"`
	State       string      `gorm:"not null" json:"state"`
	City        string      `gorm:"not null" json:"city"`
	InquiryType InquiryType `gorm:"size:16;default:'register';index" json:"inquiryType"`
	CreatedAt   time.Time   `gorm:"index:,sort:desc" json:"createdAt"`
	Status      Status      `gorm:"size:16;default:'new';index" json:"status"`
	Notes       string      `gorm:"type:text" json:"notes"`
}

// TableName specifies the table name for Registration
func (Registration) TableName() string {
	return "registrations"
}

// BeforeCreate hook
func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	r.ApplyDefaults()
	return nil
}

// ApplyDefaults fills inquiryType and status when unset.
func (r *Registration) ApplyDefaults() {
	if r.InquiryType == "" {
		r.InquiryType = InquiryTypeRegister
	}
	if r.Status == "" {
		r.Status = StatusNew
	}
}

// Filter narrows a registration listing. Nil fields are not applied.
type Filter struct {
	Status      *Status
	InquiryType *InquiryType
}

// Page selects a 1-based page of a listing
type Page struct {
	Number int
	Size   int
}

// Offset is the number of records skipped before this page
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Update is a partial admin update. Nil fields are left untouched.
type Update struct {
	Status *Status
	Notes  *string
}

// Empty reports whether the update changes nothing
func (u Update) Empty() bool {
	return u.Status == nil && u.Notes == nil
}
