package services

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"meduhub/internal/domain"
	apperrors "meduhub/pkg/errors"
)

// SubmitPayload is a registration as sent by the client
type SubmitPayload struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	State       string `json:"state"`
	City        string `json:"city"`
	InquiryType string `json:"inquiryType,omitempty"`
}

// submission carries the normalized fields through govalidator
type submission struct {
	Name        string `valid:"required~Name is required,minstringlength(2)~Name must be at least 2 characters"`
	Phone       string `valid:"required~Phone number is required,matches(^[6-9]\\d{9}$)~Please enter a valid 10-digit Indian mobile number"`
	Email       string `valid:"required~Email is required,matches(^[^\\s@]+@[^\\s@]+\\.[^\\s@]+$)~Please enter a valid email address"`
	State       string `valid:"required~State is required"`
	City        string `valid:"required~City is required"`
	InquiryType string `valid:"in(register|inquiry)~Inquiry type must be register or inquiry"`
}

// fieldOrder fixes the order messages are reported in
var fieldOrder = []string{"Name", "Phone", "Email", "State", "City", "InquiryType"}

// Validate normalizes a submission and checks every field rule.
// On failure the returned error is a VALIDATION_ERROR listing each
// violated rule.
func Validate(p SubmitPayload) (*domain.Registration, error) {
	s := submission{
		Name:        strings.TrimSpace(p.Name),
		Phone:       strings.TrimSpace(p.Phone),
		Email:       strings.ToLower(strings.TrimSpace(p.Email)),
		State:       strings.TrimSpace(p.State),
		City:        strings.TrimSpace(p.City),
		InquiryType: strings.TrimSpace(p.InquiryType),
	}
	if s.InquiryType == "" {
		s.InquiryType = string(domain.InquiryTypeRegister)
	}

	if _, err := govalidator.ValidateStruct(s); err != nil {
		byField := govalidator.ErrorsByField(err)
		messages := make([]string, 0, len(byField))
		for _, field := range fieldOrder {
			if msg, ok := byField[field]; ok {
				messages = append(messages, msg)
			}
		}
		if len(messages) == 0 {
			messages = append(messages, err.Error())
		}
		return nil, apperrors.Validation(messages)
	}

	return &domain.Registration{
		Name:        s.Name,
		Phone:       s.Phone,
		Email:       s.Email,
		State:       s.State,
		City:        s.City,
		InquiryType: domain.InquiryType(s.InquiryType),
		Status:      domain.StatusNew,
	}, nil
}
