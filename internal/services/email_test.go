package services

import (
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meduhub/internal/config"
	"meduhub/internal/domain"
)

func sampleRegistration() *domain.Registration {
	return &domain.Registration{
		ID:          "65f0c0ffee0000000000abcd",
		Name:        "Diya <Patel>",
		Phone:       "9123456780",
		Email:       "diya@example.com",
		State:       "Gujarat",
		City:        "Surat",
		InquiryType: domain.InquiryTypeInquiry,
		CreatedAt:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		Status:      domain.StatusNew,
	}
}

func TestNotifyDisabledSendsNothing(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false}, quietLogger())
	svc.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("sendMail must not be called when email is disabled")
		return nil
	}

	require.NoError(t, svc.NotifyNewRegistration(sampleRegistration()))
}

func TestNotifySendsToAdmin(t *testing.T) {
	cfg := &config.EmailConfig{
		Enabled:    true,
		SMTPHost:   "smtp.example.com",
		SMTPPort:   587,
		Username:   "mailer",
		Password:   "pw",
		FromEmail:  "noreply@meduhub.in",
		FromName:   "Meduhub",
		AdminEmail: "admissions@meduhub.in",
	}
	svc := NewEmailService(cfg, quietLogger())

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	svc.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, svc.NotifyNewRegistration(sampleRegistration()))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"admissions@meduhub.in"}, gotTo)
	body := string(gotMsg)
	assert.Contains(t, body, "Subject: New inquiry from Diya <Patel>\r\n")
	assert.Contains(t, body, "From: Meduhub <noreply@meduhub.in>\r\n")
	assert.Contains(t, body, "Phone: 9123456780")
	assert.Contains(t, body, "Diya &lt;Patel&gt;")
}

func TestSendHTMLEmailRequiresCredentials(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: true, SMTPHost: "smtp.example.com"}, quietLogger())

	err := svc.SendHTMLEmail("a@b.co", "hi", "", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not properly configured")
}
