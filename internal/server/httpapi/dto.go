package httpapi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/dmitrijs2005/eventhub/internal/server/services"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	USN      string `json:"usn" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// registerForEventRequest is checked by RegistrationService.Register, after
// the event's own checks.
type registerForEventRequest struct {
	StudentName   string `json:"studentName"`
	USN           string `json:"usn"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Semester      string `json:"semester"`
	TransactionID string `json:"transactionId"`
}

func (r registerForEventRequest) identity() models.StudentIdentity {
	return models.StudentIdentity{
		Name:     r.StudentName,
		USN:      r.USN,
		Email:    r.Email,
		Phone:    r.Phone,
		Semester: r.Semester,
	}
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	USN      *string `json:"usn"`
	Phone    *string `json:"phone"`
	Semester *int    `json:"semester"`
}

func (r updateProfileRequest) toUpdate() services.ProfileUpdate {
	return services.ProfileUpdate{Name: r.Name, USN: r.USN, Phone: r.Phone, Semester: r.Semester}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// flexTime accepts the date formats browsers send from date and
// datetime-local inputs as well as RFC 3339.
type flexTime struct {
	time.Time
}

var flexTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return common.Validationf("Dates must be strings")
	}
	s = strings.TrimSpace(s)
	for _, layout := range flexTimeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return common.Validationf("Invalid date %q", s)
}

func (t *flexTime) ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

type eventRequest struct {
	Title                *string   `json:"title"`
	Description          *string   `json:"description"`
	Department           *string   `json:"department"`
	ClubName             *string   `json:"clubName"`
	Date                 *flexTime `json:"date"`
	Time                 *string   `json:"time"`
	Venue                *string   `json:"venue"`
	RegistrationDeadline *flexTime `json:"registrationDeadline"`
	WhatsappGroupLink    *string   `json:"whatsappGroupLink"`
	Rules                *string   `json:"rules"`
	PaymentRequired      *bool     `json:"paymentRequired"`
	PaymentAmount        *float64  `json:"paymentAmount"`
	PaymentQRCode        *string   `json:"paymentQRCode"`
}

func (r eventRequest) toFields() services.EventFields {
	return services.EventFields{
		Title:                r.Title,
		Description:          r.Description,
		Department:           r.Department,
		ClubName:             r.ClubName,
		Date:                 r.Date.ptr(),
		Time:                 r.Time,
		Venue:                r.Venue,
		RegistrationDeadline: r.RegistrationDeadline.ptr(),
		WhatsappGroupLink:    r.WhatsappGroupLink,
		Rules:                r.Rules,
		PaymentRequired:      r.PaymentRequired,
		PaymentAmount:        r.PaymentAmount,
		PaymentQRCode:        r.PaymentQRCode,
	}
}
