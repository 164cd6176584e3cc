package models

import (
	"strings"
	"time"
)

// Event dates must fall inside this range of years.
const (
	MinEventYear = 2026
	MaxEventYear = 2050
)

// Event is a campus event students can register for.
type Event struct {
	ID                   string    `json:"id" bson:"_id"`
	Title                string    `json:"title" bson:"title"`
	Description          string    `json:"description" bson:"description"`
	Department           string    `json:"department,omitempty" bson:"department"`
	ClubName             string    `json:"clubName,omitempty" bson:"club_name"`
	Date                 time.Time `json:"date" bson:"date"`
	Time                 string    `json:"time" bson:"time"`
	Venue                string    `json:"venue" bson:"venue"`
	CreatedBy            string    `json:"createdBy" bson:"created_by"`
	RegistrationDeadline time.Time `json:"registrationDeadline" bson:"registration_deadline"`
	WhatsappGroupLink    string    `json:"whatsappGroupLink,omitempty" bson:"whatsapp_group_link"`
	Rules                string    `json:"rules,omitempty" bson:"rules"`
	PaymentRequired      bool      `json:"paymentRequired" bson:"payment_required"`
	PaymentAmount        *float64  `json:"paymentAmount,omitempty" bson:"payment_amount,omitempty"`
	PaymentQRKey         string    `json:"-" bson:"payment_qr_key,omitempty"`
	PaymentQRURL         string    `json:"paymentQRCode,omitempty" bson:"-"`
	RegistrationCount    int64     `json:"registrationCount" bson:"-"`
	CreatedAt            time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" bson:"updated_at"`
}

// RegistrationOpen reports whether registrations are accepted at now.
// The deadline instant itself is still open.
func (e *Event) RegistrationOpen(now time.Time) bool {
	return !now.After(e.RegistrationDeadline)
}

// CSVFileName is the download name for the event's registration export.
func (e *Event) CSVFileName() string {
	return strings.ReplaceAll(e.Title, " ", "_") + "_registrations.csv"
}

// DashboardStats summarises the catalogue for the admin dashboard.
type DashboardStats struct {
	TotalEvents        int64    `json:"totalEvents"`
	UpcomingEvents     int64    `json:"upcomingEvents"`
	TotalRegistrations int64    `json:"totalRegistrations"`
	RecentEvents       []*Event `json:"recentEvents"`
}
