package models

import (
	"strings"
	"time"
)

// StudentIdentity is the self-declared identity a student registers with.
type StudentIdentity struct {
	Name     string `json:"studentName" bson:"student_name" validate:"required"`
	USN      string `json:"usn" bson:"usn" validate:"required,alphanum,len=10"`
	Email    string `json:"email" bson:"email" validate:"required,email"`
	Phone    string `json:"phone" bson:"phone" validate:"required,number,len=10"`
	Semester string `json:"semester" bson:"semester" validate:"required"`
}

// Normalize applies the canonical USN and email forms in place and trims
// the free-text fields.
func (s *StudentIdentity) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.USN = NormalizeUSN(s.USN)
	s.Email = NormalizeEmail(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Semester = strings.TrimSpace(s.Semester)
}

// Registration is one student's entry in an event's ledger. At most one
// exists per (EventID, USN) and per (EventID, Email).
type Registration struct {
	ID              string `json:"id" bson:"_id"`
	EventID         string `json:"eventId" bson:"event_id"`
	StudentIdentity `bson:",inline"`
	TransactionID   *string   `json:"transactionId,omitempty" bson:"transaction_id,omitempty"`
	RegisteredAt    time.Time `json:"registeredAt" bson:"registered_at"`
}
