package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/dmitrijs2005/eventhub/internal/server/objectstore"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RegistrationService signs students up for events.
type RegistrationService struct {
	repos  repomanager.Repositories
	store  objectstore.Store
	logger logging.Logger
	now    func() time.Time
}

func NewRegistrationService(repos repomanager.Repositories, store objectstore.Store, logger logging.Logger) *RegistrationService {
	return &RegistrationService{
		repos:  repos,
		store:  store,
		logger: logger.With("module", "registrations"),
		now:    time.Now,
	}
}

// Register adds student to the event's ledger. Checks run in order: the
// event exists, the deadline has not passed, payment proof is present when
// required, the student's details are well formed. The ledger insert itself decides duplicates, so of two
// concurrent identical requests exactly one succeeds and the other gets
// common.ErrAlreadyRegistered.
func (s *RegistrationService) Register(ctx context.Context, eventID string, student models.StudentIdentity, transactionID string) (*models.Registration, error) {
	event, err := getEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return nil, err
	}

	if !event.RegistrationOpen(s.now()) {
		return nil, common.ErrDeadlinePassed
	}

	txID := strings.ToUpper(strings.TrimSpace(transactionID))
	if event.PaymentRequired && txID == "" {
		return nil, common.ErrPaymentProofRequired
	}

	student.Normalize()
	if err := check.Struct(student); err != nil {
		return nil, err
	}

	// Early answer for the common case; the insert below is authoritative.
	exists, err := s.repos.Registrations().Exists(ctx, event.ID, student.USN, student.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrAlreadyRegistered
	}

	reg := &models.Registration{EventID: event.ID, StudentIdentity: student}
	if event.PaymentRequired {
		reg.TransactionID = &txID
	}

	created, err := s.repos.Registrations().Create(ctx, reg)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "registered for event", "event_id", event.ID, "registration_id", created.ID)
	return created, nil
}

// IsRegistered reports whether usn holds a registration for eventID. The
// answer is advisory and may be stale by the time the caller acts on it.
func (s *RegistrationService) IsRegistered(ctx context.Context, eventID, usn string) (bool, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return false, nil
	}
	return s.repos.Registrations().ExistsByUSN(ctx, eventID, models.NormalizeUSN(usn))
}

// MyEvents returns the events usn registered for, earliest date first.
func (s *RegistrationService) MyEvents(ctx context.Context, usn string) ([]*models.Event, error) {
	ids, err := s.repos.Registrations().EventIDsByUSN(ctx, models.NormalizeUSN(usn))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Event{}, nil
	}

	list, err := s.repos.Events().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := decorate(ctx, s.repos, s.store, s.logger, list...); err != nil {
		return nil, err
	}
	return list, nil
}
