package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/dmitrijs2005/eventhub/internal/server/objectstore"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/events"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RecentEventsLimit is how many events the dashboard lists.
const RecentEventsLimit = 5

// EventFields carries event attributes from a create or update request.
// Nil fields are left untouched. An empty PaymentQRCode removes the image.
type EventFields struct {
	Title                *string
	Description          *string
	Department           *string
	ClubName             *string
	Date                 *time.Time
	Time                 *string
	Venue                *string
	RegistrationDeadline *time.Time
	WhatsappGroupLink    *string
	Rules                *string
	PaymentRequired      *bool
	PaymentAmount        *float64
	PaymentQRCode        *string
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (f EventFields) apply(e *models.Event) {
	setTrimmed(&e.Title, f.Title)
	setTrimmed(&e.Description, f.Description)
	setTrimmed(&e.Department, f.Department)
	setTrimmed(&e.ClubName, f.ClubName)
	setTrimmed(&e.Time, f.Time)
	setTrimmed(&e.Venue, f.Venue)
	setTrimmed(&e.WhatsappGroupLink, f.WhatsappGroupLink)
	setTrimmed(&e.Rules, f.Rules)
	if f.Date != nil {
		e.Date = *f.Date
	}
	if f.RegistrationDeadline != nil {
		e.RegistrationDeadline = *f.RegistrationDeadline
	}
	if f.PaymentRequired != nil {
		e.PaymentRequired = *f.PaymentRequired
	}
	if f.PaymentAmount != nil {
		a := *f.PaymentAmount
		e.PaymentAmount = &a
	}
	if !e.PaymentRequired {
		e.PaymentAmount = nil
	}
}

func yearInRange(t time.Time) bool {
	return t.Year() >= models.MinEventYear && t.Year() <= models.MaxEventYear
}

func validateEvent(e *models.Event) error {
	switch {
	case e.Title == "":
		return common.Validationf("Please provide event title")
	case e.Description == "":
		return common.Validationf("Please provide event description")
	case e.Date.IsZero():
		return common.Validationf("Please provide event date")
	case e.Time == "":
		return common.Validationf("Please provide event time")
	case e.Venue == "":
		return common.Validationf("Please provide event venue")
	case e.RegistrationDeadline.IsZero():
		return common.Validationf("Please provide registration deadline")
	case !yearInRange(e.Date):
		return common.Validationf("Event date must be between years %d and %d", models.MinEventYear, models.MaxEventYear)
	case !yearInRange(e.RegistrationDeadline):
		return common.Validationf("Registration deadline must be between years %d and %d", models.MinEventYear, models.MaxEventYear)
	case e.PaymentAmount != nil && *e.PaymentAmount < 0:
		return common.Validationf("Payment amount cannot be negative")
	}
	return nil
}

// getEvent loads an event. IDs that are not UUIDs cannot exist and are
// reported as not found without touching storage.
func getEvent(ctx context.Context, repo events.Repository, id string) (*models.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: event not found", common.ErrorNotFound)
	}
	e, err := repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: event not found", common.ErrorNotFound)
	}
	return e, err
}

// decorate fills the computed fields: registration counts and presigned QR
// URLs. A failed presign is logged and leaves the URL empty.
func decorate(ctx context.Context, repos repomanager.Repositories, store objectstore.Store, logger logging.Logger, list ...*models.Event) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]string, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	counts, err := repos.Registrations().CountByEvents(ctx, ids)
	if err != nil {
		return err
	}

	for _, e := range list {
		e.RegistrationCount = counts[e.ID]
		if e.PaymentQRKey == "" || store == nil {
			continue
		}
		url, err := store.PresignGet(ctx, e.PaymentQRKey)
		if err != nil {
			logger.Warn(ctx, "presign payment QR failed", "event_id", e.ID, "error", err)
			continue
		}
		e.PaymentQRURL = url
	}
	return nil
}

// EventService manages the event catalogue on behalf of admins.
type EventService struct {
	repos  repomanager.RepositoryManager
	guard  *Guard
	store  objectstore.Store
	logger logging.Logger
	now    func() time.Time
}

// NewEventService builds an EventService. store may be nil, in which case
// payment QR images are rejected.
func NewEventService(repos repomanager.RepositoryManager, guard *Guard, store objectstore.Store, logger logging.Logger) *EventService {
	return &EventService{
		repos:  repos,
		guard:  guard,
		store:  store,
		logger: logger.With("module", "events"),
		now:    time.Now,
	}
}

func qrKey(eventID string) string {
	return "events/" + eventID + "/payment-qr"
}

// decodeQR accepts raw base64 or a base64 data URL and returns the image.
func decodeQR(raw string) ([]byte, string, error) {
	contentType := ""
	payload := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", common.Validationf("Payment QR code must be a base64 data URL")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = data
	}

	img, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(img) == 0 {
		return nil, "", common.Validationf("Payment QR code must be base64 encoded")
	}
	if contentType == "" {
		contentType = http.DetectContentType(img)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", common.Validationf("Payment QR code must be an image")
	}
	return img, contentType, nil
}

func (s *EventService) putQR(ctx context.Context, eventID, raw string) (string, error) {
	if s.store == nil {
		return "", common.Validationf("Payment QR upload is not configured")
	}
	img, contentType, err := decodeQR(raw)
	if err != nil {
		return "", err
	}
	key := qrKey(eventID)
	if err := s.store.Put(ctx, key, contentType, img); err != nil {
		return "", fmt.Errorf("store payment QR: %w", err)
	}
	return key, nil
}

func (s *EventService) removeQR(ctx context.Context, key string) {
	if key == "" || s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "delete payment QR failed", "key", key, "error", err)
	}
}

// Create publishes a new event owned by id.
func (s *EventService) Create(ctx context.Context, id *Identity, f EventFields) (*models.Event, error) {
	if err := s.guard.RequireAdmin(id); err != nil {
		return nil, err
	}

	e := &models.Event{ID: uuid.NewString(), CreatedBy: id.ID}
	f.apply(e)
	if err := validateEvent(e); err != nil {
		return nil, err
	}

	if e.PaymentRequired && f.PaymentQRCode != nil && *f.PaymentQRCode != "" {
		key, err := s.putQR(ctx, e.ID, *f.PaymentQRCode)
		if err != nil {
			return nil, err
		}
		e.PaymentQRKey = key
	}

	created, err := s.repos.Events().Create(ctx, e)
	if err != nil {
		s.removeQR(ctx, e.PaymentQRKey)
		return nil, err
	}

	s.logger.Info(ctx, "event created", "event_id", created.ID, "admin_id", id.ID)
	if err := decorate(ctx, s.repos, s.store, s.logger, created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update changes an event. Only its creator may do so.
func (s *EventService) Update(ctx context.Context, id *Identity, eventID string, f EventFields) (*models.Event, error) {
	if err := s.guard.RequireAdmin(id); err != nil {
		return nil, err
	}
	e, err := getEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(id, e); err != nil {
		return nil, err
	}

	oldKey := e.PaymentQRKey
	f.apply(e)
	if err := validateEvent(e); err != nil {
		return nil, err
	}

	switch {
	case !e.PaymentRequired:
		e.PaymentQRKey = ""
	case f.PaymentQRCode == nil:
	case *f.PaymentQRCode == "":
		e.PaymentQRKey = ""
	default:
		key, err := s.putQR(ctx, e.ID, *f.PaymentQRCode)
		if err != nil {
			return nil, err
		}
		e.PaymentQRKey = key
	}

	updated, err := s.repos.Events().Update(ctx, e)
	if err != nil {
		return nil, err
	}
	if oldKey != "" && updated.PaymentQRKey == "" {
		s.removeQR(ctx, oldKey)
	}

	if err := decorate(ctx, s.repos, s.store, s.logger, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// deleteEvent removes an event with its registrations in one unit of work.
func (s *EventService) deleteEvent(ctx context.Context, e *models.Event) error {
	err := s.repos.RunInTx(ctx, func(ctx context.Context, tx repomanager.Repositories) error {
		if err := tx.Registrations().DeleteByEvent(ctx, e.ID); err != nil {
			return err
		}
		return tx.Events().Delete(ctx, e.ID)
	})
	if err != nil {
		return err
	}
	s.removeQR(ctx, e.PaymentQRKey)
	return nil
}

// Delete removes an event and its registrations. Only its creator may do so.
func (s *EventService) Delete(ctx context.Context, id *Identity, eventID string) error {
	if err := s.guard.RequireAdmin(id); err != nil {
		return err
	}
	e, err := getEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return err
	}
	if err := s.guard.RequireOwner(id, e); err != nil {
		return err
	}
	if err := s.deleteEvent(ctx, e); err != nil {
		return err
	}
	s.logger.Info(ctx, "event deleted", "event_id", e.ID, "admin_id", id.ID)
	return nil
}

// Get returns one event with its computed fields.
func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	e, err := getEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if err := decorate(ctx, s.repos, s.store, s.logger, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns every event, latest date first.
func (s *EventService) List(ctx context.Context) ([]*models.Event, error) {
	list, err := s.repos.Events().List(ctx)
	if err != nil {
		return nil, err
	}
	if err := decorate(ctx, s.repos, s.store, s.logger, list...); err != nil {
		return nil, err
	}
	return list, nil
}

// Registrations lists an event's registrations for its creator.
func (s *EventService) Registrations(ctx context.Context, id *Identity, eventID string) ([]*models.Registration, error) {
	if err := s.guard.RequireAdmin(id); err != nil {
		return nil, err
	}
	e, err := getEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(id, e); err != nil {
		return nil, err
	}
	return s.repos.Registrations().ListByEvent(ctx, e.ID)
}

var csvHeader = []string{"Name", "USN", "Email", "Phone", "Semester", "Transaction ID", "Registered At"}

// ExportCSV renders an event's registrations as CSV for its creator.
func (s *EventService) ExportCSV(ctx context.Context, id *Identity, eventID string) (filename string, data []byte, err error) {
	if err := s.guard.RequireAdmin(id); err != nil {
		return "", nil, err
	}
	e, err := getEvent(ctx, s.repos.Events(), eventID)
	if err != nil {
		return "", nil, err
	}
	if err := s.guard.RequireOwner(id, e); err != nil {
		return "", nil, err
	}

	regs, err := s.repos.Registrations().ListByEvent(ctx, e.ID)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", nil, err
	}
	for _, r := range regs {
		txID := "N/A"
		if r.TransactionID != nil && *r.TransactionID != "" {
			txID = *r.TransactionID
		}
		row := []string{r.Name, r.USN, r.Email, r.Phone, r.Semester, txID, r.RegisteredAt.UTC().Format(time.RFC3339)}
		if err := w.Write(row); err != nil {
			return "", nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, err
	}

	return e.CSVFileName(), buf.Bytes(), nil
}

// DashboardStats summarises the catalogue for admins.
func (s *EventService) DashboardStats(ctx context.Context, id *Identity) (*models.DashboardStats, error) {
	if err := s.guard.RequireAdmin(id); err != nil {
		return nil, err
	}

	total, err := s.repos.Events().Count(ctx)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repos.Events().CountUpcoming(ctx, s.now())
	if err != nil {
		return nil, err
	}
	regs, err := s.repos.Registrations().Count(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repos.Events().Recent(ctx, RecentEventsLimit)
	if err != nil {
		return nil, err
	}
	if err := decorate(ctx, s.repos, s.store, s.logger, recent...); err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		TotalEvents:        total,
		UpcomingEvents:     upcoming,
		TotalRegistrations: regs,
		RecentEvents:       recent,
	}, nil
}

// CleanupExpired deletes every event whose registration deadline has
// passed and reports how many were removed. It keeps going after a failed
// delete and returns the first error.
func (s *EventService) CleanupExpired(ctx context.Context) (int, error) {
	expired, err := s.repos.Events().ListExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	var (
		removed  int
		firstErr error
	)
	for _, e := range expired {
		if err := s.deleteEvent(ctx, e); err != nil {
			s.logger.Error(ctx, "cleanup delete failed", "event_id", e.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info(ctx, "expired events removed", "count", removed)
	}
	return removed, firstErr
}
