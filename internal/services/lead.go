package services

import (
	"context"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/models"
)

const (
	maxLeadNameLen    = 200
	maxLeadMessageLen = 4000
	minPhoneDigits    = 7
	maxPhoneDigits    = 15
)

type leadStore interface {
	Create(ctx context.Context, l *models.Lead) error
}

// LeadQueue schedules a notification for a stored lead.
type LeadQueue interface {
	Enqueue(ctx context.Context, leadID uuid.UUID) error
}

type LeadService struct {
	repo  leadStore
	queue LeadQueue
}

// NewLeadService stores leads in repo. queue may be nil, in which case no
// notification is scheduled.
func NewLeadService(repo leadStore, queue LeadQueue) *LeadService {
	return &LeadService{repo: repo, queue: queue}
}

// Create validates and stores a lead. A failure to schedule its notification
// is logged and does not fail the request; the lead stays pending.
func (s *LeadService) Create(ctx context.Context, req models.CreateLeadRequest) (*models.Lead, error) {
	lead, err := normalizeLead(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, errors.Wrap(err, "failed to store lead")
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, lead.ID); err != nil {
			log.Warn().Err(err).Str("lead_id", lead.ID.String()).Msg("failed to enqueue lead notification")
		}
	}

	return lead, nil
}

func normalizeLead(req models.CreateLeadRequest) (*models.Lead, error) {
	fieldErrors := make(map[string]string)

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	email := strings.TrimSpace(req.Email)
	message := strings.TrimSpace(req.Message)

	switch {
	case name == "":
		fieldErrors["name"] = "Name is required"
	case utf8.RuneCountInString(name) > maxLeadNameLen:
		fieldErrors["name"] = "Name is too long"
	}

	if phone == "" && email == "" {
		fieldErrors["contact"] = "Phone or email is required"
	}
	if phone != "" && !validPhone(phone) {
		fieldErrors["phone"] = "Invalid phone number"
	}
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			fieldErrors["email"] = "Invalid email address"
		}
	}

	if utf8.RuneCountInString(message) > maxLeadMessageLen {
		fieldErrors["message"] = "Message is too long"
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	return &models.Lead{
		Name:    name,
		Phone:   phone,
		Email:   strings.ToLower(email),
		Message: message,
		Source:  "site",
	}, nil
}

// validPhone accepts digits with the usual separators and an optional
// leading plus, e.g. "+375 (29) 123-45-67".
func validPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}
