package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/solidario/solidario/internal/metrics"
	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
)

// Service errors.
var (
	ErrNameRequired = errors.New("name is required")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrSelfSponsor  = errors.New("user cannot sponsor themselves")
)

const maxNameLength = 200

// registrationStore is the subset of the repository the registration
// service depends on.
type registrationStore interface {
	RegisterUser(ctx context.Context, user *model.User, referral *model.ReferralLink, entries []*model.LedgerEntry) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// SubscriberQueue receives fire-and-forget mailing list pushes.
type SubscriberQueue interface {
	EnqueueSubscriber(ctx context.Context, email, name string)
}

// RegistrationService handles member enrollment, including the atomic
// crediting of referral bonuses.
type RegistrationService struct {
	store   registrationStore
	bonuses BonusPolicy
	queue   SubscriberQueue
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewRegistrationService creates a new RegistrationService. queue may
// be nil when the mailing integration is disabled.
func NewRegistrationService(store registrationStore, bonuses BonusPolicy, queue SubscriberQueue, logger *slog.Logger, recorder metrics.Recorder) *RegistrationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RegistrationService{
		store:   store,
		bonuses: bonuses,
		queue:   queue,
		logger:  logger.With("component", "registration"),
		metrics: recorder,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Name      string
	Email     string
	SponsorID string
}

// Register enrolls a new member. When a sponsor is given, the sponsor
// is validated and the referral bonuses are written in the same
// transaction as the user row: a registration either commits with its
// bonuses or not at all.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, ErrNameRequired
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        ulid.Make().String(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
	}

	var referral *model.ReferralLink
	var entries []*model.LedgerEntry

	sponsorID := strings.TrimSpace(input.SponsorID)
	if sponsorID != "" {
		sponsor, err := s.store.GetUserByID(ctx, sponsorID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, repository.ErrSponsorNotFound
			}
			return nil, fmt.Errorf("lookup sponsor: %w", err)
		}
		if strings.EqualFold(sponsor.Email, email) {
			return nil, ErrSelfSponsor
		}

		user.SponsorID = &sponsorID
		referral = &model.ReferralLink{
			SponsorID:  sponsorID,
			ReferredID: user.ID,
			CreatedAt:  now,
		}
		entries = s.bonuses.EntriesForReferral(sponsorID, now)
	}

	if err := s.store.RegisterUser(ctx, user, referral, entries); err != nil {
		return nil, err
	}

	s.metrics.IncUserRegistered(user.HasSponsor())
	for _, e := range entries {
		s.metrics.IncBonusCredited(string(e.Category))
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.Bool("sponsored", user.HasSponsor()),
	)

	// Mailing list push happens after the transaction committed and
	// never affects the registration outcome.
	if s.queue != nil {
		s.queue.EnqueueSubscriber(ctx, user.Email, user.Name)
	}

	return user, nil
}

// GetUser returns a user by ID.
func (s *RegistrationService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
