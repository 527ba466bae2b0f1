package credential

import (
	"context"
	"errors"
	"time"

	"attendance-svc/src/internal/clock"
	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Service interface {
	Issue(ctx context.Context, req *IssueRequest) (*Credential, error)
	ToggleLock(ctx context.Context, id string) (*Credential, error)
	Validate(ctx context.Context, code string) error
	SweepExpired(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*Credential, error)
	Remove(ctx context.Context, id string) error
	Stats(ctx context.Context) (active, locked, expired int64, err error)
	RunSweeper(ctx context.Context)
}

type credentialService struct {
	repository Repository
	clk        clock.Clock
	cfg        *config.Configuration
}

func NewCredentialService(repository Repository, clk clock.Clock, cfg *config.Configuration) Service {
	return &credentialService{
		repository: repository,
		clk:        clk,
		cfg:        cfg,
	}
}

func (s *credentialService) Issue(ctx context.Context, req *IssueRequest) (*Credential, error) {
	now := s.clk.Now()
	if !req.ValidUntil.After(now) {
		logrus.WithFields(logrus.Fields{
			"valid_until": req.ValidUntil,
			"now":         now,
		}).Warn("Rejected credential issuance with expiry in the past")
		return nil, models.ErrInvalidInput
	}

	cred := &Credential{
		// UUIDv4 carries 122 random bits, enough to make codes unguessable.
		Code:        uuid.NewString(),
		ValidUntil:  req.ValidUntil,
		LocationTag: req.LocationTag,
		Locked:      false,
		CreatedAt:   now,
	}

	if err := s.repository.Insert(ctx, cred); err != nil {
		logrus.WithError(err).Error("Failed to store issued credential")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"credential_id": cred.ID.Hex(),
		"valid_until":   cred.ValidUntil,
		"location_tag":  cred.LocationTag,
	}).Info("Credential issued")

	return cred, nil
}

func (s *credentialService) ToggleLock(ctx context.Context, id string) (*Credential, error) {
	cred, err := s.repository.ToggleLock(ctx, id)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"credential_id": cred.ID.Hex(),
		"locked":        cred.Locked,
	}).Info("Credential lock toggled")

	return cred, nil
}

// Validate checks that a presented code exists, is unlocked and has not
// expired. All failure reasons collapse into ErrCredentialInvalid so callers
// cannot enumerate codes; the reason is logged internally.
func (s *credentialService) Validate(ctx context.Context, code string) error {
	now := s.clk.Now()

	// Lazy expiry sweep: mark stale credentials locked before looking up the
	// presented code. Sweep failures must not block validation.
	if _, err := s.repository.LockExpired(ctx, now); err != nil {
		logrus.WithError(err).Warn("Lazy expiry sweep failed, validating anyway")
	}

	cred, err := s.repository.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logrus.Debug("Credential validation failed: unknown code")
			return models.ErrCredentialInvalid
		}
		return err
	}

	if cred.Locked {
		logrus.WithField("credential_id", cred.ID.Hex()).Debug("Credential validation failed: locked")
		return models.ErrCredentialInvalid
	}

	if now.After(cred.ValidUntil) {
		logrus.WithField("credential_id", cred.ID.Hex()).Debug("Credential validation failed: expired")
		return models.ErrCredentialInvalid
	}

	return nil
}

func (s *credentialService) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.repository.LockExpired(ctx, s.clk.Now())
	if err != nil {
		return 0, err
	}

	if count > 0 {
		logrus.WithField("count", count).Info("Expired credentials locked")
	}
	return count, nil
}

func (s *credentialService) List(ctx context.Context) ([]*Credential, error) {
	return s.repository.GetAll(ctx)
}

func (s *credentialService) Remove(ctx context.Context, id string) error {
	if err := s.repository.Delete(ctx, id); err != nil {
		return err
	}

	logrus.WithField("credential_id", id).Info("Credential removed")
	return nil
}

func (s *credentialService) Stats(ctx context.Context) (int64, int64, int64, error) {
	now := s.clk.Now()

	active, err := s.repository.CountActive(ctx, now)
	if err != nil {
		return 0, 0, 0, err
	}

	locked, err := s.repository.CountLocked(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	expired, err := s.repository.CountExpired(ctx, now)
	if err != nil {
		return 0, 0, 0, err
	}

	return active, locked, expired, nil
}

// RunSweeper periodically locks expired credentials until ctx is cancelled.
// It shares the same idempotent repository operation as the lazy sweep in
// Validate, so both writers are safe to run concurrently.
func (s *credentialService) RunSweeper(ctx context.Context) {
	interval := time.Duration(s.cfg.Attendance.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	logrus.WithField("interval", interval).Info("Credential expiry sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Credential expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				logrus.WithError(err).Error("Background credential sweep failed")
			}
		}
	}
}
