package attendance

import (
	"context"
	"errors"
	"strings"
	"sync"

	"attendance-svc/src/internal/clock"
	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// CredentialValidator gates check-in on a presented code. Implemented by the
// credential service.
type CredentialValidator interface {
	Validate(ctx context.Context, code string) error
}

// EmployeeDirectory answers existence lookups against the external employee
// service.
type EmployeeDirectory interface {
	ExistsById(ctx context.Context, employeeID string) (bool, error)
}

// ActivityPublisher emits attendance events for downstream consumers.
type ActivityPublisher interface {
	PublishActivity(employeeID, sessionID, serviceName, action string) error
}

type Service interface {
	CheckIn(ctx context.Context, employeeID, code string) (*WorkSession, error)
	CheckOut(ctx context.Context, employeeID string) (*WorkSession, error)
	CurrentStatus(ctx context.Context, employeeID string) (*StatusResponse, error)
}

type attendanceService struct {
	repository  Repository
	credentials CredentialValidator
	directory   EmployeeDirectory
	publisher   ActivityPublisher
	clk         clock.Clock
	cfg         *config.Configuration

	// Per-employee locks serialize the read-then-write sequences of CheckIn
	// and CheckOut. Different employees proceed in parallel; the partial
	// unique index backs this up across processes.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAttendanceService(
	repository Repository,
	credentials CredentialValidator,
	directory EmployeeDirectory,
	publisher ActivityPublisher,
	clk clock.Clock,
	cfg *config.Configuration,
) Service {
	return &attendanceService{
		repository:  repository,
		credentials: credentials,
		directory:   directory,
		publisher:   publisher,
		clk:         clk,
		cfg:         cfg,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (s *attendanceService) employeeLock(employeeID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[employeeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[employeeID] = lock
	}
	return lock
}

func (s *attendanceService) CheckIn(ctx context.Context, employeeID, code string) (*WorkSession, error) {
	employeeID = strings.TrimSpace(employeeID)
	code = strings.TrimSpace(code)
	if employeeID == "" || code == "" {
		return nil, models.ErrInvalidInput
	}

	if err := s.credentials.Validate(ctx, code); err != nil {
		logrus.WithField("employee_id", employeeID).Info("Check-in rejected: credential validation failed")
		return nil, err
	}

	exists, err := s.directory.ExistsById(ctx, employeeID)
	if err != nil {
		logrus.WithError(err).WithField("employee_id", employeeID).Error("Employee lookup failed")
		return nil, models.ErrStorageUnavailable
	}
	if !exists {
		logrus.WithField("employee_id", employeeID).Warn("Check-in rejected: unknown employee")
		return nil, models.ErrEmployeeNotFound
	}

	lock := s.employeeLock(employeeID)
	lock.Lock()
	defer lock.Unlock()

	open, err := s.repository.FindOpen(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		logrus.WithFields(logrus.Fields{
			"employee_id": employeeID,
			"session_id":  open.ID.Hex(),
		}).Info("Check-in rejected: session already open")
		return nil, models.ErrAlreadyCheckedIn
	}

	session := &WorkSession{
		EmployeeID: employeeID,
		CheckIn:    s.clk.Now(),
		Status:     StatusCheckedIn,
	}

	if err := s.repository.Insert(ctx, session); err != nil {
		// The partial unique index converts a cross-process race into a
		// duplicate key, which reads as a concurrent check-in.
		if errors.Is(err, models.ErrDuplicateRecord) {
			return nil, models.ErrAlreadyCheckedIn
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"session_id":  session.ID.Hex(),
		"check_in":    session.CheckIn,
	}).Info("Employee checked in")

	s.publish(employeeID, session.ID.Hex(), models.ActionCheckIn)

	return session, nil
}

func (s *attendanceService) CheckOut(ctx context.Context, employeeID string) (*WorkSession, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, models.ErrInvalidInput
	}

	lock := s.employeeLock(employeeID)
	lock.Lock()
	defer lock.Unlock()

	open, err := s.repository.FindOpen(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		logrus.WithField("employee_id", employeeID).Info("Check-out rejected: no open session")
		return nil, models.ErrNotCheckedIn
	}

	closed, err := s.repository.Close(ctx, open.ID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	if closed == nil {
		// Session was closed between the lookup and the update.
		return nil, models.ErrNotCheckedIn
	}

	logrus.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"session_id":  closed.ID.Hex(),
		"check_out":   closed.CheckOut,
	}).Info("Employee checked out")

	s.publish(employeeID, closed.ID.Hex(), models.ActionCheckOut)

	return closed, nil
}

func (s *attendanceService) CurrentStatus(ctx context.Context, employeeID string) (*StatusResponse, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, models.ErrInvalidInput
	}

	open, err := s.repository.FindOpen(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if open == nil {
		return &StatusResponse{Status: StatusCheckedOut}, nil
	}

	return &StatusResponse{
		Status:  StatusCheckedIn,
		Session: open,
		Elapsed: FormatDuration(s.clk.Now().Sub(open.CheckIn)),
	}, nil
}

// publish emits an activity event, best-effort. Event delivery must never
// fail an attendance operation.
func (s *attendanceService) publish(employeeID, sessionID, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(employeeID, sessionID, models.ServiceAttendanceEngine, action); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"employee_id": employeeID,
			"action":      action,
		}).Warn("Failed to publish attendance activity")
	}
}
