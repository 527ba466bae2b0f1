package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"attendance-svc/src/internal/clock"
	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// CredentialCounter supplies credential counts for the stats snapshot.
// Implemented by the credential service.
type CredentialCounter interface {
	Stats(ctx context.Context) (active, locked, expired int64, err error)
}

type HistoryService interface {
	RecentSessions(ctx context.Context, employeeID string) ([]RecentSession, error)
	DayHistory(ctx context.Context, employeeID, date string) (*DayHistoryResponse, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type historyService struct {
	repository  Repository
	credentials CredentialCounter
	clk         clock.Clock
	cfg         *config.Configuration
}

func NewHistoryService(repository Repository, credentials CredentialCounter, clk clock.Clock, cfg *config.Configuration) HistoryService {
	return &historyService{
		repository:  repository,
		credentials: credentials,
		clk:         clk,
		cfg:         cfg,
	}
}

// RecentSessions returns the most recently closed sessions, newest first.
// No durations: in this mode duration is a presentation concern.
func (s *historyService) RecentSessions(ctx context.Context, employeeID string) ([]RecentSession, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, models.ErrInvalidInput
	}

	limit := s.cfg.Attendance.RecentSessionsLimit
	if limit <= 0 {
		limit = 5
	}

	sessions, err := s.repository.FindRecentClosed(ctx, employeeID, limit)
	if err != nil {
		return nil, err
	}

	recent := make([]RecentSession, 0, len(sessions))
	for _, session := range sessions {
		recent = append(recent, RecentSession{
			CheckIn:  session.CheckIn,
			CheckOut: session.CheckOut,
		})
	}

	return recent, nil
}

// DayHistory returns all closed sessions whose check-in falls inside the
// given calendar day of the configured reporting timezone, with per-session
// and total worked durations.
func (s *historyService) DayHistory(ctx context.Context, employeeID, date string) (*DayHistoryResponse, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, models.ErrInvalidInput
	}

	day, err := time.Parse(dateLayout, date)
	if err != nil {
		logrus.WithField("date", date).Warn("Invalid history date")
		return nil, models.ErrInvalidInput
	}

	// Anchor the day to the parsed calendar date itself, not to an instant,
	// so negative reporting offsets do not shift it to the previous day.
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.reportingZone())
	dayEnd := dayStart.Add(24 * time.Hour)

	sessions, err := s.repository.FindClosedByCheckInRange(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	result := &DayHistoryResponse{
		Date:     date,
		Sessions: make([]DaySession, 0, len(sessions)),
	}

	var totalSeconds int64
	for _, session := range sessions {
		// A closed session should always carry a check-out; substitute now
		// defensively so reporting survives partially-migrated data.
		end := now
		if session.CheckOut != nil {
			end = *session.CheckOut
		}

		worked := int64(end.Sub(session.CheckIn) / time.Second)
		if worked < 0 {
			worked = 0
		}
		totalSeconds += worked

		result.Sessions = append(result.Sessions, DaySession{
			CheckIn:     session.CheckIn,
			CheckOut:    session.CheckOut,
			HoursWorked: FormatSeconds(worked),
		})
	}

	result.TotalWorked = FormatSeconds(totalSeconds)

	logrus.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"date":        date,
		"sessions":    len(result.Sessions),
		"total":       result.TotalWorked,
	}).Debug("Day history computed")

	return result, nil
}

func (s *historyService) Stats(ctx context.Context) (*models.Stats, error) {
	now := s.clk.Now()

	open, err := s.repository.CountOpen(ctx)
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := s.dayBounds(now)
	closedToday, err := s.repository.CountClosedByCheckInRange(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	active, locked, expired, err := s.credentials.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		OpenSessions:       open,
		ClosedToday:        closedToday,
		ActiveCredentials:  active,
		LockedCredentials:  locked,
		ExpiredCredentials: expired,
	}, nil
}

func (s *historyService) reportingZone() *time.Location {
	offset := s.cfg.Attendance.ReportingOffsetHours
	return time.FixedZone(fmt.Sprintf("UTC%+d", offset), offset*3600)
}

// dayBounds computes [00:00, 00:00+24h) of t's calendar day in the reporting
// offset.
func (s *historyService) dayBounds(t time.Time) (time.Time, time.Time) {
	zone := s.reportingZone()
	local := t.In(zone)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
	return dayStart, dayStart.Add(24 * time.Hour)
}
