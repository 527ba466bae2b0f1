package attendance

import (
	"context"
	"sync"
	"time"

	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeClock pins the current time for deterministic state-machine tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSessionRepo is an in-memory Repository that honors the same partial
// unique constraint the Mongo index enforces: at most one CHECKED_IN session
// per employee.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []*WorkSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{}
}

func (r *fakeSessionRepo) Insert(_ context.Context, session *WorkSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sessions {
		if existing.EmployeeID == session.EmployeeID && existing.Status == StatusCheckedIn {
			return models.ErrDuplicateRecord
		}
	}

	session.ID = primitive.NewObjectID()
	copied := *session
	r.sessions = append(r.sessions, &copied)
	return nil
}

func (r *fakeSessionRepo) FindOpen(_ context.Context, employeeID string) (*WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newest *WorkSession
	for _, session := range r.sessions {
		if session.EmployeeID != employeeID || session.Status != StatusCheckedIn {
			continue
		}
		if newest == nil || session.CheckIn.After(newest.CheckIn) {
			newest = session
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}

func (r *fakeSessionRepo) Close(_ context.Context, id primitive.ObjectID, checkOut time.Time) (*WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		if session.ID == id && session.Status == StatusCheckedIn {
			out := checkOut
			session.CheckOut = &out
			session.Status = StatusCheckedOut
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindRecentClosed(_ context.Context, employeeID string, limit int) ([]*WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var closed []*WorkSession
	for _, session := range r.sessions {
		if session.EmployeeID == employeeID && session.Status == StatusCheckedOut && session.CheckOut != nil {
			copied := *session
			closed = append(closed, &copied)
		}
	}

	// Newest check-out first.
	for i := 0; i < len(closed); i++ {
		for j := i + 1; j < len(closed); j++ {
			if closed[j].CheckOut.After(*closed[i].CheckOut) {
				closed[i], closed[j] = closed[j], closed[i]
			}
		}
	}

	if len(closed) > limit {
		closed = closed[:limit]
	}
	return closed, nil
}

func (r *fakeSessionRepo) FindClosedByCheckInRange(_ context.Context, employeeID string, from, to time.Time) ([]*WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*WorkSession
	for _, session := range r.sessions {
		if session.EmployeeID != employeeID || session.Status != StatusCheckedOut {
			continue
		}
		if session.CheckIn.Before(from) || !session.CheckIn.Before(to) {
			continue
		}
		copied := *session
		matched = append(matched, &copied)
	}

	for i := 0; i < len(matched); i++ {
		for j := i + 1; j < len(matched); j++ {
			if matched[j].CheckIn.Before(matched[i].CheckIn) {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}
	return matched, nil
}

func (r *fakeSessionRepo) CountOpen(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, session := range r.sessions {
		if session.Status == StatusCheckedIn {
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) CountClosedByCheckInRange(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, session := range r.sessions {
		if session.Status == StatusCheckedOut && !session.CheckIn.Before(from) && session.CheckIn.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) EnsureIndexes(_ context.Context) error {
	return nil
}

// openCount reports how many CHECKED_IN sessions exist for one employee.
func (r *fakeSessionRepo) openCount(employeeID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, session := range r.sessions {
		if session.EmployeeID == employeeID && session.Status == StatusCheckedIn {
			count++
		}
	}
	return count
}

// insertClosed seeds a closed session directly, bypassing the engine.
func (r *fakeSessionRepo) insertClosed(employeeID string, checkIn time.Time, checkOut *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = append(r.sessions, &WorkSession{
		ID:         primitive.NewObjectID(),
		EmployeeID: employeeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     StatusCheckedOut,
	})
}

// fakeDirectory answers employee existence from a fixed set.
type fakeDirectory struct {
	known map[string]bool
}

func (d *fakeDirectory) ExistsById(_ context.Context, employeeID string) (bool, error) {
	return d.known[employeeID], nil
}

// stubValidator validates codes against an in-memory credential table using
// the shared fake clock, mirroring the credential service contract.
type stubValidator struct {
	clk        *fakeClock
	validUntil map[string]time.Time
	locked     map[string]bool
}

func (v *stubValidator) Validate(_ context.Context, code string) error {
	until, ok := v.validUntil[code]
	if !ok || v.locked[code] || v.clk.Now().After(until) {
		return models.ErrCredentialInvalid
	}
	return nil
}

// recordingPublisher captures published activity actions.
type recordingPublisher struct {
	mu      sync.Mutex
	actions []string
}

func (p *recordingPublisher) PublishActivity(_, _, _, action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	return nil
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		Attendance: config.AttendanceConfig{
			ReportingOffsetHours: 7,
			SweepIntervalMinutes: 5,
			RecentSessionsLimit:  5,
		},
	}
}
