package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"attendance-svc/src/internal/models"
)

type stubCredentialCounter struct {
	active, locked, expired int64
}

func (s *stubCredentialCounter) Stats(_ context.Context) (int64, int64, int64, error) {
	return s.active, s.locked, s.expired, nil
}

type historyFixture struct {
	service HistoryService
	repo    *fakeSessionRepo
	clk     *fakeClock
}

func newHistoryFixture(t *testing.T) *historyFixture {
	t.Helper()

	clk := newFakeClock(time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC))
	repo := newFakeSessionRepo()
	service := NewHistoryService(repo, &stubCredentialCounter{active: 2, locked: 1, expired: 3}, clk, testConfig())

	return &historyFixture{service: service, repo: repo, clk: clk}
}

func closedAt(t time.Time) *time.Time {
	return &t
}

func TestRecentSessionsNewestFirstAndBounded(t *testing.T) {
	f := newHistoryFixture(t)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for day := 0; day < 7; day++ {
		in := base.AddDate(0, 0, day)
		f.repo.insertClosed("emp1", in, closedAt(in.Add(8*time.Hour)))
	}

	recent, err := f.service.RecentSessions(context.Background(), "emp1")
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}

	if len(recent) != 5 {
		t.Fatalf("len(recent) = %d, want 5", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].CheckOut.After(*recent[i-1].CheckOut) {
			t.Errorf("recent sessions not ordered newest first at index %d", i)
		}
	}
	// Newest closed session is day 6.
	wantNewest := base.AddDate(0, 0, 6)
	if !recent[0].CheckIn.Equal(wantNewest) {
		t.Errorf("recent[0].CheckIn = %v, want %v", recent[0].CheckIn, wantNewest)
	}
}

func TestRecentSessionsExcludesOpen(t *testing.T) {
	f := newHistoryFixture(t)

	f.repo.sessions = append(f.repo.sessions, &WorkSession{
		EmployeeID: "emp1",
		CheckIn:    f.clk.Now(),
		Status:     StatusCheckedIn,
	})

	recent, err := f.service.RecentSessions(context.Background(), "emp1")
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("len(recent) = %d, want 0 (open sessions are not history)", len(recent))
	}
}

// Day boundaries are computed in the reporting offset (UTC+7 in config):
// 2024-03-11 runs from 2024-03-10T17:00Z to 2024-03-11T17:00Z.
func TestDayHistoryBoundaries(t *testing.T) {
	f := newHistoryFixture(t)

	dayStart := time.Date(2024, 3, 10, 17, 0, 0, 0, time.UTC)

	inside1 := dayStart // inclusive lower bound
	inside2 := dayStart.Add(23*time.Hour + 59*time.Minute)
	before := dayStart.Add(-time.Second)
	atEnd := dayStart.Add(24 * time.Hour) // exclusive upper bound

	f.repo.insertClosed("emp1", inside1, closedAt(inside1.Add(time.Hour)))
	f.repo.insertClosed("emp1", inside2, closedAt(inside2.Add(30*time.Minute)))
	f.repo.insertClosed("emp1", before, closedAt(before.Add(time.Hour)))
	f.repo.insertClosed("emp1", atEnd, closedAt(atEnd.Add(time.Hour)))

	day, err := f.service.DayHistory(context.Background(), "emp1", "2024-03-11")
	if err != nil {
		t.Fatalf("DayHistory failed: %v", err)
	}

	if len(day.Sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(day.Sessions))
	}
	if !day.Sessions[0].CheckIn.Equal(inside1) || !day.Sessions[1].CheckIn.Equal(inside2) {
		t.Errorf("unexpected sessions selected: %+v", day.Sessions)
	}
}

func TestDayHistoryDurations(t *testing.T) {
	f := newHistoryFixture(t)

	dayStart := time.Date(2024, 3, 10, 17, 0, 0, 0, time.UTC)
	first := dayStart.Add(2 * time.Hour)
	second := dayStart.Add(10 * time.Hour)

	f.repo.insertClosed("emp1", first, closedAt(first.Add(time.Hour+time.Minute)))
	f.repo.insertClosed("emp1", second, closedAt(second.Add(30*time.Minute+59*time.Second)))

	day, err := f.service.DayHistory(context.Background(), "emp1", "2024-03-11")
	if err != nil {
		t.Fatalf("DayHistory failed: %v", err)
	}

	if day.Sessions[0].HoursWorked != "1h 1m 0s" {
		t.Errorf("sessions[0].hoursWorked = %q, want %q", day.Sessions[0].HoursWorked, "1h 1m 0s")
	}
	if day.Sessions[1].HoursWorked != "0h 30m 59s" {
		t.Errorf("sessions[1].hoursWorked = %q, want %q", day.Sessions[1].HoursWorked, "0h 30m 59s")
	}
	if day.TotalWorked != "1h 31m 59s" {
		t.Errorf("totalWorked = %q, want %q", day.TotalWorked, "1h 31m 59s")
	}
}

func TestDayHistoryEmptyDay(t *testing.T) {
	f := newHistoryFixture(t)

	day, err := f.service.DayHistory(context.Background(), "emp1", "2024-03-11")
	if err != nil {
		t.Fatalf("DayHistory failed: %v", err)
	}
	if len(day.Sessions) != 0 {
		t.Errorf("len(sessions) = %d, want 0", len(day.Sessions))
	}
	if day.TotalWorked != "0h 0m 0s" {
		t.Errorf("totalWorked = %q, want %q", day.TotalWorked, "0h 0m 0s")
	}
}

// A CHECKED_OUT row without a check-out timestamp should not break the
// report; its duration is taken up to now.
func TestDayHistoryMissingCheckOutUsesNow(t *testing.T) {
	f := newHistoryFixture(t)

	checkIn := f.clk.Now().Add(-90 * time.Minute)
	f.repo.insertClosed("emp1", checkIn, nil)

	day, err := f.service.DayHistory(context.Background(), "emp1", "2024-03-11")
	if err != nil {
		t.Fatalf("DayHistory failed: %v", err)
	}
	if len(day.Sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(day.Sessions))
	}
	if day.Sessions[0].HoursWorked != "1h 30m 0s" {
		t.Errorf("hoursWorked = %q, want %q", day.Sessions[0].HoursWorked, "1h 30m 0s")
	}
}

func TestDayHistoryInvalidDate(t *testing.T) {
	f := newHistoryFixture(t)

	if _, err := f.service.DayHistory(context.Background(), "emp1", "11-03-2024"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestStatsSnapshot(t *testing.T) {
	f := newHistoryFixture(t)

	// One open session and one closed today (reporting day of the fake now).
	f.repo.sessions = append(f.repo.sessions, &WorkSession{
		EmployeeID: "emp1",
		CheckIn:    f.clk.Now().Add(-time.Hour),
		Status:     StatusCheckedIn,
	})
	todayIn := f.clk.Now().Add(-3 * time.Hour)
	f.repo.insertClosed("emp2", todayIn, closedAt(todayIn.Add(2*time.Hour)))

	stats, err := f.service.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	want := models.Stats{
		OpenSessions:       1,
		ClosedToday:        1,
		ActiveCredentials:  2,
		LockedCredentials:  1,
		ExpiredCredentials: 3,
	}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
}
