package booking

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestCreateInsertsBooking(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(int64(146), int64(3), "Ivanov Ivan", "back pain").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), 3, 146, "Ivanov Ivan", "back pain"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRescheduleIsBulkForClient(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectExec("UPDATE bookings").
		WithArgs(int64(150), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	rows, err := repo.Reschedule(context.Background(), 3, 150)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 rows updated, got %d", rows)
	}
}

func TestCancelTwiceIsNoOp(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectExec("UPDATE bookings").
		WithArgs(int64(3), int64(146)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE bookings").
		WithArgs(int64(3), int64(146)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	rows, err := repo.Cancel(context.Background(), 3, 146)
	if err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row on first cancel, got %d", rows)
	}

	rows, err = repo.Cancel(context.Background(), 3, 146)
	if err != nil {
		t.Fatalf("second cancel should not error: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows on second cancel, got %d", rows)
	}
}

func TestListActiveFormatsDateAndTime(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	eventDate := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	nineThirty := pgtype.Time{Microseconds: (9*3600 + 30*60) * 1_000_000, Valid: true}

	mock.ExpectQuery("SELECT e.place_id").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{
			"place_id", "name", "id", "event_date", "event_time",
			"client_fio", "problem", "fio", "description",
		}).AddRow(
			int64(11), "Main clinic", int64(146), eventDate, nineThirty,
			"Ivanov Ivan", "back pain", "Sokolov I.V.", "19 years experience",
		))

	views, err := repo.ListActive(context.Background(), 3)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	v := views[0]
	if v.EventDate != "15.10.2025" {
		t.Errorf("expected date 15.10.2025, got %s", v.EventDate)
	}
	if v.EventTime != "09:30" {
		t.Errorf("expected time 09:30, got %s", v.EventTime)
	}
	if v.Staff != "Sokolov I.V.. 19 years experience" {
		t.Errorf("unexpected staff rendering: %s", v.Staff)
	}
}

func TestListFriendBookingsCarriesBookingID(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	eventDate := time.Date(2025, 10, 22, 0, 0, 0, 0, time.UTC)
	noon := pgtype.Time{Microseconds: 12 * 3600 * 1_000_000, Valid: true}

	mock.ExpectQuery("SELECT e.place_id").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{
			"place_id", "name", "id", "event_date", "event_time",
			"client_fio", "problem", "fio", "description", "booking_id", "friend_name",
		}).AddRow(
			int64(12), "North branch", int64(160), eventDate, noon,
			"Petrova Anna", "", "Karchevsky V.V.", "", int64(77), "Anna",
		))

	views, err := repo.ListFriendBookings(context.Background(), 3)
	if err != nil {
		t.Fatalf("list friend bookings: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].BookingID != 77 {
		t.Errorf("expected booking id 77, got %d", views[0].BookingID)
	}
	if views[0].EventTime != "12:00" {
		t.Errorf("expected time 12:00, got %s", views[0].EventTime)
	}
	if views[0].Staff != "Karchevsky V.V." {
		t.Errorf("expected bare staff fio, got %s", views[0].Staff)
	}
}
