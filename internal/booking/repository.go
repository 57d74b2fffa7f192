package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for bookings and friend links.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("booking: db required")
	}
	return &Repository{db: db}
}

// Create inserts a new active booking. No uniqueness is enforced: a client may
// hold several simultaneous bookings.
func (r *Repository) Create(ctx context.Context, clientID, eventID int64, clientFIO, problem string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (event_id, client_id, client_fio, problem)
		VALUES ($1, $2, $3, $4)
	`, eventID, clientID, clientFIO, problem)
	if err != nil {
		return fmt.Errorf("booking: insert failed: %w", err)
	}
	return nil
}

// Reschedule moves every active booking of the client to the new event.
// The bulk update is deliberate: the legacy client-facing reschedule is not
// booking-id scoped.
func (r *Repository) Reschedule(ctx context.Context, clientID, newEventID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET event_id = $1, updated_at = now()
		WHERE client_id = $2 AND NOT is_deleted
	`, newEventID, clientID)
	if err != nil {
		return 0, fmt.Errorf("booking: reschedule failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Cancel marks the client's active booking for the event as cancelled.
// Zero affected rows (already cancelled or never booked) is not an error.
func (r *Repository) Cancel(ctx context.Context, clientID, eventID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET is_deleted = TRUE, updated_at = now()
		WHERE client_id = $1 AND event_id = $2 AND NOT is_deleted
	`, clientID, eventID)
	if err != nil {
		return 0, fmt.Errorf("booking: cancel failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RescheduleByID moves a single active booking, addressed by booking id.
// Friend bookings are managed this way because several friends may share an event.
func (r *Repository) RescheduleByID(ctx context.Context, bookingID, newEventID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET event_id = $1, updated_at = now()
		WHERE id = $2 AND NOT is_deleted
	`, newEventID, bookingID)
	if err != nil {
		return 0, fmt.Errorf("booking: reschedule by id failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CancelByID cancels a single active booking, addressed by booking id.
func (r *Repository) CancelByID(ctx context.Context, bookingID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET is_deleted = TRUE, updated_at = now()
		WHERE id = $1 AND NOT is_deleted
	`, bookingID)
	if err != nil {
		return 0, fmt.Errorf("booking: cancel by id failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// EnsureFriendLink inserts the requester→friend association unless an active
// link already exists. The partial unique index makes the insert race-free.
func (r *Repository) EnsureFriendLink(ctx context.Context, clientID, friendID int64, friendName string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO friend_links (client_id, friend_id, friend_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id, friend_id) WHERE NOT is_deleted DO NOTHING
	`, clientID, friendID, friendName)
	if err != nil {
		return fmt.Errorf("booking: insert friend link failed: %w", err)
	}
	return nil
}

// ListActive returns the client's active bookings on future-or-today events,
// denormalized with place and staff details.
func (r *Repository) ListActive(ctx context.Context, clientID int64) ([]View, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.place_id, p.name, e.id, e.event_date, e.event_time,
		       b.client_fio, b.problem, s.fio, s.description
		FROM bookings b
		JOIN events e ON b.event_id = e.id
		JOIN places p ON e.place_id = p.id
		JOIN staff s ON e.staff_id = s.id
		WHERE NOT b.is_deleted AND e.event_date >= CURRENT_DATE AND b.client_id = $1
		ORDER BY e.event_date ASC, e.event_time ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("booking: select active failed: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		var (
			v         View
			eventDate time.Time
			eventTime pgtype.Time
			staffFIO  string
			staffDesc string
		)
		if err := rows.Scan(&v.PlaceID, &v.PlaceName, &v.EventID, &eventDate, &eventTime,
			&v.ClientFIO, &v.Problem, &staffFIO, &staffDesc); err != nil {
			return nil, fmt.Errorf("booking: scan active failed: %w", err)
		}
		v.EventDate = formatEventDate(eventDate)
		v.EventTime = formatEventTime(eventTime)
		v.Staff = formatStaff(staffFIO, staffDesc)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: active rows failed: %w", err)
	}
	return views, nil
}

// ListFriendBookings returns active bookings the client holds on behalf of
// linked friends.
func (r *Repository) ListFriendBookings(ctx context.Context, clientID int64) ([]FriendView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.place_id, p.name, e.id, e.event_date, e.event_time,
		       b.client_fio, b.problem, s.fio, s.description, b.id, f.friend_name
		FROM friend_links f
		JOIN bookings b ON b.client_id = f.friend_id AND NOT b.is_deleted
		JOIN events e ON b.event_id = e.id AND e.event_date >= CURRENT_DATE
		JOIN places p ON e.place_id = p.id
		JOIN staff s ON e.staff_id = s.id
		WHERE f.client_id = $1 AND NOT f.is_deleted
		ORDER BY e.event_date ASC, e.event_time ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("booking: select friend bookings failed: %w", err)
	}
	defer rows.Close()

	var views []FriendView
	for rows.Next() {
		var (
			v         FriendView
			eventDate time.Time
			eventTime pgtype.Time
			staffFIO  string
			staffDesc string
		)
		if err := rows.Scan(&v.PlaceID, &v.PlaceName, &v.EventID, &eventDate, &eventTime,
			&v.FriendFIO, &v.Problem, &staffFIO, &staffDesc, &v.BookingID, &v.FriendName); err != nil {
			return nil, fmt.Errorf("booking: scan friend booking failed: %w", err)
		}
		v.EventDate = formatEventDate(eventDate)
		v.EventTime = formatEventTime(eventTime)
		v.Staff = formatStaff(staffFIO, staffDesc)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: friend rows failed: %w", err)
	}
	return views, nil
}
