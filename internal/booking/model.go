package booking

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// View is the denormalized snapshot of one active booking, rendered the way
// the prompt and the "what am I booked for" answer present it.
type View struct {
	PlaceID   int64  `json:"place_id"`
	PlaceName string `json:"place_name"`
	EventID   int64  `json:"event_id"`
	EventDate string `json:"event_date"`
	EventTime string `json:"event_time"`
	ClientFIO string `json:"client_fio"`
	Problem   string `json:"problem"`
	Staff     string `json:"staff"`
}

// FriendView is a booking the client holds on behalf of a linked friend.
type FriendView struct {
	PlaceID    int64  `json:"friend_place_id"`
	PlaceName  string `json:"friend_place_name"`
	EventID    int64  `json:"friend_event_id"`
	EventDate  string `json:"friend_event_date"`
	EventTime  string `json:"friend_event_time"`
	FriendFIO  string `json:"friend_fio"`
	Problem    string `json:"friend_problem"`
	Staff      string `json:"staff"`
	BookingID  int64  `json:"friend_booking_id"`
	FriendName string `json:"friend_name"`
}

// formatEventDate renders a calendar date as DD.MM.YYYY.
func formatEventDate(d time.Time) string {
	return d.Format("02.01.2006")
}

// formatEventTime renders a time-of-day as zero-padded 24-hour HH:MM.
func formatEventTime(t pgtype.Time) string {
	totalMinutes := t.Microseconds / 1_000_000 / 60
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}

func formatStaff(fio, description string) string {
	if description == "" {
		return fio
	}
	return fio + ". " + description
}
