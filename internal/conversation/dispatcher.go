package conversation

import (
	"context"
	"fmt"

	"github.com/atlas-develop/clinic-assistant/internal/notify"
	"github.com/atlas-develop/clinic-assistant/internal/observability/metrics"
	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

const (
	suffixBooked        = "✅ You're booked!"
	suffixFriendBooked  = "✅ Booking created!"
	suffixRescheduled   = "🔄 Booking rescheduled!"
	suffixCancelled     = "🚫 Booking cancelled!"
	suffixEscalated     = "👨‍⚕️ Your request has been forwarded to the support chat! The first available operator will reply to you"
	suffixActionFailed  = "⚠️ Action failed."
	suffixUnknownFormat = "⚠️ Unknown function: %s"
)

type dialogResetter interface {
	Reset(ctx context.Context, clientID int64) error
}

type operatorNotifier interface {
	Escalate(ctx context.Context, user notify.UserProfile, text string)
}

// Dispatcher executes classified actions against the booking ledger. Each
// successful action contributes a human-readable suffix for the answer;
// failures degrade per action and never abort the remaining ones.
type Dispatcher struct {
	bookings bookingLedger
	dialog   dialogResetter
	notifier operatorNotifier
	metrics  *metrics.TurnMetrics
	logger   *logging.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(bookings bookingLedger, dialog dialogResetter, notifier operatorNotifier, m *metrics.TurnMetrics, logger *logging.Logger) *Dispatcher {
	if bookings == nil {
		panic("conversation: booking ledger required")
	}
	if dialog == nil {
		panic("conversation: dialog resetter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		bookings: bookings,
		dialog:   dialog,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Dispatch runs every action under the authenticated caller's client id and
// returns the answer suffixes in action order. A committed booking mutation
// closes the current negotiation, so it resets the dialog; creating a
// friend's booking and operator escalation leave the dialog intact.
func (d *Dispatcher) Dispatch(ctx context.Context, clientID int64, user notify.UserProfile, actions []Action) []string {
	suffixes := make([]string, 0, len(actions))
	for _, action := range actions {
		var (
			name   string
			suffix string
			reset  bool
			err    error
		)
		switch a := action.(type) {
		case BookSelf:
			name, suffix, reset = "write_recept", suffixBooked, true
			err = d.bookings.Book(ctx, clientID, a.EventID, a.ClientFIO, a.Problem)
		case RescheduleSelf:
			name, suffix, reset = "write_me_update", suffixRescheduled, true
			err = d.bookings.Reschedule(ctx, clientID, a.EventID)
		case CancelSelf:
			name, suffix, reset = "write_me_cancel", suffixCancelled, true
			err = d.bookings.Cancel(ctx, clientID, a.EventID)
		case BookFriend:
			name, suffix = "write_recept_friend", suffixFriendBooked
			err = d.bookings.BookForFriend(ctx, clientID, a.FriendName, a.FriendFIO, a.EventID, a.Problem)
		case RescheduleFriendBooking:
			name, suffix, reset = "write_friend_update", suffixRescheduled, true
			err = d.bookings.RescheduleFriend(ctx, a.BookingID, a.EventID)
		case CancelFriendBooking:
			name, suffix, reset = "write_friend_cancel", suffixCancelled, true
			err = d.bookings.CancelFriend(ctx, a.BookingID)
		case NotifyOperator:
			name, suffix = "notify_operator", suffixEscalated
			if d.notifier != nil {
				d.notifier.Escalate(ctx, user, a.Message)
			}
		case UnknownCall:
			d.metrics.ObserveFunctionCall(a.Name, "unknown")
			suffixes = append(suffixes, fmt.Sprintf(suffixUnknownFormat, a.Name))
			continue
		default:
			// closed variant set; nothing else can reach here
			continue
		}

		if err != nil {
			d.metrics.ObserveFunctionCall(name, "error")
			d.logger.Error("function call failed",
				"function", name, "client_id", clientID, "error", err)
			suffixes = append(suffixes, suffixActionFailed)
			continue
		}
		d.metrics.ObserveFunctionCall(name, "ok")
		suffixes = append(suffixes, suffix)

		if reset {
			if err := d.dialog.Reset(ctx, clientID); err != nil {
				d.logger.Error("dialog reset after booking action failed",
					"client_id", clientID, "error", err)
			}
		}
	}
	return suffixes
}
