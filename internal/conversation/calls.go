package conversation

import (
	"strconv"
	"strings"
)

// Action is a classified model function call. The set of variants is closed;
// dispatch switches over it exhaustively and only genuinely unrecognized
// model output lands in UnknownCall.
type Action interface {
	isAction()
}

// BookSelf books an appointment for the authenticated caller.
type BookSelf struct {
	EventID   int64
	ClientFIO string
	Problem   string
}

// RescheduleSelf moves all of the caller's active bookings to a new event.
type RescheduleSelf struct {
	EventID int64
}

// CancelSelf cancels the caller's booking for one event.
type CancelSelf struct {
	EventID int64
}

// BookFriend books an appointment on behalf of a named friend.
type BookFriend struct {
	FriendName string
	FriendFIO  string
	EventID    int64
	Problem    string
}

// RescheduleFriendBooking moves a friend's booking, keyed by booking id.
type RescheduleFriendBooking struct {
	BookingID int64
	EventID   int64
}

// CancelFriendBooking cancels a friend's booking, keyed by booking id.
type CancelFriendBooking struct {
	BookingID int64
}

// NotifyOperator forwards the user's request to the support group.
type NotifyOperator struct {
	Message string
}

// UnknownCall carries a function name outside the supported registry.
type UnknownCall struct {
	Name string
}

func (BookSelf) isAction()                {}
func (RescheduleSelf) isAction()          {}
func (CancelSelf) isAction()              {}
func (BookFriend) isAction()              {}
func (RescheduleFriendBooking) isAction() {}
func (CancelFriendBooking) isAction()     {}
func (NotifyOperator) isAction()          {}
func (UnknownCall) isAction()             {}

// Classify maps a raw call to its typed variant. Any model-supplied
// client_id is ignored: mutations always run under the authenticated
// caller's id, injected at dispatch.
func Classify(call RawCall) Action {
	switch call.Name {
	case "write_recept":
		return BookSelf{
			EventID:   intArg(call.Args, "event_id"),
			ClientFIO: strArg(call.Args, "client_fio"),
			Problem:   strArg(call.Args, "problem"),
		}
	case "write_me_update":
		return RescheduleSelf{EventID: intArg(call.Args, "event_id")}
	case "write_me_cancel":
		return CancelSelf{EventID: intArg(call.Args, "event_id")}
	case "write_recept_friend":
		return BookFriend{
			FriendName: strArg(call.Args, "friend_name"),
			FriendFIO:  strArg(call.Args, "friend_fio"),
			EventID:    intArg(call.Args, "friend_event_id"),
			Problem:    strArg(call.Args, "friend_problem"),
		}
	case "write_friend_update":
		return RescheduleFriendBooking{
			BookingID: intArg(call.Args, "friend_write_id"),
			EventID:   intArg(call.Args, "friend_event_id"),
		}
	case "write_friend_cancel":
		return CancelFriendBooking{BookingID: intArg(call.Args, "friend_write_id")}
	case "notify_operator":
		return NotifyOperator{Message: strArg(call.Args, "message")}
	default:
		return UnknownCall{Name: call.Name}
	}
}

// intArg coerces a model-supplied argument to int64; models emit ids as
// numbers or numeric strings interchangeably.
func intArg(args map[string]any, key string) int64 {
	switch v := args[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func strArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
