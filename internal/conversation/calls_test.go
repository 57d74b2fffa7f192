package conversation

import "testing"

func TestClassifyBookSelf(t *testing.T) {
	action := Classify(RawCall{Name: "write_recept", Args: map[string]any{
		"event_id":   float64(146),
		"client_fio": "Ivan Petrov",
		"problem":    "back pain",
		"client_id":  float64(999), // model-supplied, must be ignored
	}})
	book, ok := action.(BookSelf)
	if !ok {
		t.Fatalf("expected BookSelf, got %T", action)
	}
	if book.EventID != 146 || book.ClientFIO != "Ivan Petrov" || book.Problem != "back pain" {
		t.Fatalf("unexpected variant: %+v", book)
	}
}

func TestClassifyCoercesNumericStrings(t *testing.T) {
	action := Classify(RawCall{Name: "write_me_update", Args: map[string]any{"event_id": "147"}})
	resched, ok := action.(RescheduleSelf)
	if !ok {
		t.Fatalf("expected RescheduleSelf, got %T", action)
	}
	if resched.EventID != 147 {
		t.Fatalf("unexpected event id: %d", resched.EventID)
	}
}

func TestClassifyFriendVariants(t *testing.T) {
	action := Classify(RawCall{Name: "write_recept_friend", Args: map[string]any{
		"friend_name":     "Mila",
		"friend_fio":      "Mila Ivanova",
		"friend_event_id": int64(150),
		"friend_problem":  "knee pain",
	}})
	book, ok := action.(BookFriend)
	if !ok {
		t.Fatalf("expected BookFriend, got %T", action)
	}
	if book.FriendName != "Mila" || book.FriendFIO != "Mila Ivanova" || book.EventID != 150 || book.Problem != "knee pain" {
		t.Fatalf("unexpected variant: %+v", book)
	}

	action = Classify(RawCall{Name: "write_friend_update", Args: map[string]any{
		"friend_write_id": float64(9),
		"friend_event_id": float64(151),
	}})
	upd, ok := action.(RescheduleFriendBooking)
	if !ok {
		t.Fatalf("expected RescheduleFriendBooking, got %T", action)
	}
	if upd.BookingID != 9 || upd.EventID != 151 {
		t.Fatalf("unexpected variant: %+v", upd)
	}

	action = Classify(RawCall{Name: "write_friend_cancel", Args: map[string]any{"friend_write_id": float64(9)}})
	if cancel, ok := action.(CancelFriendBooking); !ok || cancel.BookingID != 9 {
		t.Fatalf("unexpected variant: %#v", action)
	}
}

func TestClassifyNotifyOperator(t *testing.T) {
	action := Classify(RawCall{Name: "notify_operator", Args: map[string]any{"message": "help"}})
	if notifyOp, ok := action.(NotifyOperator); !ok || notifyOp.Message != "help" {
		t.Fatalf("unexpected variant: %#v", action)
	}
}

func TestClassifyUnknownName(t *testing.T) {
	action := Classify(RawCall{Name: "teleport", Args: map[string]any{"x": int64(1)}})
	if unknown, ok := action.(UnknownCall); !ok || unknown.Name != "teleport" {
		t.Fatalf("unexpected variant: %#v", action)
	}
}
