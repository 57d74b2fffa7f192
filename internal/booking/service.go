package booking

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atlas-develop/clinic-assistant/internal/clients"
	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

var bookingTracer = otel.Tracer("assistant.internal.booking")

// clientDirectory is the slice of the client directory the ledger needs to
// resolve friends by full name.
type clientDirectory interface {
	FindByFullName(ctx context.Context, fio string) (int64, error)
	CreateNamed(ctx context.Context, fio string) (int64, error)
}

// Service is the booking ledger: every mutating operation the dispatcher can
// trigger, plus the snapshot reads used by the prompt assembler.
type Service struct {
	repo      *Repository
	directory clientDirectory
	logger    *logging.Logger
}

// NewService constructs the booking ledger.
func NewService(repo *Repository, directory clientDirectory, logger *logging.Logger) *Service {
	if repo == nil {
		panic("booking: repository required")
	}
	if directory == nil {
		panic("booking: client directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, directory: directory, logger: logger}
}

// Book creates a booking for the client.
func (s *Service) Book(ctx context.Context, clientID, eventID int64, clientFIO, problem string) error {
	ctx, span := bookingTracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(attribute.Int64("assistant.event_id", eventID))

	if err := s.repo.Create(ctx, clientID, eventID, clientFIO, problem); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("booking created", "client_id", clientID, "event_id", eventID)
	return nil
}

// Reschedule moves all of the client's active bookings to the new event.
func (s *Service) Reschedule(ctx context.Context, clientID, newEventID int64) error {
	ctx, span := bookingTracer.Start(ctx, "booking.reschedule")
	defer span.End()

	rows, err := s.repo.Reschedule(ctx, clientID, newEventID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("booking rescheduled", "client_id", clientID, "event_id", newEventID, "rows", rows)
	return nil
}

// Cancel marks the client's booking for the event as cancelled. Cancelling a
// booking that is already cancelled is a no-op.
func (s *Service) Cancel(ctx context.Context, clientID, eventID int64) error {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel")
	defer span.End()

	rows, err := s.repo.Cancel(ctx, clientID, eventID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("booking cancelled", "client_id", clientID, "event_id", eventID, "rows", rows)
	return nil
}

// BookForFriend books an event on behalf of a named friend. The friend's
// client row is resolved by exact full-name match and created when absent;
// the requester→friend link is ensured; the booking is owned by the friend.
func (s *Service) BookForFriend(ctx context.Context, clientID int64, friendName, friendFIO string, eventID int64, problem string) error {
	ctx, span := bookingTracer.Start(ctx, "booking.create_for_friend")
	defer span.End()

	friendID, err := s.directory.FindByFullName(ctx, friendFIO)
	if errors.Is(err, clients.ErrNotFound) {
		friendID, err = s.directory.CreateNamed(ctx, friendFIO)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.repo.EnsureFriendLink(ctx, clientID, friendID, friendName); err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.repo.Create(ctx, friendID, eventID, friendFIO, problem); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("friend booking created",
		"client_id", clientID, "friend_id", friendID, "event_id", eventID)
	return nil
}

// RescheduleFriend moves one friend booking, addressed by booking id.
func (s *Service) RescheduleFriend(ctx context.Context, bookingID, newEventID int64) error {
	ctx, span := bookingTracer.Start(ctx, "booking.reschedule_friend")
	defer span.End()

	rows, err := s.repo.RescheduleByID(ctx, bookingID, newEventID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("friend booking rescheduled", "booking_id", bookingID, "event_id", newEventID, "rows", rows)
	return nil
}

// CancelFriend cancels one friend booking, addressed by booking id.
func (s *Service) CancelFriend(ctx context.Context, bookingID int64) error {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel_friend")
	defer span.End()

	rows, err := s.repo.CancelByID(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("friend booking cancelled", "booking_id", bookingID, "rows", rows)
	return nil
}

// ListActive returns the client's own active bookings.
func (s *Service) ListActive(ctx context.Context, clientID int64) ([]View, error) {
	return s.repo.ListActive(ctx, clientID)
}

// ListFriendBookings returns bookings held on behalf of linked friends.
func (s *Service) ListFriendBookings(ctx context.Context, clientID int64) ([]FriendView, error) {
	return s.repo.ListFriendBookings(ctx, clientID)
}
