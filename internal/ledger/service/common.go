package service

import (
	"context"
	"errors"
	"time"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/shared"
)

var (
	ErrUnauthenticated         = errors.New("an authenticated user is required")
	ErrEventArchiveUnavailable = errors.New("event archive is not configured")
)

// TodayView is today's register state. Register is nil before the day is started.
type TodayView struct {
	Date            string               `json:"date"`
	Open            bool                 `json:"open"`
	Register        *register.Register   `json:"register"`
	RecentMovements []*movement.Movement `json:"recent_movements"`
}

// Operation names reported to metrics
const (
	opStartDay       = "start_day"
	opCloseDay       = "close_day"
	opCreateMovement = "create_movement"
	opDeleteMovement = "delete_movement"
	opPerformClosing = "perform_closing"
	opCreateCompany  = "create_company"
	opUpdateCompany  = "update_company"
)

func requireActor(ctx context.Context) (shared.Actor, error) {
	actor, ok := shared.ActorFromContext(ctx)
	if !ok || actor.UserID == "" {
		return shared.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}

func parseDayField(field, value string, loc *time.Location) (time.Time, error) {
	day, err := clock.ParseDay(value, loc)
	if err != nil {
		return time.Time{}, shared.NewValidationError(field, "datetime", "must use the 2006-01-02 format")
	}
	return day, nil
}

// dayWindow resolves an inclusive pair of calendar days into the half-open window
// [start, day after end)
func dayWindow(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	from, to, err := clock.DayRange(start, end, loc)
	switch {
	case err == nil:
		return from, to, nil
	case errors.Is(err, clock.ErrInvertedDays):
		return time.Time{}, time.Time{}, shared.NewValidationError("start_date", "ltefield", "must not be after end_date")
	}
	if _, startErr := parseDayField("start_date", start, loc); startErr != nil {
		return time.Time{}, time.Time{}, startErr
	}
	_, endErr := parseDayField("end_date", end, loc)
	return time.Time{}, time.Time{}, endErr
}
