package outbox

import (
	"context"
	"fmt"

	"github.com/cash-register-ledger/internal/domain/shared"
)

// Repository persists outbox messages. Create runs inside the unit of work of the
// mutation that produced the event; the relay uses the remaining methods.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	// GetPending returns up to limit PENDING messages, oldest first
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	// IncrementAttempts also stamps the attempt time
	IncrementAttempts(ctx context.Context, id int64) error
}

// ErrMessageNotFound is returned when the relay addresses a message that no longer exists
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox message not found: %d", e.ID)
}

// Is matches any ErrMessageNotFound when target carries no id
func (e ErrMessageNotFound) Is(target error) bool {
	t, ok := target.(ErrMessageNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}
