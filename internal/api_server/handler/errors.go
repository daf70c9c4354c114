package handler

import (
	"errors"
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error onto the response envelope. Only
// unexpected failures are logged at error level.
func respondServiceError(c *gin.Context, logger *slog.Logger, operation string, err error) {
	var validationErr shared.ValidationError
	switch {
	case errors.As(err, &validationErr):
		RespondValidationError(c, validationErr.Errors)

	case errors.Is(err, movement.ErrInvalidAmount),
		errors.Is(err, movement.ErrMissingCompany),
		errors.Is(err, movement.ErrConsumerRequired),
		errors.Is(err, register.ErrNegativeOpeningBalance),
		errors.Is(err, company.ErrEmptyName),
		errors.Is(err, company.ErrInvalidPriceUnit),
		errors.Is(err, company.ErrInvalidBilling):
		RespondBadRequest(c, err.Error())

	case errors.Is(err, service.ErrUnauthenticated):
		RespondUnauthorized(c, err.Error())

	case errors.Is(err, movement.ErrCrossDayDeleteForbidden):
		RespondForbidden(c, err.Error())

	case errors.Is(err, company.ErrCompanyNotFound{}),
		errors.Is(err, movement.ErrMovementNotFound{}),
		errors.Is(err, closing.ErrClosingNotFound{}),
		errors.Is(err, register.ErrRegisterNotFound{}),
		errors.Is(err, event.ErrEventNotFound{}):
		RespondNotFound(c, err.Error())

	case errors.Is(err, register.ErrRegisterNotOpen),
		errors.Is(err, register.ErrRegisterAlreadyClosed),
		errors.Is(err, company.ErrCompanyInactive{}),
		errors.Is(err, movement.ErrMovementSettled),
		errors.Is(err, closing.ErrNothingToClose),
		errors.Is(err, closing.ErrConcurrentSettlement{}),
		errors.Is(err, closing.ErrSettlementInProgress):
		logger.Warn("Request conflicts with ledger state", "operation", operation, "error", err)
		RespondConflict(c, err.Error())

	case errors.Is(err, service.ErrEventArchiveUnavailable):
		RespondServiceUnavailable(c, err.Error())

	default:
		logger.Error("Failed to "+operation, "error", err)
		RespondInternalError(c)
	}
}
