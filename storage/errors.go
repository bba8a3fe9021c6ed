package storage

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"estate_hub/models"
)

// classify turns a driver error into a models.Failure with a reason the caller can act on.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return models.Fail(op, reasonFor(err), err)
}

func reasonFor(err error) models.Reason {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ReasonNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.ReasonNetwork
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return reasonForCode(pgErr.Code)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return models.ReasonNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return models.ReasonNetwork
	}

	return models.ReasonInternal
}

// reasonForCode maps SQLSTATE codes, e.g. 23505 unique_violation.
func reasonForCode(code string) models.Reason {
	switch {
	case code == "23505":
		return models.ReasonConflict
	case code == "42501":
		return models.ReasonPermission
	case strings.HasPrefix(code, "28"):
		return models.ReasonPermission
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57P"):
		return models.ReasonNetwork
	case strings.HasPrefix(code, "22"), strings.HasPrefix(code, "23"):
		return models.ReasonValidation
	default:
		return models.ReasonInternal
	}
}
