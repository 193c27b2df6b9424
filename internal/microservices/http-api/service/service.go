package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"storehub/internal/microservices/http-api/query"
	"storehub/internal/microservices/http-api/repository"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// fail passes AppErrors through untouched and logs anything else before hiding it
// behind INTERNAL.
func fail(log *zap.Logger, op string, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return InternalError(err)
}

// notFoundOr maps repository.ErrNotFound to a NOT_FOUND with msg.
func notFoundOr(log *zap.Logger, op, msg string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFoundError(msg)
	}
	return fail(log, op, err)
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func defaultParams(p query.Params, s query.Sorting) query.Params {
	if p.Limit == 0 {
		return query.MustDefault(s, 0)
	}
	return p
}
