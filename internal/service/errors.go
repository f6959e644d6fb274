package service

import (
	"github.com/dukerupert/paysync/internal/domain"
)

// Webhook errors. The reconciler joins these with the underlying cause, so
// both errors.Is(err, ErrInvalidSignature) and domain.ErrorCode work.
var (
	ErrInvalidSignature = domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid signature")
	ErrInvalidPayload   = domain.Errorf(domain.EINVALID, "", "Invalid payload")
)
