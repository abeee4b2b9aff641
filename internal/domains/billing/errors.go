package billing

import "errors"

var (
	ErrInvalidWebhook      = errors.New("invalid webhook payload or signature")
	ErrNoPaidTier          = errors.New("publication has no paid tier")
	ErrCheckoutUnavailable = errors.New("checkout unavailable")
)
