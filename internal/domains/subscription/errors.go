package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrAlreadySubscribed    = errors.New("already subscribed to this publication")
	ErrPaidTierUnavailable  = errors.New("publication has no paid tier")
)
