package notification

import "errors"

var ErrDeliveryNotFound = errors.New("delivery not found")
