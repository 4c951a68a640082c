package stock

import "errors"

// ErrInvalidCriteria is returned for listing criteria that can not be evaluated.
var ErrInvalidCriteria = errors.New("invalid criteria")
