package importhook

import "errors"

// ErrNoLoader is returned when the host had no loader installed before the
// interceptor replaced it.
var ErrNoLoader = errors.New("importhook: no underlying loader")
