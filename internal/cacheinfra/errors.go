package cacheinfra

import "errors"

// ErrUnavailable is returned when the cache server cannot serve a request.
// A plain miss is never an error.
var ErrUnavailable = errors.New("cache unavailable")
