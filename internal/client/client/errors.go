package client

import "errors"

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrBadResponse = errors.New("unexpected server response")
)
