package domain

import "errors"

var (
	ErrNotConnected     = errors.New("obs websocket not connected")
	ErrRequestFailed    = errors.New("obs request failed")
	ErrMalformedStats   = errors.New("malformed stats response")
	ErrUnexpectedStatus = errors.New("unexpected stats status code")
)
