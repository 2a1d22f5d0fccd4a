package controller

import "errors"

var (
	// ErrInvalidConfig wraps every parameter validation failure. It is returned at construction, never from a trade.
	ErrInvalidConfig = errors.New("invalid controller configuration")
	// ErrAlreadyInitialized is returned by a second Initialize on the same controller.
	ErrAlreadyInitialized = errors.New("fee controller already initialized")
	// ErrNotInitialized is returned by OnSwap before Initialize.
	ErrNotInitialized = errors.New("fee controller not initialized")
	// ErrTimestampRegression is returned when a trade carries a timestamp older than the previous one.
	ErrTimestampRegression = errors.New("trade timestamp moved backwards")
)
