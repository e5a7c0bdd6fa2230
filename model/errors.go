package model

import "errors"

var (
	ErrGenerationTimeout   = errors.New("generation timeout")
	ErrGenerationMalformed = errors.New("generation response malformed")
	ErrGenerationTransport = errors.New("generation transport error")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCacheWrite          = errors.New("room state cache write failed")
	ErrCacheMiss           = errors.New("cache miss")

	ErrUnknownGift     = errors.New("unknown gift")
	ErrRefreshInFlight = errors.New("refresh already in flight")
	ErrRoomExists      = errors.New("room already mounted")
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidEntry    = errors.New("invalid room entry")
	ErrRoomClosed      = errors.New("room closed")
)
