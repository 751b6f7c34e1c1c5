package exception

import "errors"

var (
	ErrTickTooSoon      = errors.New("market: tick before minimum interval")
	ErrSimulatorRunning = errors.New("market: simulator already running")
	ErrEmptyInstruments = errors.New("market: no instruments")
	ErrInvalidPrice     = errors.New("market: invalid price")
)
