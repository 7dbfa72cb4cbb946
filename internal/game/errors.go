package game

import "errors"

var (
	ErrBadInput          = errors.New("invalid input")
	ErrWrongPhase        = errors.New("not allowed right now")
	ErrNotSeated         = errors.New("not playing")
	ErrAlreadySeated     = errors.New("already playing")
	ErrIllegalAction     = errors.New("illegal action")
	ErrBadHand           = errors.New("invalid hand number")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLedger            = errors.New("bank error")
	ErrNoGame            = errors.New("no game running")
)
