package service

import "errors"

// Sentinel kinds returned by Service.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrCommentaryBusy = errors.New("commentary queue is full")
)
