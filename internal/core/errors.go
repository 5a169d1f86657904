package core

import "errors"

var (
	ErrNoTrackSelected = errors.New("no track selected")
	ErrDuplicateTrack  = errors.New("track already in playlist")
	ErrNicknameTooLong = errors.New("nickname too long")
	ErrNicknameProfane = errors.New("nickname rejected by profanity filter")
	ErrNotFound        = errors.New("not found")
	ErrNotConfigured   = errors.New("not configured")

	ErrSubmissionInProgress = errors.New("a submission is already in progress")
)
