package domain

import "errors"

var (
	ErrSourceUnavailable  = errors.New("sensing source unavailable")
	ErrPermissionDenied   = errors.New("sensing source permission denied")
	ErrStorageCorrupt     = errors.New("result store corrupt")
	ErrStorageUnavailable = errors.New("result store unavailable")
	ErrNetworkFailure     = errors.New("endpoint request failed")
	ErrMalformedResponse  = errors.New("malformed endpoint response")
	ErrArtifactWrite      = errors.New("artifact write failed")
	ErrInvalidSeries      = errors.New("invalid sample series")
	ErrRunInProgress      = errors.New("ingestion batch already running")
)
