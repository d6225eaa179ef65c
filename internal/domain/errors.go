package domain

import (
	"errors"
	"fmt"
)

// Kind classifies the stage an upload failed in.
type Kind int

const (
	// KindInvalid means the request was rejected before any I/O.
	KindInvalid Kind = iota + 1
	// KindConnection is a transport failure reaching the device.
	KindConnection
	// KindSession means the device answered the session request with a
	// non-200 status or an unusable body.
	KindSession
	// KindTranscode means the source audio was missing or could not be converted.
	KindTranscode
	// KindTransmit is a non-200 answer to the upload or a failure mid-stream.
	KindTransmit
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindConnection:
		return "connection"
	case KindSession:
		return "session"
	case KindTranscode:
		return "transcode"
	case KindTransmit:
		return "transmit"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrInvalid    = errors.New("doorbird: invalid request")
	ErrConnection = errors.New("doorbird: connection error")
	ErrSession    = errors.New("doorbird: session error")
	ErrTranscode  = errors.New("doorbird: transcode error")
	ErrTransmit   = errors.New("doorbird: transmit error")

	// ErrMalformedResponse is wrapped when the session body lacks a session id.
	ErrMalformedResponse = errors.New("malformed session response")
)

// Error is the single error type returned by an upload.
type Error struct {
	Kind Kind
	// StatusCode is the HTTP status for KindSession and KindTransmit
	// failures answered by the device, zero otherwise.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := "doorbird: " + e.Kind.String() + " error"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalid:
		return ErrInvalid
	case KindConnection:
		return ErrConnection
	case KindSession:
		return ErrSession
	case KindTranscode:
		return ErrTranscode
	case KindTransmit:
		return ErrTransmit
	default:
		return nil
	}
}

// Wrap returns err as an *Error. Errors that already are one keep their
// Kind; anything else is tagged with kind.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}
