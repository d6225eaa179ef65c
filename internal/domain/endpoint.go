package domain

import "strings"

// Endpoint identifies a Doorbird device and the credentials used for every
// request of one upload.
type Endpoint struct {
	// Address is a host or host:port, without scheme.
	Address  string
	Username string
	Password string
}

// Validate checks that all fields are present.
func (e Endpoint) Validate() error {
	var missing []string
	if strings.TrimSpace(e.Address) == "" {
		missing = append(missing, "address")
	}
	if e.Username == "" {
		missing = append(missing, "username")
	}
	if e.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &Error{Kind: KindInvalid, Err: missingFieldsError(missing)}
	}
	return nil
}

// Redacted returns a copy safe for logging.
func (e Endpoint) Redacted() Endpoint {
	if e.Password != "" {
		e.Password = "*****"
	}
	return e
}

// Session is the token a device issues for a subsequent audio transmission.
// Sessions are never cached: each upload opens its own.
type Session struct {
	ID string
}

type missingFieldsError []string

func (m missingFieldsError) Error() string {
	return "missing " + strings.Join(m, ", ")
}
