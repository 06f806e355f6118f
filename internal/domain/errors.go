package domain

import "errors"

var (
	// ErrConnectionNotFound is returned when a live connection id is not in the registry.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrInvalidRole indicates a registration asked for a role other than client or admin.
	ErrInvalidRole = errors.New("invalid connection role")
	// ErrNotAdmin is returned when an admin-only action is attempted by a non-admin.
	ErrNotAdmin = errors.New("admin role required")
	// ErrNotClient is returned when a watch target is not a registered client.
	ErrNotClient = errors.New("watch target is not a client")
	// ErrUnknownEventKind indicates an inbound envelope carried an unsupported kind.
	ErrUnknownEventKind = errors.New("unknown event kind")
	// ErrInvalidEvent indicates an envelope payload could not be decoded.
	ErrInvalidEvent = errors.New("invalid event payload")
	// ErrSessionNotFound is returned when no ledger exists for a live session.
	ErrSessionNotFound = errors.New("live session not found")

	// ErrQuestionSetNotFound indicates question content for a role/card could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrQuestionNotFound indicates a submitted question index is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option index is invalid.
	ErrOptionNotFound = errors.New("option not found")

	// ErrUserNotFound is returned when an account lookup misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned when a bearer token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidInput is returned when a request is missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)
