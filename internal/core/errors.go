package core

import "errors"

// ErrorKind groups domain errors by how callers should treat them.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConflict      ErrorKind = "conflict"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
)

// Error codes for domain errors.
const (
	ErrCodeBadRequest = "bad_request"

	ErrCodeNameTaken         = "name_taken"
	ErrCodeAlreadyRegistered = "already_registered"
	ErrCodeAlreadyInRoom     = "already_in_room"
	ErrCodeAlreadyOwnsRoom   = "already_owns_room"
	ErrCodeRoomExists        = "room_exists"
	ErrCodeRoomFull          = "room_full"
	ErrCodeAlreadyOwner      = "already_owner"
	ErrCodeAlreadyMember     = "already_member"
	ErrCodeInAnotherRoom     = "already_in_another_room"

	ErrCodePersonNotFound = "person_not_found"
	ErrCodeRoomNotFound   = "room_not_found"
	ErrCodeNotInRoom      = "not_in_room"

	ErrCodeNotOwner = "not_owner"
)

var (
	ErrPersonNotFound = errors.New("person not found")
	ErrRoomNotFound   = errors.New("room not found")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Kind    ErrorKind
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is lets errors.Is match a CoreError against the not-found sentinels.
func (e *CoreError) Is(target error) bool {
	switch target {
	case ErrPersonNotFound:
		return e.Code == ErrCodePersonNotFound
	case ErrRoomNotFound:
		return e.Code == ErrCodeRoomNotFound
	}
	return false
}

func coreError(kind ErrorKind, code, msg string) *CoreError {
	return &CoreError{Code: code, Kind: kind, Message: msg}
}

// AsCoreError extracts a CoreError from err, if any.
func AsCoreError(err error) (*CoreError, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
