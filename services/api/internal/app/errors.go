package app

import (
	"errors"
	"net/http"
)

// Kind classifies service errors for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuth
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// HTTPStatus is the response status for errors of this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified service error. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so wrapped
// instances still compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == e.Message
}

var (
	ErrEmailAndPasswordRequired = &Error{Kind: KindValidation, Message: "email and password required"}
	ErrEmailAlreadyExists       = &Error{Kind: KindConflict, Message: "email already registered"}
	ErrUserNotFound             = &Error{Kind: KindNotFound, Message: "user not found"}
	// ErrIncorrectPassword is only returned after the email matched a user.
	ErrIncorrectPassword = &Error{Kind: KindAuth, Message: "incorrect password"}

	ErrArticleFieldsRequired = &Error{Kind: KindValidation, Message: "title, description and content are required"}
	ErrNoArticles            = &Error{Kind: KindNotFound, Message: "no articles found"}
	ErrArticleNotFound       = &Error{Kind: KindNotFound, Message: "article not found"}
	ErrImageUploadFailed     = &Error{Kind: KindStorage, Message: "failed to upload image"}
)

func uploadFailed(err error) error {
	return &Error{Kind: KindStorage, Message: ErrImageUploadFailed.Message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
