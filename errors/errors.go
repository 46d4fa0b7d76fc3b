package errors

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrConnectionFull   = fmt.Errorf("connection buffer full")
	ErrPushQueueFull    = fmt.Errorf("push queue full")
	ErrInvalidToken     = fmt.Errorf("invalid token")
)

// Code is the machine readable reason sent back to clients.
type Code string

const (
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodeIllegalAction       Code = "ILLEGAL_ACTION"
	CodeMessageMissing      Code = "MESSAGE_MISSING"
	CodeImageMissing        Code = "IMAGE_MISSING"
	CodeChatUIDIllegal      Code = "CHAT_UID_ILLEGAL"
	CodeMessageUIDIllegal   Code = "MESSAGE_UID_ILLEGAL"
	CodeNotFriends          Code = "NOT_FRIENDS"
	CodeNotParticipant      Code = "NOT_PARTICIPANT"
	CodeChatNotFound        Code = "CHAT_NOT_FOUND"
	CodeMessageNotFound     Code = "MESSAGE_NOT_FOUND"
	CodeAccountNotFound     Code = "ACCOUNT_NOT_FOUND"
	CodeParticipantsIllegal Code = "PARTICIPANTS_ILLEGAL"
	CodeGroupNameMissing    Code = "GROUP_NAME_MISSING"
	CodeImageURLIllegal     Code = "IMAGE_URL_ILLEGAL"
	CodeTokenMissing        Code = "TOKEN_MISSING"
	CodeInternal            Code = "INTERNAL"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindIllegalState
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindIllegalState:
		return "illegal_state"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is a rejection the boundary turns into an error envelope.
// It can carry several codes so clients see every validation failure at once.
type Error struct {
	Kind  Kind
	Codes []Code
}

func (e *Error) Error() string {
	codes := make([]string, len(e.Codes))
	for i, c := range e.Codes {
		codes[i] = string(c)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(codes, ","))
}

// Is matches any *Error with the same kind and codes.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && slices.Equal(e.Codes, t.Codes)
}

func New(kind Kind, codes ...Code) *Error {
	return &Error{Kind: kind, Codes: codes}
}

func Validation(codes ...Code) *Error { return New(KindValidation, codes...) }

var (
	ErrUnauthenticated  = New(KindUnauthenticated, CodeUnauthenticated)
	ErrIllegalAction    = New(KindValidation, CodeIllegalAction)
	ErrNotFriends       = New(KindAuthorization, CodeNotFriends)
	ErrNotParticipant   = New(KindAuthorization, CodeNotParticipant)
	ErrChatNotFound     = New(KindNotFound, CodeChatNotFound)
	ErrMessageNotFound  = New(KindNotFound, CodeMessageNotFound)
	ErrAccountNotFound  = New(KindNotFound, CodeAccountNotFound)
	ErrImageImmutable   = New(KindIllegalState, CodeMessageMissing)
	ErrNotGroupChat     = New(KindIllegalState, CodeIllegalAction)
	ErrFriendshipAbsent = fmt.Errorf("friendship not found")
	ErrTokenAbsent      = fmt.Errorf("device token not found")
)

// CodesOf returns the client codes of err, INTERNAL when err is not an *Error.
func CodesOf(err error) []Code {
	var e *Error
	if stderrors.As(err, &e) && len(e.Codes) > 0 {
		return e.Codes
	}
	return []Code{CodeInternal}
}

func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
