// Package domainerrors defines the client-facing error taxonomy.
//
// Stores return sentinel errors; services translate them into *Error values
// carrying a Code plus the attribution a caller needs to act on the failure:
// the entity that raised it, the offending path and value, and a kind tag
// ("Integrity", "update", "required", "type", "ObjectId").
package domainerrors

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_error"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// Error kinds.
const (
	KindIntegrity = "Integrity"
	KindUpdate    = "update"
	KindRequired  = "required"
	KindType      = "type"
	KindObjectID  = "ObjectId"
	KindEnum      = "enum"
)

type Error struct {
	Code    Code
	Message string
	Entity  string
	Path    string
	Value   any
	Kind    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code and message so tests can compare against New(...).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Field builds an attributed error in one call.
func Field(code Code, entity, path string, value any, kind, msg string) *Error {
	return &Error{Code: code, Message: msg, Entity: entity, Path: path, Value: value, Kind: kind}
}

// Required reports a missing mandatory field.
func Required(entity, path string) *Error {
	return Field(CodeBadRequest, entity, path, nil, KindRequired,
		fmt.Sprintf("Path `%s` is required.", path))
}

// Missing reports a reference that does not resolve to a live document.
func Missing(entity, path string, value any) *Error {
	return Field(CodeNotFound, entity, path, value, "",
		fmt.Sprintf("%s with %s '%v' not found", entity, path, value))
}

// Taken reports a uniqueness conflict on path.
func Taken(entity, path string, value any) *Error {
	return Field(CodeBadRequest, entity, path, value, KindIntegrity,
		fmt.Sprintf("%s '%v' is already taken", path, value))
}

// NotAllowed reports an update outside the allowlist.
func NotAllowed(entity, path string) *Error {
	return Field(CodeForbidden, entity, path, nil, KindUpdate,
		fmt.Sprintf("Updates to path `%s` of %s are not allowed", path, entity))
}

func (e *Error) WithEntity(entity string) *Error {
	c := *e
	c.Entity = entity
	return &c
}

func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// CodeOf returns the code of err, CodeInternal for anything outside the taxonomy.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// Reattribute moves an error raised by a nested entity onto entity. The nested
// entity name becomes the leading path segment so callers still see which
// relation failed. Errors already attributed to entity, or carrying no entity,
// pass through unchanged.
func Reattribute(err error, entity string) error {
	de, ok := As(err)
	if !ok || de.Entity == "" || de.Entity == entity {
		return err
	}
	c := *de
	prefix := lowerFirst(de.Entity)
	switch de.Path {
	case "", "_id", "id":
		c.Path = prefix
	default:
		c.Path = prefix + "." + de.Path
	}
	c.Entity = entity
	return &c
}

// WithDefaultEntity stamps entity onto a domain error that has none yet.
func WithDefaultEntity(err error, entity string) error {
	de, ok := As(err)
	if !ok || de.Entity != "" {
		return err
	}
	return de.WithEntity(entity)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
