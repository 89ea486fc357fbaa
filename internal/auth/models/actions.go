package models

import (
	"strings"

	dErrors "mugs/pkg/domain-errors"
)

// Action is the kind of write counted by activity reports.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Activity report types besides single model names.
const (
	TypeAll    = "ALL"
	TypePeople = "PEOPLE"
	TypeOther  = "OTHER"
	TypeBin1   = "BIN1"
	TypeBin2   = "BIN2"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return a, nil
	}
	return "", dErrors.Field(dErrors.CodeBadRequest, "", "action", s, dErrors.KindEnum,
		"action must be one of CREATE, UPDATE, DELETE")
}

// Bins groups models for activity reports. People holds the profile kinds,
// Other the shared lookups.
type Bins struct {
	People []string
	Other  []string
}
