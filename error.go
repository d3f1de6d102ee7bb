package main

import (
	"errors"
	"fmt"
)

// checkNil checks if any of the provided values are nil and returns
// an error if they are.
func checkNil(values ...any) error {
	for _, value := range values {
		if value == nil {
			return fmt.Errorf("nil value of type %T", value)
		}
	}

	return nil
}

type Category string

const (
	CONFIG     Category = "config"
	GEO        Category = "geo"
	REGISTRY   Category = "registry"
	RESOLVE    Category = "resolve"
	CLOUDFRONT Category = "cloudfront"
	STORMFORGE Category = "stormforge"
	EDITOR     Category = "editor"
)

func (c Category) String() string {
	return string(c)
}

// Sentinels for the provider failure modes that drive the account scan
// and update control flow. Wrapped inside *Error so callers match with
// errors.Is.
var (
	ErrNotFound      = errors.New("distribution not found")
	ErrAccessDenied  = errors.New("access denied")
	ErrInvalidID     = errors.New("invalid distribution id")
	ErrInvalidConfig = errors.New("invalid distribution configuration")
	ErrConflict      = errors.New("distribution was modified by another process")
)

type Error struct {
	Msg          string   `json:"msg"`
	Inner        error    `json:"inner,omitempty"`
	Category     Category `json:"category,omitempty"`
	Distribution string   `json:"distribution,omitempty"`
	Account      string   `json:"account,omitempty"`
	Channel      string   `json:"channel,omitempty"`

	// Hint is an actionable remediation printed alongside fatal
	// conditions so the operator knows what to fix.
	Hint string `json:"hint,omitempty"`
}

func (e Error) String() string {
	msg := e.Msg
	if e.Inner != nil {
		msg = fmt.Sprintf("%s: %s", e.Msg, e.Inner)
	}

	if e.Distribution != "" {
		msg = fmt.Sprintf("%s | %s", e.Distribution, msg)
	}

	if e.Account != "" {
		msg = fmt.Sprintf("%s | %s", e.Account, msg)
	}

	if e.Channel != "" {
		msg = fmt.Sprintf("%s | %s", e.Channel, msg)
	}

	if e.Category != "" {
		msg = fmt.Sprintf("%s | %s", e.Category, msg)
	}

	if e.Hint != "" {
		msg = fmt.Sprintf("%s\n  hint: %s", msg, e.Hint)
	}

	return msg
}

func (e Error) Error() string {
	return e.String()
}

func (e Error) Unwrap() error {
	return e.Inner
}
