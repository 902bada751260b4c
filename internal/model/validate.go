package model

import (
	"errors"
	"strings"
)

const (
	MsgTitleRequired = "Task title is required"
	MsgInvalidStart  = "Start time must be a valid timestamp"
	MsgInvalidEnd    = "End time must be a valid timestamp"
	MsgInvalidPrio   = "Priority must be low, medium, or high"
	MsgInvalidStatus = "Status must be draft, pending, completed, or cancelled"
	MsgEndBeforeOpen = "End time must be after start time"
)

var ErrValidation = errors.New("model: validation failed")

type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// Err returns a *ValidationError carrying every reason, or nil when valid.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &ValidationError{Reasons: append([]string(nil), r.Errors...)}
}

// ValidationError reports every rule a candidate violated.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "model: " + strings.Join(e.Reasons, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate checks a candidate against the structural rules and returns all
// violations at once. The title rule does not apply to drafts.
func Validate(in Input) ValidationResult {
	errs := make([]string, 0)

	status := Status(strings.TrimSpace(in.Status))
	if status != StatusDraft && strings.TrimSpace(in.Title) == "" {
		errs = append(errs, MsgTitleRequired)
	}

	startOK, endOK := false, false
	start, end := strings.TrimSpace(in.Start), strings.TrimSpace(in.End)
	if start != "" {
		if _, err := ParseTimestamp(start); err != nil {
			errs = append(errs, MsgInvalidStart)
		} else {
			startOK = true
		}
	}
	if end != "" {
		if _, err := ParseTimestamp(end); err != nil {
			errs = append(errs, MsgInvalidEnd)
		} else {
			endOK = true
		}
	}
	if p := strings.TrimSpace(in.Priority); p != "" && !Priority(p).IsValid() {
		errs = append(errs, MsgInvalidPrio)
	}
	if status != "" && !status.IsValid() {
		errs = append(errs, MsgInvalidStatus)
	}
	if startOK && endOK {
		s, _ := ParseTimestamp(start)
		e, _ := ParseTimestamp(end)
		if !e.After(s) {
			errs = append(errs, MsgEndBeforeOpen)
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
