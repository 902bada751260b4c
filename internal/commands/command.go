package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/timeline/internal/dateindex"
	"github.com/sandeepkv93/timeline/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeCancel Type = "cancel"
	TypeDelete Type = "delete"
	TypeGoto   Type = "goto"
	TypeDraft  Type = "draft"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs holds a quick add. Date is a raw day reference accepted by
// ResolveDate; Clock is HH:MM. Both may be empty.
type AddArgs struct {
	Title string
	Date  string
	Clock string
}

type TargetArgs struct {
	ID string
}

type GotoArgs struct {
	Date string
}

type DraftArgs struct {
	Start string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Target *TargetArgs
	Goto   *GotoArgs
	Draft  *DraftArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone, TypeCancel, TypeDelete:
		return parseTarget(input, Type(head), args)
	case TypeGoto:
		return parseGoto(input, args)
	case TypeDraft:
		return parseDraft(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd treats @-prefixed tokens as the day and clock time; everything
// else is the title.
func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{}
	words := make([]string, 0, len(args))
	for _, arg := range args {
		if !strings.HasPrefix(arg, "@") || len(arg) == 1 {
			words = append(words, arg)
			continue
		}
		ref := arg[1:]
		if _, err := model.ParseClock(ref); err == nil {
			if out.Clock != "" {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add accepts one @time"}
			}
			out.Clock = ref
			continue
		}
		if _, err := ResolveDate(ref, time.Now()); err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unrecognized reference @%s", ref)}
		}
		if out.Date != "" {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add accepts one @date"}
		}
		out.Date = ref
	}
	out.Title = strings.TrimSpace(strings.Join(words, " "))
	if out.Title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a task id", typ)}
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{ID: args[0]}}, nil
}

func parseGoto(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "goto requires a date"}
	}
	if _, err := ResolveDate(args[0], time.Now()); err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeGoto, Raw: raw, Goto: &GotoArgs{Date: args[0]}}, nil
}

func parseDraft(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "draft requires a start time"}
	}
	return Command{Type: TypeDraft, Raw: raw, Draft: &DraftArgs{Start: strings.Join(args, " ")}}, nil
}

// ResolveDate turns a day reference into a YYYY-MM-DD key. It accepts a
// literal date, today, tomorrow, yesterday and signed day offsets like +3.
func ResolveDate(ref string, now time.Time) (string, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	day := model.StartOfDay(now)
	switch ref {
	case "today":
		return dateindex.Key(day), nil
	case "tomorrow":
		return dateindex.Key(day.AddDate(0, 0, 1)), nil
	case "yesterday":
		return dateindex.Key(day.AddDate(0, 0, -1)), nil
	}
	if strings.HasPrefix(ref, "+") || strings.HasPrefix(ref, "-") {
		n, err := strconv.Atoi(ref)
		if err != nil {
			return "", fmt.Errorf("invalid day offset %q", ref)
		}
		return dateindex.Key(day.AddDate(0, 0, n)), nil
	}
	d, err := model.ParseDate(ref)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", ref)
	}
	return dateindex.Key(d), nil
}
