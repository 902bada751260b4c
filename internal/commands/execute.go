package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Done   func(TargetArgs) (Result, error)
	Cancel func(TargetArgs) (Result, error)
	Delete func(TargetArgs) (Result, error)
	Goto   func(GotoArgs) (Result, error)
	Draft  func(DraftArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Done(*cmd.Target)
	case TypeCancel:
		if handlers.Cancel == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Cancel(*cmd.Target)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Delete(*cmd.Target)
	case TypeGoto:
		if handlers.Goto == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Goto(*cmd.Goto)
	case TypeDraft:
		if handlers.Draft == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Draft(*cmd.Draft)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
