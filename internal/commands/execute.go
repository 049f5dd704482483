package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add     func(AddArgs) (Result, error)
	Done    func(TargetArgs) (Result, error)
	Delete  func(TargetArgs) (Result, error)
	Edit    func(EditArgs) (Result, error)
	Date    func(DateArgs) (Result, error)
	Summary func(SummaryArgs) (Result, error)
	Rate    func(RateArgs) (Result, error)
	Rule    func(RuleArgs) (Result, error)
	Sync    func() (Result, error)
	Theme   func(ThemeArgs) (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
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
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Delete(*cmd.Target)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Edit(*cmd.Edit)
	case TypeDate:
		if handlers.Date == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Date(*cmd.Date)
	case TypeSummary:
		if handlers.Summary == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Summary(*cmd.Summary)
	case TypeRate:
		if handlers.Rate == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Rate(*cmd.Rate)
	case TypeRule:
		if handlers.Rule == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Rule(*cmd.Rule)
	case TypeSync:
		if handlers.Sync == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Sync()
	case TypeTheme:
		if handlers.Theme == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Theme(*cmd.Theme)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
