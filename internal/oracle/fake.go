package oracle

import (
	"context"
	"sync"
)

// Fake is an in-memory Oracle. Each method delegates to its func field when
// set and otherwise returns a fixed canned answer. Err, when non-nil, is
// returned by every method that has no override. Calls are counted per method.
type Fake struct {
	Err error

	JudgeFn          func(ctx context.Context, in JudgeInput) (Judgement, error)
	DraftFn          func(ctx context.Context, goal string) (Draft, error)
	AuditFn          func(ctx context.Context, c ContractSnapshot) (Audit, error)
	JudgeViolationFn func(ctx context.Context, in ViolationInput) (Verdict, error)
	CoachFn          func(ctx context.Context, in CoachInput) (Coaching, error)
	ReplyFn          func(ctx context.Context, in JournalInput) (string, error)
	BriefFn          func(ctx context.Context, in BriefingInput) (Briefing, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ Oracle = (*Fake)(nil)

func (f *Fake) count(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[method]++
}

// Calls returns how many times method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fake) Judge(ctx context.Context, in JudgeInput) (Judgement, error) {
	f.count("Judge")
	if f.JudgeFn != nil {
		return f.JudgeFn(ctx, in)
	}
	if f.Err != nil {
		return Judgement{}, f.Err
	}
	return Judgement{Status: Forbidden, Explanation: "No exception covers this."}, nil
}

func (f *Fake) Draft(ctx context.Context, goal string) (Draft, error) {
	f.count("Draft")
	if f.DraftFn != nil {
		return f.DraftFn(ctx, goal)
	}
	if f.Err != nil {
		return Draft{}, f.Err
	}
	return Draft{
		Title: "Daily walk", Pillar: "Health", Type: "DO",
		Behavior: "Walk for 30 minutes every day", Penalty: "Donate 5 EUR",
		Exceptions: []string{"illness"},
	}, nil
}

func (f *Fake) Audit(ctx context.Context, c ContractSnapshot) (Audit, error) {
	f.count("Audit")
	if f.AuditFn != nil {
		return f.AuditFn(ctx, c)
	}
	if f.Err != nil {
		return Audit{}, f.Err
	}
	return Audit{Weakness: "Vague timing.", Suggestion: "Name a time of day."}, nil
}

func (f *Fake) JudgeViolation(ctx context.Context, in ViolationInput) (Verdict, error) {
	f.count("JudgeViolation")
	if f.JudgeViolationFn != nil {
		return f.JudgeViolationFn(ctx, in)
	}
	if f.Err != nil {
		return Verdict{}, f.Err
	}
	return Verdict{Verdict: Guilty, Reasoning: "The story describes a breach."}, nil
}

func (f *Fake) Coach(ctx context.Context, in CoachInput) (Coaching, error) {
	f.count("Coach")
	if f.CoachFn != nil {
		return f.CoachFn(ctx, in)
	}
	if f.Err != nil {
		return Coaching{}, f.Err
	}
	return Coaching{Text: "Breathe. Leave the room for ten minutes."}, nil
}

func (f *Fake) ReplyToJournal(ctx context.Context, in JournalInput) (string, error) {
	f.count("ReplyToJournal")
	if f.ReplyFn != nil {
		return f.ReplyFn(ctx, in)
	}
	if f.Err != nil {
		return "", f.Err
	}
	return "Good reflection. Keep going.", nil
}

func (f *Fake) Brief(ctx context.Context, in BriefingInput) (Briefing, error) {
	f.count("Brief")
	if f.BriefFn != nil {
		return f.BriefFn(ctx, in)
	}
	if f.Err != nil {
		return Briefing{}, f.Err
	}
	return Briefing{Notification: "New day, " + in.Slot, Body: "You have work to do."}, nil
}

// Unavailable is the Oracle used when no API key is configured: every call
// fails with ErrUnavailable so callers degrade to their sentinel.
type Unavailable struct{}

var _ Oracle = Unavailable{}

func (Unavailable) Judge(context.Context, JudgeInput) (Judgement, error) {
	return Judgement{}, ErrUnavailable
}
func (Unavailable) Draft(context.Context, string) (Draft, error) { return Draft{}, ErrUnavailable }
func (Unavailable) Audit(context.Context, ContractSnapshot) (Audit, error) {
	return Audit{}, ErrUnavailable
}
func (Unavailable) JudgeViolation(context.Context, ViolationInput) (Verdict, error) {
	return Verdict{}, ErrUnavailable
}
func (Unavailable) Coach(context.Context, CoachInput) (Coaching, error) {
	return Coaching{}, ErrUnavailable
}
func (Unavailable) ReplyToJournal(context.Context, JournalInput) (string, error) {
	return "", ErrUnavailable
}
func (Unavailable) Brief(context.Context, BriefingInput) (Briefing, error) {
	return Briefing{}, ErrUnavailable
}
