// Package oracle wraps the generative-AI collaborator that judges situations,
// drafts and audits contracts, rules on violations, coaches temptations,
// answers journal entries and writes briefings.
//
// Every method takes structured input and returns structured output. Callers
// treat any returned error as "the oracle is unavailable" and degrade to a
// sentinel result; nothing here retries.
package oracle

import (
	"context"
	"errors"
)

// ErrUnparseable is returned when the model answered with output that does
// not decode into the expected shape.
var ErrUnparseable = errors.New("oracle: unparseable response")

// ErrUnavailable is returned when no backend is configured.
var ErrUnavailable = errors.New("oracle: unavailable")

// Oracle is the AI judgment collaborator.
type Oracle interface {
	Judge(ctx context.Context, in JudgeInput) (Judgement, error)
	Draft(ctx context.Context, goal string) (Draft, error)
	Audit(ctx context.Context, c ContractSnapshot) (Audit, error)
	JudgeViolation(ctx context.Context, in ViolationInput) (Verdict, error)
	Coach(ctx context.Context, in CoachInput) (Coaching, error)
	ReplyToJournal(ctx context.Context, in JournalInput) (string, error)
	Brief(ctx context.Context, in BriefingInput) (Briefing, error)
}

// JudgeStatus is the ruling on a situation.
type JudgeStatus string

const (
	Allowed   JudgeStatus = "ALLOWED"
	Forbidden JudgeStatus = "FORBIDDEN"
)

// JudgeInput asks whether a situation is allowed under a contract.
type JudgeInput struct {
	Situation        string
	ContractTitle    string
	ContractBehavior string
	Exceptions       []string
}

// Judgement is the answer to JudgeInput.
type Judgement struct {
	Status      JudgeStatus `json:"status"`
	Explanation string      `json:"explanation"`
}

// Draft is a proposed contract built from a free-text goal.
type Draft struct {
	Title      string   `json:"title"`
	Pillar     string   `json:"pillar"`
	Type       string   `json:"type"`
	Behavior   string   `json:"behavior"`
	Penalty    string   `json:"penalty"`
	Exceptions []string `json:"exceptions"`
}

// ContractSnapshot is the read-only view of a contract sent for audit.
type ContractSnapshot struct {
	Title      string   `json:"title"`
	Behavior   string   `json:"behavior"`
	Type       string   `json:"type"`
	Pillar     string   `json:"pillar"`
	Penalty    string   `json:"penalty"`
	Exceptions []string `json:"exceptions"`
	Streak     int      `json:"streak"`
}

// Audit names the weakest point of a contract and how to fix it.
type Audit struct {
	Weakness   string `json:"weakness"`
	Suggestion string `json:"suggestion"`
}

// ViolationInput describes a reported violation for a ruling.
type ViolationInput struct {
	Reason           string
	Story            string
	Decision         string
	ContractTitle    string
	ContractBehavior string
}

// VerdictValue is the ruling on a violation.
type VerdictValue string

const (
	Guilty    VerdictValue = "GUILTY"
	Acquitted VerdictValue = "ACQUITTED"
)

// Verdict is the answer to ViolationInput.
type Verdict struct {
	Verdict   VerdictValue `json:"verdict"`
	Reasoning string       `json:"reasoning"`
}

// CoachInput asks for in-the-moment help resisting a temptation.
type CoachInput struct {
	ContractTitle    string
	ContractBehavior string
	Context          string
}

// Coaching is the answer to CoachInput.
type Coaching struct {
	Text string `json:"coaching"`
}

// JournalInput asks for a short reply to a journal entry.
type JournalInput struct {
	ContractTitle    string
	ContractBehavior string
	Entry            string
	Recent           []string
}

// ContractSummary is one line of context for a briefing.
type ContractSummary struct {
	Title          string `json:"title"`
	Type           string `json:"type"`
	Streak         int    `json:"streak"`
	CheckedInToday bool   `json:"checked_in_today"`
}

// BriefingInput asks for a morning or evening briefing.
type BriefingInput struct {
	Slot      string
	Contracts []ContractSummary
	Journal   []string
}

// Briefing holds the short push text and the longer in-app body.
type Briefing struct {
	Notification string `json:"notification"`
	Body         string `json:"body"`
}
