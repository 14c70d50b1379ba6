package oracle

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	systemJudge = "You are a strict but fair accountability judge. Decide whether the situation " +
		"is allowed under the contract, honoring its listed exceptions. Answer in JSON."
	systemDraft = "You turn a personal goal into a precise behavioral contract. Type is DO for " +
		"behaviors to perform and AVOID for behaviors to refrain from. At most five exceptions. Answer in JSON."
	systemAudit = "You audit behavioral contracts for loopholes and vagueness. Name the single " +
		"biggest weakness and one concrete fix. Answer in JSON."
	systemViolation = "You rule on a reported contract violation. GUILTY when the story shows a real " +
		"breach, ACQUITTED when it fits the spirit of the contract. Answer in JSON."
	systemCoach = "You coach someone in the middle of a temptation. Be brief, warm and practical. Answer in JSON."
	systemJournal = "You reply to a journal entry about keeping a contract. Two or three sentences, " +
		"encouraging and specific. Answer in JSON."
	systemBrief = "You write a daily accountability briefing. The notification is one short line; " +
		"the body is a short paragraph. Answer in JSON."
)

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

var (
	judgementSchema = object([]string{"status", "explanation"}, map[string]*genai.Schema{
		"status":      {Type: genai.TypeString, Enum: []string{string(Allowed), string(Forbidden)}},
		"explanation": str(),
	})
	draftSchema = object([]string{"title", "pillar", "type", "behavior", "penalty", "exceptions"}, map[string]*genai.Schema{
		"title":      str(),
		"pillar":     str(),
		"type":       {Type: genai.TypeString, Enum: []string{"DO", "AVOID"}},
		"behavior":   str(),
		"penalty":    str(),
		"exceptions": {Type: genai.TypeArray, Items: str()},
	})
	auditSchema = object([]string{"weakness", "suggestion"}, map[string]*genai.Schema{
		"weakness":   str(),
		"suggestion": str(),
	})
	verdictSchema = object([]string{"verdict", "reasoning"}, map[string]*genai.Schema{
		"verdict":   {Type: genai.TypeString, Enum: []string{string(Guilty), string(Acquitted)}},
		"reasoning": str(),
	})
	coachingSchema = object([]string{"coaching"}, map[string]*genai.Schema{
		"coaching": str(),
	})
	replySchema = object([]string{"reply"}, map[string]*genai.Schema{
		"reply": str(),
	})
	briefingSchema = object([]string{"notification", "body"}, map[string]*genai.Schema{
		"notification": str(),
		"body":         str(),
	})
)

func bullets(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func judgePrompt(in JudgeInput) string {
	return fmt.Sprintf("Contract: %s\nBehavior: %s\nExceptions:\n%s\n\nSituation: %s",
		in.ContractTitle, in.ContractBehavior, bullets(in.Exceptions), in.Situation)
}

func draftPrompt(goal string) string {
	return "Goal: " + goal
}

func auditPrompt(c ContractSnapshot) string {
	return fmt.Sprintf("Title: %s\nType: %s\nPillar: %s\nBehavior: %s\nPenalty: %s\nStreak: %d\nExceptions:\n%s",
		c.Title, c.Type, c.Pillar, c.Behavior, c.Penalty, c.Streak, bullets(c.Exceptions))
}

func violationPrompt(in ViolationInput) string {
	return fmt.Sprintf("Contract: %s\nBehavior: %s\nReason: %s\nDecision: %s\nStory: %s",
		in.ContractTitle, in.ContractBehavior, in.Reason, in.Decision, in.Story)
}

func coachPrompt(in CoachInput) string {
	return fmt.Sprintf("Contract: %s\nBehavior: %s\nWhat is happening: %s",
		in.ContractTitle, in.ContractBehavior, in.Context)
}

func journalPrompt(in JournalInput) string {
	return fmt.Sprintf("Contract: %s\nBehavior: %s\nRecent entries:\n%s\n\nNew entry: %s",
		in.ContractTitle, in.ContractBehavior, bullets(in.Recent), in.Entry)
}

func briefPrompt(in BriefingInput) string {
	lines := make([]string, 0, len(in.Contracts))
	for _, c := range in.Contracts {
		state := "not yet checked in today"
		if c.CheckedInToday {
			state = "checked in today"
		}
		lines = append(lines, fmt.Sprintf("%s (%s), streak %d, %s", c.Title, c.Type, c.Streak, state))
	}
	return fmt.Sprintf("Slot: %s\nActive contracts:\n%s\nRecent journal:\n%s",
		in.Slot, bullets(lines), bullets(in.Journal))
}
