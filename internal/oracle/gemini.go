package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// generator is the slice of *genai.Models the oracle uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Gemini oracle.
type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	RPS     float64
}

// Gemini implements Oracle on top of the Gemini API with structured JSON
// output. Calls are paced by a token bucket and bounded by a timeout.
type Gemini struct {
	gen     generator
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

var _ Oracle = (*Gemini)(nil)

// NewGemini builds a Gemini oracle. An empty API key is rejected.
func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newGemini(client.Models, opts), nil
}

func newGemini(gen generator, opts Options) *Gemini {
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 2
	}
	burst := int(opts.RPS)
	if burst < 1 {
		burst = 1
	}
	return &Gemini{
		gen:     gen,
		model:   opts.Model,
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), burst),
	}
}

// generate sends one prompt and decodes the JSON answer into out.
func (g *Gemini) generate(ctx context.Context, method, system, prompt string, schema *genai.Schema, out any) (err error) {
	ctx, span := otel.Tracer("oracle/gemini").Start(ctx, method,
		trace.WithAttributes(attribute.String("oracle.model", g.model)))
	defer func() {
		observeCall(method, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err = g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("gemini %s: wait: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var temp float32 = 0.4
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}
	resp, err := g.gen.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, cfg)
	if err != nil {
		return fmt.Errorf("gemini %s: %w", method, err)
	}
	if resp == nil {
		return fmt.Errorf("gemini %s: empty response: %w", method, ErrUnparseable)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return fmt.Errorf("gemini %s: empty response: %w", method, ErrUnparseable)
	}
	if err = json.Unmarshal([]byte(stripFence(text)), out); err != nil {
		return fmt.Errorf("gemini %s: %v: %w", method, err, ErrUnparseable)
	}
	return nil
}

// stripFence drops a ```json ... ``` wrapper some models add despite the
// declared MIME type.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Judge rules whether a situation is ALLOWED or FORBIDDEN under a contract.
func (g *Gemini) Judge(ctx context.Context, in JudgeInput) (Judgement, error) {
	var out Judgement
	if err := g.generate(ctx, "Judge", systemJudge, judgePrompt(in), judgementSchema, &out); err != nil {
		return Judgement{}, err
	}
	out.Status = JudgeStatus(strings.ToUpper(string(out.Status)))
	if out.Status != Allowed && out.Status != Forbidden {
		return Judgement{}, fmt.Errorf("gemini Judge: status %q: %w", out.Status, ErrUnparseable)
	}
	return out, nil
}

// Draft turns a free-form goal into a contract proposal.
func (g *Gemini) Draft(ctx context.Context, goal string) (Draft, error) {
	var out Draft
	if err := g.generate(ctx, "Draft", systemDraft, draftPrompt(goal), draftSchema, &out); err != nil {
		return Draft{}, err
	}
	out.Type = strings.ToUpper(out.Type)
	if out.Title == "" || (out.Type != "DO" && out.Type != "AVOID") {
		return Draft{}, fmt.Errorf("gemini Draft: incomplete draft: %w", ErrUnparseable)
	}
	return out, nil
}

// Audit names the weakest point of a contract and suggests a fix.
func (g *Gemini) Audit(ctx context.Context, c ContractSnapshot) (Audit, error) {
	var out Audit
	if err := g.generate(ctx, "Audit", systemAudit, auditPrompt(c), auditSchema, &out); err != nil {
		return Audit{}, err
	}
	if out.Weakness == "" && out.Suggestion == "" {
		return Audit{}, fmt.Errorf("gemini Audit: empty audit: %w", ErrUnparseable)
	}
	return out, nil
}

// JudgeViolation returns a GUILTY or ACQUITTED verdict for a reported violation.
func (g *Gemini) JudgeViolation(ctx context.Context, in ViolationInput) (Verdict, error) {
	var out Verdict
	if err := g.generate(ctx, "JudgeViolation", systemViolation, violationPrompt(in), verdictSchema, &out); err != nil {
		return Verdict{}, err
	}
	out.Verdict = VerdictValue(strings.ToUpper(string(out.Verdict)))
	if out.Verdict != Guilty && out.Verdict != Acquitted {
		return Verdict{}, fmt.Errorf("gemini JudgeViolation: verdict %q: %w", out.Verdict, ErrUnparseable)
	}
	return out, nil
}

// Coach returns short coaching text for a user facing a temptation.
func (g *Gemini) Coach(ctx context.Context, in CoachInput) (Coaching, error) {
	var out Coaching
	if err := g.generate(ctx, "Coach", systemCoach, coachPrompt(in), coachingSchema, &out); err != nil {
		return Coaching{}, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return Coaching{}, fmt.Errorf("gemini Coach: empty coaching: %w", ErrUnparseable)
	}
	return out, nil
}

// ReplyToJournal writes a reply to a manual journal entry.
func (g *Gemini) ReplyToJournal(ctx context.Context, in JournalInput) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	if err := g.generate(ctx, "ReplyToJournal", systemJournal, journalPrompt(in), replySchema, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Reply) == "" {
		return "", fmt.Errorf("gemini ReplyToJournal: empty reply: %w", ErrUnparseable)
	}
	return out.Reply, nil
}

// Brief writes the notification line and body of a slot briefing.
func (g *Gemini) Brief(ctx context.Context, in BriefingInput) (Briefing, error) {
	var out Briefing
	if err := g.generate(ctx, "Brief", systemBrief, briefPrompt(in), briefingSchema, &out); err != nil {
		return Briefing{}, err
	}
	if out.Notification == "" || out.Body == "" {
		return Briefing{}, fmt.Errorf("gemini Brief: incomplete briefing: %w", ErrUnparseable)
	}
	return out, nil
}
