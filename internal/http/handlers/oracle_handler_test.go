package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/services"
)

func TestJudge_SendsContractExceptions(t *testing.T) {
	api := newTestAPI(t)
	c := api.seedContract(t, "u1", func(c *domain.Contract) { c.Exceptions = []string{"birthdays"} })

	var got oracle.JudgeInput
	api.oracle.JudgeFn = func(_ context.Context, in oracle.JudgeInput) (oracle.Judgement, error) {
		got = in
		return oracle.Judgement{Status: oracle.Allowed, Explanation: "Birthdays are excepted."}, nil
	}

	w := api.do(t, http.MethodPost, "/contracts/"+c.ID+"/judge", "u1", JudgeRequest{Situation: "birthday cake"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	res := decode[services.JudgeResult](t, w)
	if res.Status != oracle.Allowed || res.Silent {
		t.Fatalf("unexpected ruling: %+v", res)
	}
	if got.Situation != "birthday cake" || len(got.Exceptions) != 1 || got.ContractTitle != c.Title {
		t.Fatalf("oracle saw %+v", got)
	}

	expectError(t, api.do(t, http.MethodPost, "/contracts/"+c.ID+"/judge", "u1", JudgeRequest{}, nil),
		http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, api.do(t, http.MethodPost, "/contracts/"+c.ID+"/judge", "u2", JudgeRequest{Situation: "x"}, nil),
		http.StatusNotFound, ErrCodeNotFound)
}

func TestOracleFailure_IsSilentNotAnError(t *testing.T) {
	api := newTestAPI(t)
	c := api.seedContract(t, "u1")
	api.oracle.Err = errors.New("quota exceeded")

	w := api.do(t, http.MethodPost, "/contracts/"+c.ID+"/audit", "u1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("audit: status = %d", w.Code)
	}
	if res := decode[services.AuditResult](t, w); !res.Silent || res.Weakness != services.SilentMessage {
		t.Fatalf("expected silent audit, got %+v", res)
	}

	w = api.do(t, http.MethodPost, "/oracle/draft", "u1", DraftRequest{Goal: "sleep more"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("draft: status = %d", w.Code)
	}
	if res := decode[services.DraftResult](t, w); !res.Silent || res.Draft != nil {
		t.Fatalf("expected silent draft, got %+v", res)
	}
}

func TestDraft_ReturnsProposal(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/oracle/draft", "u1", DraftRequest{Goal: "stop doomscrolling"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if res := decode[services.DraftResult](t, w); res.Draft == nil || res.Draft.Title == "" {
		t.Fatalf("expected a draft, got %+v", res)
	}
	expectError(t, api.do(t, http.MethodPost, "/oracle/draft", "", DraftRequest{Goal: "x"}, nil),
		http.StatusUnauthorized, ErrCodeUnauthorized)
	expectError(t, api.do(t, http.MethodPost, "/oracle/draft", "u1", DraftRequest{Goal: "  "}, nil),
		http.StatusBadRequest, ErrCodeBadRequest)
}

func TestJudgeViolation(t *testing.T) {
	api := newTestAPI(t)
	c := api.seedContract(t, "u1")

	w := api.do(t, http.MethodPost, "/oracle/violation", "u1",
		VerdictRequest{ContractID: c.ID, Reason: "ate cake", Decision: "recommit"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if res := decode[services.VerdictResult](t, w); res.Verdict != oracle.Guilty {
		t.Fatalf("verdict = %+v", res)
	}
	if n := api.reload(t, c); n.Status != domain.StatusActive {
		t.Fatalf("judging must not change the contract")
	}

	expectError(t, api.do(t, http.MethodPost, "/oracle/violation", "u1", VerdictRequest{}, nil),
		http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, api.do(t, http.MethodPost, "/oracle/violation", "u1", VerdictRequest{ContractID: "nope", Reason: "x"}, nil),
		http.StatusNotFound, ErrCodeNotFound)
}

func TestTemptation_CoachThenResolveOnce(t *testing.T) {
	api := newTestAPI(t)
	c := api.seedContract(t, "u1")

	w := api.do(t, http.MethodPost, "/contracts/"+c.ID+"/temptations", "u1", CoachRequest{Context: "chocolate on my desk"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("coach: status = %d, body %s", w.Code, w.Body.String())
	}
	coached := decode[services.CoachResult](t, w)
	if coached.Temptation == nil || coached.Temptation.Outcome != domain.TemptationPending || coached.Coaching == "" {
		t.Fatalf("unexpected coaching: %+v", coached)
	}
	id := coached.Temptation.ID

	expectError(t, api.do(t, http.MethodPost, "/temptations/"+id+"/outcome", "u1", ResolveTemptationRequest{Outcome: "pending"}, nil),
		http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, api.do(t, http.MethodPost, "/temptations/"+id+"/outcome", "u2", ResolveTemptationRequest{Outcome: "resisted"}, nil),
		http.StatusNotFound, ErrCodeNotFound)

	w = api.do(t, http.MethodPost, "/temptations/"+id+"/outcome", "u1", ResolveTemptationRequest{Outcome: "resisted"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve: status = %d, body %s", w.Code, w.Body.String())
	}
	if got := decode[domain.Temptation](t, w); got.Outcome != domain.TemptationResisted {
		t.Fatalf("outcome = %q", got.Outcome)
	}

	expectError(t, api.do(t, http.MethodPost, "/temptations/"+id+"/outcome", "u1", ResolveTemptationRequest{Outcome: "relapsed"}, nil),
		http.StatusConflict, ErrCodeResolved)
}
