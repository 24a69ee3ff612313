package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/auth"
	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/gateway/directory"
	"github.com/TegaJeremy/Take-Am-Platform/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string { return &s }

type agentFixture struct {
	repo    *fakeRepo
	dir     *fakeDirectory
	sender  *fakeSender
	pricing *PricingService
	svc     *AgentRequestService
}

func newAgentFixture(t *testing.T) *agentFixture {
	t.Helper()
	repo := newFakeRepo()
	dir := &fakeDirectory{
		onDuty:  true,
		traders: map[string]*directory.Trader{},
		byPhone: map[string]*directory.Trader{},
	}
	sender := &fakeSender{}
	pricingSvc := &PricingService{Repo: repo, Default: decimal.NewFromInt(100), Logger: zap.NewNop()}
	if err := pricingSvc.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("seed pricing: %v", err)
	}
	return &agentFixture{
		repo:    repo,
		dir:     dir,
		sender:  sender,
		pricing: pricingSvc,
		svc: &AgentRequestService{
			Repo:      repo,
			Directory: dir,
			Pricing:   pricingSvc,
			Notifier:  &Notifier{Sender: sender, Logger: zap.NewNop()},
			Logger:    zap.NewNop(),
		},
	}
}

func (f *agentFixture) seedPendingRequest(t *testing.T) *models.TraderRequest {
	t.Helper()
	item := &models.TraderRequest{
		ID:          uuid.NewString(),
		TraderID:    "trader-1",
		TraderPhone: "+2348011111111",
		TraderName:  "Mama Nkechi",
		Status:      models.RequestStatusPending,
	}
	if err := f.repo.InsertTraderRequest(context.Background(), item); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return item
}

func TestAcceptRequiresClockIn(t *testing.T) {
	f := newAgentFixture(t)
	f.dir.onDuty = false
	req := f.seedPendingRequest(t)

	_, err := f.svc.Accept(context.Background(), "agent-1", req.ID)
	if domain.KindOf(err) != domain.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	got, _ := f.repo.GetTraderRequestByID(context.Background(), req.ID)
	if got.Status != models.RequestStatusPending {
		t.Fatalf("request status changed to %s", got.Status)
	}
}

func TestAcceptDirectoryOutageAborts(t *testing.T) {
	f := newAgentFixture(t)
	f.dir.onDutyErr = domain.Upstream(errors.New("connection refused"), "user service unavailable")
	req := f.seedPendingRequest(t)

	_, err := f.svc.Accept(context.Background(), "agent-1", req.ID)
	if domain.KindOf(err) != domain.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestAcceptRejectsSecondActiveRequest(t *testing.T) {
	f := newAgentFixture(t)
	first := f.seedPendingRequest(t)
	second := f.seedPendingRequest(t)

	if _, err := f.svc.Accept(context.Background(), "agent-1", first.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err := f.svc.Accept(context.Background(), "agent-1", second.ID)
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAcceptMissingRequest(t *testing.T) {
	f := newAgentFixture(t)
	_, err := f.svc.Accept(context.Background(), "agent-1", uuid.NewString())
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAcceptNonPendingRequest(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	if _, err := f.svc.Accept(context.Background(), "agent-1", req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := f.svc.Accept(context.Background(), "agent-2", req.ID)
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAcceptSetsOwnershipAndTimestamp(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)

	accepted, err := f.svc.Accept(context.Background(), "agent-1", req.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.RequestStatusAccepted {
		t.Fatalf("status = %s", accepted.Status)
	}
	if accepted.AgentID == nil || *accepted.AgentID != "agent-1" {
		t.Fatalf("agent id = %v", accepted.AgentID)
	}
	if accepted.AcceptedAt == nil {
		t.Fatal("accepted_at not set")
	}
}

func TestAcceptConcurrentSingleWinner(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)

	const agents = 8
	var wg sync.WaitGroup
	errs := make([]error, agents)
	for i := 0; i < agents; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(context.Background(), "agent-"+string(rune('a'+i)), req.ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if domain.KindOf(err) != domain.KindConflict {
			t.Fatalf("loser got %v, want conflict", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestGradeRejectsUnownedRequest(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	if _, err := f.svc.Accept(context.Background(), "agent-1", req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	other := auth.Identity{ID: "agent-2", Role: auth.RoleAgent, Name: "Musa", Phone: "+2348022222222"}
	_, err := f.svc.Grade(context.Background(), other, req.ID, GradeInput{GradeA: dec("10")})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not found for foreign request, got %v", err)
	}
}

func TestGradeComputesBreakdown(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent, Name: "Musa", Phone: "+2348022222222"}
	if _, err := f.svc.Accept(context.Background(), agent.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	grading, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{
		GradeA: dec("50"), GradeB: dec("30"), GradeC: dec("10"), GradeD: dec("20"),
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !grading.TotalAmount.Equal(dec("7000")) {
		t.Fatalf("total amount = %s, want 7000", grading.TotalAmount)
	}
	if !grading.TotalWeight.Equal(dec("110")) {
		t.Fatalf("total weight = %s, want 110", grading.TotalWeight)
	}
	if !grading.GradeDAmount.IsZero() {
		t.Fatalf("grade D amount = %s, want 0", grading.GradeDAmount)
	}
	if grading.RequestID == nil || *grading.RequestID != req.ID {
		t.Fatalf("request id = %v", grading.RequestID)
	}
	if grading.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("payment status = %s", grading.PaymentStatus)
	}
	if grading.TraderPhone != req.TraderPhone || grading.AgentName != agent.Name {
		t.Fatal("snapshot fields not copied")
	}
}

func TestGradeResubmitOverwritesSameRecord(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent}
	if _, err := f.svc.Accept(context.Background(), agent.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	first, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{GradeA: dec("10")})
	if err != nil {
		t.Fatalf("first grade: %v", err)
	}
	second, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{
		GradeA: dec("50"), GradeB: dec("30"), GradeC: dec("10"), GradeD: dec("20"),
		AgentNotes: strPtr("re-weighed after sorting"),
	})
	if err != nil {
		t.Fatalf("second grade: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmit created a new record: %s vs %s", second.ID, first.ID)
	}
	if f.repo.gradingCount() != 1 {
		t.Fatalf("grading count = %d, want 1", f.repo.gradingCount())
	}
	if !second.TotalAmount.Equal(dec("7000")) {
		t.Fatalf("total amount = %s, want 7000", second.TotalAmount)
	}
	if second.AgentNotes == nil || *second.AgentNotes != "re-weighed after sorting" {
		t.Fatalf("agent notes = %v", second.AgentNotes)
	}
}

func TestGradeFreezesBaseReferencePrice(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent}
	if _, err := f.svc.Accept(context.Background(), agent.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	grading, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{GradeA: dec("10")})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !grading.BaseReferencePrice.Equal(dec("100")) {
		t.Fatalf("frozen BRP = %s, want 100", grading.BaseReferencePrice)
	}

	if err := f.pricing.UpdateBasePrice(context.Background(), dec("150")); err != nil {
		t.Fatalf("update price: %v", err)
	}
	stored, _ := f.repo.GetGradingByID(context.Background(), grading.ID)
	if !stored.BaseReferencePrice.Equal(dec("100")) {
		t.Fatalf("stored BRP changed to %s after price update", stored.BaseReferencePrice)
	}
	if !stored.TotalAmount.Equal(dec("1000")) {
		t.Fatalf("stored amount changed to %s after price update", stored.TotalAmount)
	}
}

func TestGradeCopiesBankDetailsFromDirectory(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	f.dir.traders[req.TraderID] = &directory.Trader{
		ID:                req.TraderID,
		PhoneNumber:       req.TraderPhone,
		FullName:          req.TraderName,
		BankAccountNumber: strPtr("0123456789"),
		BankName:          strPtr("Zenith Bank"),
	}
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent}
	if _, err := f.svc.Accept(context.Background(), agent.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	grading, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{GradeA: dec("5")})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if grading.TraderBankAccount == nil || *grading.TraderBankAccount != "0123456789" {
		t.Fatalf("bank account = %v", grading.TraderBankAccount)
	}
	if grading.TraderBankName == nil || *grading.TraderBankName != "Zenith Bank" {
		t.Fatalf("bank name = %v", grading.TraderBankName)
	}
}

func TestGradeRejectsZeroWeights(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent}
	if _, err := f.svc.Accept(context.Background(), agent.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{})
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCloseRequiresGrading(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	if _, err := f.svc.Accept(context.Background(), "agent-1", req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := f.svc.Close(context.Background(), "agent-1", req.ID)
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := f.repo.GetTraderRequestByID(context.Background(), req.ID)
	if got.Status != models.RequestStatusAccepted {
		t.Fatalf("status = %s, want still ACCEPTED", got.Status)
	}
}

func TestCloseCompletesAndNotifies(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent}
	if _, err := f.svc.Accept(context.Background(), agent.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{
		GradeA: dec("50"), GradeB: dec("30"), GradeC: dec("10"), GradeD: dec("20"),
	}); err != nil {
		t.Fatalf("grade: %v", err)
	}

	closed, err := f.svc.Close(context.Background(), agent.ID, req.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != models.RequestStatusCompleted {
		t.Fatalf("status = %s", closed.Status)
	}
	if closed.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}

	msgs := f.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	if msgs[0].to != req.TraderPhone {
		t.Fatalf("sms recipient = %s", msgs[0].to)
	}
	if !strings.Contains(msgs[0].body, "7000.00") || !strings.Contains(msgs[0].body, "110") {
		t.Fatalf("sms body missing totals: %q", msgs[0].body)
	}
}

func TestCloseSurvivesSMSFailure(t *testing.T) {
	f := newAgentFixture(t)
	f.sender.err = errors.New("provider down")
	req := f.seedPendingRequest(t)
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent}
	if _, err := f.svc.Accept(context.Background(), agent.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{GradeA: dec("5")}); err != nil {
		t.Fatalf("grade: %v", err)
	}

	closed, err := f.svc.Close(context.Background(), agent.ID, req.ID)
	if err != nil {
		t.Fatalf("close should not fail on sms error: %v", err)
	}
	if closed.Status != models.RequestStatusCompleted {
		t.Fatalf("status = %s", closed.Status)
	}
}

func TestCurrentRequestIncludesGrading(t *testing.T) {
	f := newAgentFixture(t)
	req := f.seedPendingRequest(t)
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent}
	if _, err := f.svc.Accept(context.Background(), agent.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	detail, err := f.svc.CurrentRequest(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if detail == nil || detail.ID != req.ID {
		t.Fatalf("detail = %v", detail)
	}
	if detail.Grading != nil {
		t.Fatal("grading should be nil before grading")
	}

	if _, err := f.svc.Grade(context.Background(), agent, req.ID, GradeInput{GradeA: dec("5")}); err != nil {
		t.Fatalf("grade: %v", err)
	}
	detail, err = f.svc.CurrentRequest(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if detail.Grading == nil {
		t.Fatal("grading missing after grading")
	}

	none, err := f.svc.CurrentRequest(context.Background(), "agent-idle")
	if err != nil || none != nil {
		t.Fatalf("idle agent: detail=%v err=%v", none, err)
	}
}

func TestStatisticsCountsByStatus(t *testing.T) {
	f := newAgentFixture(t)
	pending := f.seedPendingRequest(t)
	_ = pending
	accepted := f.seedPendingRequest(t)
	agent := auth.Identity{ID: "agent-1", Role: auth.RoleAgent}
	if _, err := f.svc.Accept(context.Background(), agent.ID, accepted.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	stats, err := f.svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Pending != 1 || stats.Accepted != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
