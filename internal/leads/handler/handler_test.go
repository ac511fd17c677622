package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/lifecycle"
	"training_leads_backend/internal/leads/service"
	"training_leads_backend/platform/apperr"
	"training_leads_backend/platform/httpkit"
	"training_leads_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-access-secret"

type jwtConfig struct{}

func (jwtConfig) GetJWTAccessSecret() string { return testSecret }

var (
	userID = uuid.MustParse("3a1f0c9e-7b2d-4e5f-8a6b-1c2d3e4f5a6b")
	orgID  = uuid.MustParse("9c8b7a6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d")
	leadID = uuid.MustParse("1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e")
)

// stubLeads records the last call and returns canned results.
type stubLeads struct {
	result lifecycle.Result
	err    error

	lastRef     lifecycle.Ref
	lastCreate  lifecycle.CreateInput
	lastCall    lifecycle.CallResultInput
	lastPayment lifecycle.PaymentInput
	lastQuote   lifecycle.QuoteInput
	lastFin     lifecycle.FinancingInput
	lastList    service.ListQuery
	detail      service.Detail
}

func (s *stubLeads) Create(ctx context.Context, in lifecycle.CreateInput) (lifecycle.Result, error) {
	s.lastCreate = in
	return s.result, s.err
}

func (s *stubLeads) ApplyCallResult(ctx context.Context, ref lifecycle.Ref, in lifecycle.CallResultInput) (lifecycle.Result, error) {
	s.lastRef, s.lastCall = ref, in
	return s.result, s.err
}

func (s *stubLeads) ScheduleFollowUp(ctx context.Context, ref lifecycle.Ref, in lifecycle.FollowUpInput) (lifecycle.Result, error) {
	s.lastRef = ref
	return s.result, s.err
}

func (s *stubLeads) MarkMissedNoReschedule(ctx context.Context, ref lifecycle.Ref, in lifecycle.MissedInput) (lifecycle.Result, error) {
	s.lastRef = ref
	return s.result, s.err
}

func (s *stubLeads) RecordConsent(ctx context.Context, ref lifecycle.Ref, in lifecycle.ConsentInput) (lifecycle.Result, error) {
	s.lastRef = ref
	return s.result, s.err
}

func (s *stubLeads) RefreshScore(ctx context.Context, ref lifecycle.Ref) (lifecycle.Result, error) {
	s.lastRef = ref
	return s.result, s.err
}

func (s *stubLeads) ChooseFinancing(ctx context.Context, ref lifecycle.Ref, in lifecycle.FinancingInput) (lifecycle.Result, error) {
	s.lastRef, s.lastFin = ref, in
	return s.result, s.err
}

func (s *stubLeads) SubmitQuote(ctx context.Context, ref lifecycle.Ref, in lifecycle.QuoteInput) (lifecycle.Result, error) {
	s.lastRef, s.lastQuote = ref, in
	return s.result, s.err
}

func (s *stubLeads) ValidateInvoice(ctx context.Context, ref lifecycle.Ref) (lifecycle.Result, error) {
	s.lastRef = ref
	return s.result, s.err
}

func (s *stubLeads) RecordPayment(ctx context.Context, ref lifecycle.Ref, in lifecycle.PaymentInput) (lifecycle.Result, error) {
	s.lastRef, s.lastPayment = ref, in
	return s.result, s.err
}

func (s *stubLeads) SendPaymentReminder(ctx context.Context, ref lifecycle.Ref, in lifecycle.ReminderInput) (lifecycle.Result, error) {
	s.lastRef = ref
	return s.result, s.err
}

func (s *stubLeads) Get(ctx context.Context, id, organizationID uuid.UUID) (service.Detail, error) {
	return s.detail, s.err
}

func (s *stubLeads) List(ctx context.Context, organizationID uuid.UUID, q service.ListQuery) (service.Page, error) {
	s.lastList = q
	return service.Page{Page: 1, PageSize: 25}, s.err
}

func newRouter(stub *stubLeads) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(stub, stub, stub, stub, validator.New())
	h.RegisterRoutes(r.Group("/api/v1/leads", httpkit.AuthRequired(jwtConfig{})))
	return r
}

func token(t *testing.T, tenant *uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	if tenant != nil {
		claims["tenant_id"] = tenant.String()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token(t, &orgID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestApplyCallResultMapsLegacyOutcome(t *testing.T) {
	stub := &stubLeads{result: lifecycle.Result{
		LeadID: leadID, PreviousStatus: domain.StatusCallbackPending, NewStatus: domain.StatusCallbackPending, Score: 41, Grade: domain.GradeC,
	}}
	r := newRouter(stub)

	w := do(t, r, http.MethodPost, "/api/v1/leads/"+leadID.String()+"/call-results", `{"outcome":"no-answer-unreachable","notes":"line busy"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "callback_pending", body["newStatus"])
	assert.EqualValues(t, 41, body["score"])

	assert.Equal(t, domain.OutcomeNoAnswerUnreachable, stub.lastCall.Outcome)
	assert.Equal(t, lifecycle.Ref{LeadID: leadID, OrganizationID: orgID, Actor: userID.String()}, stub.lastRef)
}

func TestApplyCallResultRejectsUnknownOutcome(t *testing.T) {
	stub := &stubLeads{}
	w := do(t, newRouter(stub), http.MethodPost, "/api/v1/leads/"+leadID.String()+"/call-results", `{"outcome":"hung_up"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "validation", body["kind"])
}

func TestPreconditionErrorIsConflict(t *testing.T) {
	stub := &stubLeads{err: apperr.Precondition("new", "awaiting_payment")}
	w := do(t, newRouter(stub), http.MethodPost, "/api/v1/leads/"+leadID.String()+"/payments", `{"amount":300}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "precondition", body["kind"])
	assert.Equal(t, "current status new, required awaiting_payment", body["error"])
}

func TestFinancialErrorIsSurfacedVerbatim(t *testing.T) {
	stub := &stubLeads{err: apperr.Financial("invoice already validated")}
	w := do(t, newRouter(stub), http.MethodPost, "/api/v1/leads/"+leadID.String()+"/invoice/validate", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invoice already validated", decode(t, w)["error"])
}

func TestRecordPaymentConvertsEurosToCents(t *testing.T) {
	total := domain.Money(90000)
	stub := &stubLeads{result: lifecycle.Result{
		LeadID: leadID, NewStatus: domain.StatusEnrolled, TotalAmount: &total, AmountPaid: 30000, ThresholdAmount: 27000, Enrolled: true,
	}}
	w := do(t, newRouter(stub), http.MethodPost, "/api/v1/leads/"+leadID.String()+"/payments", `{"amount":300,"minimumPercent":30}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.Money(30000), stub.lastPayment.Amount)
	require.NotNil(t, stub.lastPayment.MinimumPercent)
	assert.Equal(t, 30, *stub.lastPayment.MinimumPercent)

	body := decode(t, w)
	assert.Equal(t, true, body["enrolled"])
	assert.EqualValues(t, 270, body["thresholdAmount"])
}

func TestSubmitQuoteValidatesBody(t *testing.T) {
	stub := &stubLeads{}
	r := newRouter(stub)

	w := do(t, r, http.MethodPost, "/api/v1/leads/"+leadID.String()+"/quote", `{"volume":0,"unitRate":45}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/leads/"+leadID.String()+"/quote", `{"volume":20,"unitRate":45}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Money(4500), stub.lastQuote.UnitRate)
}

func TestChooseFinancingParsesType(t *testing.T) {
	stub := &stubLeads{result: lifecycle.Result{NewStatus: domain.StatusQuoteInProgress}}
	w := do(t, newRouter(stub), http.MethodPost, "/api/v1/leads/"+leadID.String()+"/financing", `{"financingType":"Self-Funded"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.FinancingSelfFunded, stub.lastFin.Type)
}

func TestCreateLead(t *testing.T) {
	stub := &stubLeads{result: lifecycle.Result{LeadID: leadID, NewStatus: domain.StatusNew, Score: 62, Grade: domain.GradeB}}
	w := do(t, newRouter(stub), http.MethodPost, "/api/v1/leads", `{"email":"hugo@exemple.fr","source":"paid-ads"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, domain.SourcePaidAds, stub.lastCreate.Source)
	assert.Equal(t, orgID, stub.lastCreate.OrganizationID)
	assert.Equal(t, "B", decode(t, w)["grade"])
}

func TestListParsesLegacyStatusFilter(t *testing.T) {
	stub := &stubLeads{}
	w := do(t, newRouter(stub), http.MethodGet, "/api/v1/leads?status=rdv_manque,perdu&page=2", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []domain.Status{domain.StatusCallbackPending, domain.StatusLost}, stub.lastList.Statuses)
	assert.Equal(t, 2, stub.lastList.Page)

	w = do(t, newRouter(stub), http.MethodGet, "/api/v1/leads?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetByIDNotFound(t *testing.T) {
	stub := &stubLeads{err: apperr.NotFound("lead not found")}
	w := do(t, newRouter(stub), http.MethodGet, "/api/v1/leads/"+leadID.String(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["kind"])
}

func TestInvalidLeadID(t *testing.T) {
	w := do(t, newRouter(&stubLeads{}), http.MethodPost, "/api/v1/leads/not-a-uuid/score/refresh", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	r := newRouter(&stubLeads{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads/"+leadID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenWithoutOrganizationIsForbidden(t *testing.T) {
	r := newRouter(&stubLeads{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads/"+leadID.String()+"/missed", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUntypedErrorIsInternal(t *testing.T) {
	stub := &stubLeads{err: context.DeadlineExceeded}
	w := do(t, newRouter(stub), http.MethodPost, "/api/v1/leads/"+leadID.String()+"/payment-reminders", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "internal error", body["error"])
}
