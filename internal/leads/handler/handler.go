package handler

import (
	"context"
	"net/http"

	"training_leads_backend/internal/leads/lifecycle"
	"training_leads_backend/internal/leads/service"
	"training_leads_backend/internal/leads/transport"
	"training_leads_backend/platform/apperr"
	"training_leads_backend/platform/httpkit"
	"training_leads_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// LeadIntake creates leads.
type LeadIntake interface {
	Create(ctx context.Context, in lifecycle.CreateInput) (lifecycle.Result, error)
}

// CallPipeline runs the call-outcome and follow-up operations.
type CallPipeline interface {
	ApplyCallResult(ctx context.Context, ref lifecycle.Ref, in lifecycle.CallResultInput) (lifecycle.Result, error)
	ScheduleFollowUp(ctx context.Context, ref lifecycle.Ref, in lifecycle.FollowUpInput) (lifecycle.Result, error)
	MarkMissedNoReschedule(ctx context.Context, ref lifecycle.Ref, in lifecycle.MissedInput) (lifecycle.Result, error)
	RecordConsent(ctx context.Context, ref lifecycle.Ref, in lifecycle.ConsentInput) (lifecycle.Result, error)
	RefreshScore(ctx context.Context, ref lifecycle.Ref) (lifecycle.Result, error)
}

// FinancingFlow runs the financing, invoice and payment operations.
type FinancingFlow interface {
	ChooseFinancing(ctx context.Context, ref lifecycle.Ref, in lifecycle.FinancingInput) (lifecycle.Result, error)
	SubmitQuote(ctx context.Context, ref lifecycle.Ref, in lifecycle.QuoteInput) (lifecycle.Result, error)
	ValidateInvoice(ctx context.Context, ref lifecycle.Ref) (lifecycle.Result, error)
	RecordPayment(ctx context.Context, ref lifecycle.Ref, in lifecycle.PaymentInput) (lifecycle.Result, error)
	SendPaymentReminder(ctx context.Context, ref lifecycle.Ref, in lifecycle.ReminderInput) (lifecycle.Result, error)
}

// LeadQueries serves the read side.
type LeadQueries interface {
	Get(ctx context.Context, id, organizationID uuid.UUID) (service.Detail, error)
	List(ctx context.Context, organizationID uuid.UUID, q service.ListQuery) (service.Page, error)
}

type Handler struct {
	intake    LeadIntake
	pipeline  CallPipeline
	financing FinancingFlow
	queries   LeadQueries
	val       *validator.Validator
}

func New(intake LeadIntake, pipeline CallPipeline, financing FinancingFlow, queries LeadQueries, val *validator.Validator) *Handler {
	return &Handler{intake: intake, pipeline: pipeline, financing: financing, queries: queries, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/call-results", h.ApplyCallResult)
	rg.POST("/:id/follow-ups", h.ScheduleFollowUp)
	rg.POST("/:id/missed", h.MarkMissed)
	rg.POST("/:id/consent", h.RecordConsent)
	rg.POST("/:id/score/refresh", h.RefreshScore)
	// Financing routes
	rg.POST("/:id/financing", h.ChooseFinancing)
	rg.POST("/:id/quote", h.SubmitQuote)
	rg.POST("/:id/invoice/validate", h.ValidateInvoice)
	rg.POST("/:id/payments", h.RecordPayment)
	rg.POST("/:id/payment-reminders", h.SendPaymentReminder)
}

// organization returns the caller's organization, or aborts with 403.
func organization(c *gin.Context) (httpkit.Caller, uuid.UUID, bool) {
	caller, ok := httpkit.RequireCaller(c)
	if !ok {
		return httpkit.Caller{}, uuid.Nil, false
	}
	if caller.OrganizationID == nil {
		httpkit.Error(c, http.StatusForbidden, "organization required", nil)
		return httpkit.Caller{}, uuid.Nil, false
	}
	return caller, *caller.OrganizationID, true
}

// leadRef resolves the :id path parameter and the caller into a lifecycle.Ref.
func leadRef(c *gin.Context) (lifecycle.Ref, bool) {
	id, orgID, ok := organization(c)
	if !ok {
		return lifecycle.Ref{}, false
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, msgInvalidRequest, nil)
		return lifecycle.Ref{}, false
	}
	return lifecycle.Ref{LeadID: leadID, OrganizationID: orgID, Actor: id.Actor()}, true
}

// bind decodes and validates the JSON body into req.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		badRequest(c, msgValidationFailed, validator.Message(err))
		return false
	}
	return true
}

func badRequest(c *gin.Context, message string, details any) {
	httpkit.HandleError(c, apperr.Validation(message).WithDetails(details))
}

func invalid(c *gin.Context, err error) {
	httpkit.HandleError(c, apperr.Validation(err.Error()))
}

func (h *Handler) List(c *gin.Context) {
	_, orgID, ok := organization(c)
	if !ok {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		badRequest(c, msgValidationFailed, validator.Message(err))
		return
	}
	statuses, err := transport.ParseStatuses(req.Status)
	if err != nil {
		invalid(c, err)
		return
	}

	page, err := h.queries.List(c.Request.Context(), orgID, service.ListQuery{
		Statuses: statuses,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadListResponse(page))
}

func (h *Handler) Create(c *gin.Context) {
	id, orgID, ok := organization(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if !h.bind(c, &req) {
		return
	}
	source, err := transport.ParseSource(req.Source)
	if err != nil {
		invalid(c, err)
		return
	}

	result, err := h.intake.Create(c.Request.Context(), lifecycle.CreateInput{
		OrganizationID:  orgID,
		Actor:           id.Actor(),
		Email:           req.Email,
		Phone:           req.Phone,
		FullName:        req.FullName,
		AddressStreet:   req.AddressStreet,
		PostalCode:      req.PostalCode,
		City:            req.City,
		StatedInterest:  req.StatedInterest,
		Source:          source,
		AssignedOwnerID: req.AssignedOwnerID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToTransitionResponse(result))
}

func (h *Handler) GetByID(c *gin.Context) {
	_, orgID, ok := organization(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, msgInvalidRequest, nil)
		return
	}

	detail, err := h.queries.Get(c.Request.Context(), leadID, orgID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadDetailResponse(detail))
}

func (h *Handler) ApplyCallResult(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	var req transport.CallResultRequest
	if !h.bind(c, &req) {
		return
	}
	outcome, err := transport.ParseOutcome(req.Outcome)
	if err != nil {
		invalid(c, err)
		return
	}

	result, err := h.pipeline.ApplyCallResult(c.Request.Context(), ref, lifecycle.CallResultInput{
		Outcome:        outcome,
		RescheduleDate: req.RescheduleDate,
		Notes:          req.Notes,
		LostReason:     req.LostReason,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}

func (h *Handler) ScheduleFollowUp(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	var req transport.FollowUpRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.pipeline.ScheduleFollowUp(c.Request.Context(), ref, lifecycle.FollowUpInput{Date: req.Date, Notes: req.Notes})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}

func (h *Handler) MarkMissed(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	var req transport.MissedRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	result, err := h.pipeline.MarkMissedNoReschedule(c.Request.Context(), ref, lifecycle.MissedInput{Notes: req.Notes})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}

func (h *Handler) RecordConsent(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	var req transport.ConsentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.pipeline.RecordConsent(c.Request.Context(), ref, lifecycle.ConsentInput{Granted: req.Granted, Source: req.Source})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}

func (h *Handler) RefreshScore(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	result, err := h.pipeline.RefreshScore(c.Request.Context(), ref)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}
