package handler

import (
	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/lifecycle"
	"training_leads_backend/internal/leads/transport"
	"training_leads_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ChooseFinancing(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	var req transport.FinancingRequest
	if !h.bind(c, &req) {
		return
	}
	ft, err := transport.ParseFinancingType(req.FinancingType)
	if err != nil {
		invalid(c, err)
		return
	}

	result, err := h.financing.ChooseFinancing(c.Request.Context(), ref, lifecycle.FinancingInput{Type: ft})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}

func (h *Handler) SubmitQuote(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	var req transport.QuoteRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.financing.SubmitQuote(c.Request.Context(), ref, lifecycle.QuoteInput{
		Volume:        req.Volume,
		UnitRate:      domain.MoneyFromFloat(req.UnitRate),
		IsManualEntry: req.IsManualEntry,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}

func (h *Handler) ValidateInvoice(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	result, err := h.financing.ValidateInvoice(c.Request.Context(), ref)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}

func (h *Handler) RecordPayment(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	var req transport.PaymentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.financing.RecordPayment(c.Request.Context(), ref, lifecycle.PaymentInput{
		Amount:         domain.MoneyFromFloat(req.Amount),
		MinimumPercent: req.MinimumPercent,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPaymentResponse(result))
}

func (h *Handler) SendPaymentReminder(c *gin.Context) {
	ref, ok := leadRef(c)
	if !ok {
		return
	}

	var req transport.PaymentReminderRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	result, err := h.financing.SendPaymentReminder(c.Request.Context(), ref, lifecycle.ReminderInput{Notes: req.Notes})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTransitionResponse(result))
}
