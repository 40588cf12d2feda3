package visit

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-desk-api/internal/handler"
	"github.com/jwalitptl/clinic-desk-api/internal/middleware"
	"github.com/jwalitptl/clinic-desk-api/internal/model"
	"github.com/jwalitptl/clinic-desk-api/internal/repository"
	billingService "github.com/jwalitptl/clinic-desk-api/internal/service/billing"
	visitService "github.com/jwalitptl/clinic-desk-api/internal/service/visit"
)

type Handler struct {
	service    visitService.VisitService
	billing    billingService.BillingService
	outboxRepo repository.OutboxRepository
}

func NewHandler(service visitService.VisitService, billing billingService.BillingService, outboxRepo repository.OutboxRepository) *Handler {
	return &Handler{
		service:    service,
		billing:    billing,
		outboxRepo: outboxRepo,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard *middleware.AuthMiddleware) {
	visits := r.Group("/visits", guard.Authenticate())
	{
		visits.POST("", guard.RequireRole(model.RoleReceptionist), h.RegisterVisit)
		visits.GET("/queue", h.Queue)
		visits.GET("/:id", h.GetVisit)

		visits.POST("/:id/prescription", guard.RequireRole(model.RoleDoctor), h.SavePrescription)
		visits.GET("/:id/prescription", guard.RequireRole(model.RoleDoctor), h.GetPrescription)

		visits.GET("/:id/bill", guard.RequireRole(model.RoleReceptionist), h.GetBill)
		visits.POST("/:id/payment", guard.RequireRole(model.RoleReceptionist), h.MarkPaid)
	}
}

func (h *Handler) RegisterVisit(c *gin.Context) {
	var req model.RegisterVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	claims := middleware.GetClaims(c)
	visit, err := h.service.Register(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.emitEvent(c, model.EventVisitRegistered, visit)
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(visit))
}

// Queue returns today's projection. The session's role claim selects
// the counter set.
func (h *Handler) Queue(c *gin.Context) {
	claims := middleware.GetClaims(c)
	queue, err := h.service.Queue(c.Request.Context(), model.Role(claims.Role))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(queue))
}

func (h *Handler) GetVisit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	visit, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(visit))
}

func (h *Handler) SavePrescription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	var req model.PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	visit, err := h.service.SavePrescription(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.emitEvent(c, model.EventVisitCompleted, visit)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(visit))
}

func (h *Handler) GetPrescription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	visit, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if !visit.Completed() {
		c.JSON(http.StatusConflict, handler.NewErrorResponse("no prescription saved for this visit yet"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"patient_name":     visit.Name,
		"token_number":     visit.TokenNumber,
		"diagnosis":        visit.Diagnosis,
		"prescription":     visit.Prescription,
		"notes":            visit.Notes,
		"consultation_fee": visit.ConsultationFee,
	}))
}

func (h *Handler) GetBill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	bill, err := h.billing.GetBill(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(bill))
}

func (h *Handler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	visit, err := h.billing.MarkPaid(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.emitEvent(c, model.EventVisitPaid, visit)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(visit))
}

// emitEvent records a mutation in the outbox so the broker can fan it
// out to dashboards. A failed write is logged, never surfaced.
func (h *Handler) emitEvent(c *gin.Context, eventType string, visit *model.Visit) {
	payload, err := json.Marshal(visit)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal visit for event")
		return
	}

	if err := h.outboxRepo.Create(c.Request.Context(), &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to create outbox event")
	}
}
