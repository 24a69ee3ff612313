package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/auth"
	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/repository"
	"github.com/TegaJeremy/Take-Am-Platform/internal/service"
)

type GradingHandler struct {
	Svc    *service.GradingService
	Logger *zap.Logger
}

func (h *GradingHandler) Register(r *gin.Engine, secret string) {
	group := r.Group("/api/v1/gradings")
	group.Use(auth.Middleware(secret))
	group.POST("", auth.RequireRoles(auth.RoleAgent), h.submit)
	group.GET("/agent/my-gradings", auth.RequireRoles(auth.RoleAgent), h.myGradings)
	group.GET("/admin/pending-payments", auth.RequireRoles(auth.RoleAdmin), h.pendingPayments)
	group.GET("/admin/all", auth.RequireRoles(auth.RoleAdmin), h.listAll)
	group.GET("/:id", h.get)
	group.PUT("/:id/mark-paid", auth.RequireRoles(auth.RoleAdmin), h.markPaid)
}

type submitGradingBody struct {
	TraderPhone string          `json:"traderPhone"`
	GradeA      decimal.Decimal `json:"gradeA"`
	GradeB      decimal.Decimal `json:"gradeB"`
	GradeC      decimal.Decimal `json:"gradeC"`
	GradeD      decimal.Decimal `json:"gradeD"`
	AgentNotes  *string         `json:"agentNotes"`
}

func (h *GradingHandler) submit(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	var body submitGradingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Fail(c, domain.Validation("invalid grading body"))
		return
	}
	grading, err := h.Svc.Submit(c.Request.Context(), ident, service.SubmitGradingInput{
		TraderPhone: body.TraderPhone,
		GradeA:      body.GradeA,
		GradeB:      body.GradeB,
		GradeC:      body.GradeC,
		GradeD:      body.GradeD,
		AgentNotes:  body.AgentNotes,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, "grading completed successfully, trader notified via sms", grading)
}

func (h *GradingHandler) myGradings(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	page, err := h.Svc.ListForAgent(c.Request.Context(), ident.ID,
		optionalQuery(c, "status"), intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", page)
}

func (h *GradingHandler) pendingPayments(c *gin.Context) {
	result, err := h.Svc.PendingPayments(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", result)
}

func (h *GradingHandler) listAll(c *gin.Context) {
	params := repository.ListGradingsParams{
		PaymentStatus: optionalQuery(c, "status"),
		AgentID:       optionalQuery(c, "agentId"),
		TraderID:      optionalQuery(c, "traderId"),
		Limit:         intQuery(c, "limit", 100),
		Offset:        intQuery(c, "offset", 0),
	}
	page, err := h.Svc.ListAll(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", page)
}

func (h *GradingHandler) get(c *gin.Context) {
	grading, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", grading)
}

func (h *GradingHandler) markPaid(c *gin.Context) {
	grading, err := h.Svc.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "payment marked as paid successfully", grading)
}

func optionalQuery(c *gin.Context, key string) *string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return &v
	}
	return nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
