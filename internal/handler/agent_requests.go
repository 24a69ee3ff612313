package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/auth"
	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/service"
)

type AgentRequestHandler struct {
	Svc    *service.AgentRequestService
	Logger *zap.Logger
}

func (h *AgentRequestHandler) Register(r *gin.Engine, secret string) {
	group := r.Group("/api/v1/agent-requests")
	group.Use(auth.Middleware(secret))
	group.GET("/pending", auth.RequireRoles(auth.RoleAgent, auth.RoleAdmin), h.pending)
	group.GET("/my-current", auth.RequireRoles(auth.RoleAgent), h.myCurrent)
	group.POST("/:id/accept", auth.RequireRoles(auth.RoleAgent), h.accept)
	group.POST("/:id/grade", auth.RequireRoles(auth.RoleAgent), h.grade)
	group.POST("/:id/close", auth.RequireRoles(auth.RoleAgent), h.close)
}

func (h *AgentRequestHandler) pending(c *gin.Context) {
	items, err := h.Svc.ListPending(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", items)
}

func (h *AgentRequestHandler) myCurrent(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	detail, err := h.Svc.CurrentRequest(c.Request.Context(), ident.ID)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", detail)
}

func (h *AgentRequestHandler) accept(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	request, err := h.Svc.Accept(c.Request.Context(), ident.ID, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "request accepted successfully", request)
}

type gradeBody struct {
	GradeA     decimal.Decimal `json:"gradeA"`
	GradeB     decimal.Decimal `json:"gradeB"`
	GradeC     decimal.Decimal `json:"gradeC"`
	GradeD     decimal.Decimal `json:"gradeD"`
	AgentNotes *string         `json:"agentNotes"`
}

func (h *AgentRequestHandler) grade(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	var body gradeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Fail(c, domain.Validation("invalid grading body"))
		return
	}
	grading, err := h.Svc.Grade(c.Request.Context(), ident, c.Param("id"), service.GradeInput{
		GradeA:     body.GradeA,
		GradeB:     body.GradeB,
		GradeC:     body.GradeC,
		GradeD:     body.GradeD,
		AgentNotes: body.AgentNotes,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "grading details saved successfully", grading)
}

func (h *AgentRequestHandler) close(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	request, err := h.Svc.Close(c.Request.Context(), ident.ID, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "request completed successfully, sms sent to trader", request)
}
