package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/auth"
	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/service"
)

type TraderRequestHandler struct {
	Svc    *service.TraderRequestService
	Logger *zap.Logger
}

func (h *TraderRequestHandler) Register(r *gin.Engine, secret string) {
	group := r.Group("/api/v1/trader-requests")
	group.Use(auth.Middleware(secret), auth.RequireRoles(auth.RoleTrader))
	group.POST("", h.create)
	group.GET("/my", h.listMine)
	group.GET("/:id", h.get)
	group.POST("/:id/cancel", h.cancel)
}

type createRequestBody struct {
	TraderAddress *string `json:"traderAddress"`
	Notes         *string `json:"notes"`
}

func (h *TraderRequestHandler) create(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil && c.Request.ContentLength > 0 {
		Fail(c, domain.Validation("invalid request body"))
		return
	}
	request, profile, err := h.Svc.Create(c.Request.Context(), ident, service.CreateRequestInput{
		Address: body.TraderAddress,
		Notes:   body.Notes,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, "request created successfully, an agent will contact you soon", gin.H{
		"request":       request,
		"traderDetails": profile,
	})
}

func (h *TraderRequestHandler) listMine(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	requests, profile, err := h.Svc.ListMine(c.Request.Context(), ident.ID)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", gin.H{
		"requests":      requests,
		"traderDetails": profile,
	})
}

func (h *TraderRequestHandler) get(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	detail, profile, err := h.Svc.GetByID(c.Request.Context(), ident, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", gin.H{
		"request":       detail,
		"traderDetails": profile,
	})
}

func (h *TraderRequestHandler) cancel(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	request, err := h.Svc.Cancel(c.Request.Context(), ident, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "request cancelled", request)
}
