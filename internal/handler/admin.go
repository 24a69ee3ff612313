package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/auth"
	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/pricing"
	"github.com/TegaJeremy/Take-Am-Platform/internal/repository"
	"github.com/TegaJeremy/Take-Am-Platform/internal/service"
)

type AdminHandler struct {
	Requests *service.AgentRequestService
	Pricing  *service.PricingService
	Logger   *zap.Logger
}

func (h *AdminHandler) Register(r *gin.Engine, secret string) {
	group := r.Group("/api/v1/admin")
	group.Use(auth.Middleware(secret), auth.RequireRoles(auth.RoleAdmin))
	group.GET("/requests", h.listRequests)
	group.GET("/stats", h.stats)
	group.GET("/pricing", h.getPricing)
	group.PUT("/pricing", h.updatePricing)
}

func (h *AdminHandler) listRequests(c *gin.Context) {
	params := repository.ListTraderRequestsParams{
		Status:  optionalQuery(c, "status"),
		AgentID: optionalQuery(c, "agentId"),
	}
	items, err := h.Requests.ListAll(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", items)
}

func (h *AdminHandler) stats(c *gin.Context) {
	stats, err := h.Requests.Statistics(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", stats)
}

func (h *AdminHandler) getPricing(c *gin.Context) {
	price, err := h.Pricing.BasePrice(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, "", gin.H{
		"baseReferencePrice": price,
		"multipliers":        pricing.Multipliers(),
	})
}

type updatePricingBody struct {
	BaseReferencePrice decimal.Decimal `json:"baseReferencePrice"`
}

func (h *AdminHandler) updatePricing(c *gin.Context) {
	var body updatePricingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Fail(c, domain.Validation("invalid pricing body"))
		return
	}
	if err := h.Pricing.UpdateBasePrice(c.Request.Context(), body.BaseReferencePrice); err != nil {
		Fail(c, err)
		return
	}
	OK(c, "base reference price updated", gin.H{
		"baseReferencePrice": body.BaseReferencePrice,
	})
}
