package handler

import (
	"net/http"

	"gasapp/internal/config"
	"gasapp/internal/middleware"
	"gasapp/internal/repository"
	"gasapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 業者側の注文API
type ProviderOrderHandler struct {
	uc      *usecase.ProviderOrderUsecase
	orderUC *usecase.OrderUsecase
	reports *usecase.ReportUsecase
}

func NewProviderOrderHandler(uc *usecase.ProviderOrderUsecase, orderUC *usecase.OrderUsecase, reports *usecase.ReportUsecase) *ProviderOrderHandler {
	return &ProviderOrderHandler{uc: uc, orderUC: orderUC, reports: reports}
}

func (h *ProviderOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/provider")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.ProviderRoleGuard())

	g.GET("/orders", h.list)
	g.PUT("/orders/:id/status", h.updateStatus)
	g.GET("/reports", h.reportSummary)
}

func (h *ProviderOrderHandler) list(c echo.Context) error {
	providerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.List(c.Request().Context(), providerID, usecase.ListOrdersInput{
		Scope:  c.QueryParam("scope"),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProviderOrderHandler) updateStatus(c echo.Context) error {
	providerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	role, ok := getRoleFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.orderUC.UpdateStatus(c.Request().Context(), providerID, role, c.Param("id"), usecase.UpdateOrderStatusInput{
		Status:         req.Status,
		ExpectedStatus: req.ExpectedStatus,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProviderOrderHandler) reportSummary(c echo.Context) error {
	providerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	period := c.QueryParam("period")
	if period == "" {
		period = usecase.PeriodToday
	}

	out, err := h.reports.Summary(c.Request().Context(), providerID, period)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
