package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"invoicekit/internal/common"
	"invoicekit/internal/models"
	"invoicekit/internal/repositories"
	"invoicekit/internal/services"
	"invoicekit/internal/taxrules"
)

// ConfigHandlers serves the stored seller profile endpoints.
type ConfigHandlers struct {
	configService services.ConfigServiceInterface
}

// NewConfigHandlers creates a new config handlers instance
func NewConfigHandlers(configService services.ConfigServiceInterface) *ConfigHandlers {
	return &ConfigHandlers{configService: configService}
}

// GetConfig handles GET /config
func (h *ConfigHandlers) GetConfig(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	cfg, err := h.configService.GetConfig(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repositories.ErrConfigNotFound) {
			return common.SendNotFoundError(c, "seller config")
		}
		return common.SendServerError(c, err.Error())
	}

	return c.JSON(http.StatusOK, cfg)
}

// SaveConfig handles PUT /config
func (h *ConfigHandlers) SaveConfig(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var cfg models.InvoiceConfig
	if err := c.Bind(&cfg); err != nil {
		return common.SendClientError(c, "invalid config payload")
	}

	warnings, err := h.configService.SaveConfig(ctx, sellerID, &cfg)
	if err != nil {
		var ruleErr *taxrules.InvalidRuleError
		if errors.As(err, &ruleErr) {
			return common.SendUnprocessableError(c, "INVALID_RULE", err.Error(), nil)
		}
		return common.SendValidationError(c, "config", err.Error())
	}

	resp := map[string]interface{}{"message": "Config saved successfully"}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	return c.JSON(http.StatusOK, resp)
}
