package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"invoicekit/internal/common"
	"invoicekit/internal/models"
	"invoicekit/internal/repositories"
	"invoicekit/internal/taxrules"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConfigService struct {
	mock.Mock
}

func (m *MockConfigService) GetConfig(ctx context.Context, sellerID uuid.UUID) (*models.InvoiceConfig, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceConfig), args.Error(1)
}

func (m *MockConfigService) SaveConfig(ctx context.Context, sellerID uuid.UUID, cfg *models.InvoiceConfig) ([]string, error) {
	args := m.Called(ctx, sellerID, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func jsonContext(t *testing.T, sellerID uuid.UUID, method, target, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if payload != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if sellerID != uuid.Nil {
		ctx := context.WithValue(req.Context(), common.SellerIDKey, sellerID)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetConfig_Success(t *testing.T) {
	svc := &MockConfigService{}
	h := NewConfigHandlers(svc)
	sellerID := uuid.New()

	cfg := &models.InvoiceConfig{
		Company: models.CompanyConfig{Name: "Acme Textiles Pvt Ltd", SellerStateCode: "27"},
	}
	svc.On("GetConfig", mock.Anything, sellerID).Return(cfg, nil)

	c, rec := jsonContext(t, sellerID, http.MethodGet, "/v1/config", "")
	require.NoError(t, h.GetConfig(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Textiles Pvt Ltd")
}

func TestGetConfig_NotFound(t *testing.T) {
	svc := &MockConfigService{}
	h := NewConfigHandlers(svc)
	sellerID := uuid.New()

	svc.On("GetConfig", mock.Anything, sellerID).Return(nil, repositories.ErrConfigNotFound)

	c, rec := jsonContext(t, sellerID, http.MethodGet, "/v1/config", "")
	require.NoError(t, h.GetConfig(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetConfig_Unauthorized(t *testing.T) {
	h := NewConfigHandlers(&MockConfigService{})

	c, rec := jsonContext(t, uuid.Nil, http.MethodGet, "/v1/config", "")
	require.NoError(t, h.GetConfig(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSaveConfig_Success(t *testing.T) {
	svc := &MockConfigService{}
	h := NewConfigHandlers(svc)
	sellerID := uuid.New()

	svc.On("SaveConfig", mock.Anything, sellerID, mock.MatchedBy(func(cfg *models.InvoiceConfig) bool {
		return cfg.Company.Name == "Acme Textiles Pvt Ltd" && len(cfg.TaxRules) == 1
	})).Return([]string{}, nil)

	c, rec := jsonContext(t, sellerID, http.MethodPut, "/v1/config", configJSON)
	require.NoError(t, h.SaveConfig(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "warnings")
}

func TestSaveConfig_SurfacesWarnings(t *testing.T) {
	svc := &MockConfigService{}
	h := NewConfigHandlers(svc)
	sellerID := uuid.New()

	svc.On("SaveConfig", mock.Anything, sellerID, mock.Anything).
		Return([]string{"tax rules starting 2025-01-01 and 2025-06-01 overlap; the later 'from' date takes precedence"}, nil)

	c, rec := jsonContext(t, sellerID, http.MethodPut, "/v1/config", configJSON)
	require.NoError(t, h.SaveConfig(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "overlap")
}

func TestSaveConfig_InvalidRule(t *testing.T) {
	svc := &MockConfigService{}
	h := NewConfigHandlers(svc)
	sellerID := uuid.New()

	svc.On("SaveConfig", mock.Anything, sellerID, mock.Anything).
		Return(nil, &taxrules.InvalidRuleError{Index: 0, Reason: "'to' date 2024-01-01 is before 'from' date"})

	c, rec := jsonContext(t, sellerID, http.MethodPut, "/v1/config", configJSON)
	require.NoError(t, h.SaveConfig(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_RULE")
}

func TestSaveConfig_BadPayload(t *testing.T) {
	h := NewConfigHandlers(&MockConfigService{})
	sellerID := uuid.New()

	c, rec := jsonContext(t, sellerID, http.MethodPut, "/v1/config", `{"company": "not-an-object"`)
	require.NoError(t, h.SaveConfig(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
