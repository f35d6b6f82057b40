package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicekit/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ConfigRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     ConfigRepository
	sellerID uuid.UUID
	context  context.Context
}

func (suite *ConfigRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewConfigRepo(mock)
	suite.sellerID = uuid.New()
	suite.context = context.Background()
}

func (suite *ConfigRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestConfigRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigRepoTestSuite))
}

func (suite *ConfigRepoTestSuite) TestGetConfig_Success() {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`SELECT name, gstin, address, email, website, seller_state, seller_state_code,`).
		WithArgs(suite.sellerID).
		WillReturnRows(pgxmock.NewRows([]string{
			"name", "gstin", "address", "email", "website", "seller_state", "seller_state_code",
			"shipped_from", "hsn_code", "transport_mode", "invoice_prefix", "invoice_start_number",
		}).AddRow(
			"Acme Textiles Pvt Ltd", "27AAPFU0939F1ZV", "12 MG Road, Pune", "", "", "Maharashtra", "27",
			"", "6203", "Road", "INV-", int64(1),
		))

	suite.mock.ExpectQuery(`SELECT from_date, to_date, rate`).
		WithArgs(suite.sellerID).
		WillReturnRows(pgxmock.NewRows([]string{"from_date", "to_date", "rate"}).
			AddRow(from, &to, 12.0).
			AddRow(to.AddDate(0, 0, 1), (*time.Time)(nil), 5.0))

	cfg, err := suite.repo.GetConfig(suite.context, suite.sellerID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Acme Textiles Pvt Ltd", cfg.Company.Name)
	assert.Equal(suite.T(), "27", cfg.Company.SellerStateCode)
	assert.Len(suite.T(), cfg.TaxRules, 2)
	assert.Equal(suite.T(), 12.0, cfg.TaxRules[0].Rate)
	assert.Nil(suite.T(), cfg.TaxRules[1].To)
}

func (suite *ConfigRepoTestSuite) TestGetConfig_NotFound() {
	suite.mock.ExpectQuery(`SELECT name, gstin, address, email, website, seller_state, seller_state_code,`).
		WithArgs(suite.sellerID).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetConfig(suite.context, suite.sellerID)
	assert.ErrorIs(suite.T(), err, ErrConfigNotFound)
}

func (suite *ConfigRepoTestSuite) TestSaveConfig_UpsertsProfileAndRules() {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := &models.InvoiceConfig{
		Company: models.CompanyConfig{
			Name:               "Acme Textiles Pvt Ltd",
			SellerState:        "Maharashtra",
			SellerStateCode:    "27",
			InvoicePrefix:      "INV-",
			InvoiceStartNumber: 1,
		},
		TaxRules: []models.TaxRule{{From: from, Rate: 12}},
	}

	suite.mock.ExpectExec(`INSERT INTO seller_configs`).
		WithArgs(suite.sellerID, cfg.Company.Name, "", "", "", "", "Maharashtra", "27",
			"", "", "", "INV-", int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`DELETE FROM tax_rules WHERE seller_id = \$1`).
		WithArgs(suite.sellerID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectExec(`INSERT INTO tax_rules`).
		WithArgs(suite.sellerID, 0, from, (*time.Time)(nil), 12.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.SaveConfig(suite.context, suite.sellerID, cfg)
	assert.NoError(suite.T(), err)
}

func (suite *ConfigRepoTestSuite) TestSaveConfig_ProfileError() {
	cfg := &models.InvoiceConfig{Company: models.CompanyConfig{Name: "Acme"}}

	suite.mock.ExpectExec(`INSERT INTO seller_configs`).
		WithArgs(suite.sellerID, "Acme", "", "", "", "", "", "", "", "", "", "", int64(0)).
		WillReturnError(errors.New("connection refused"))

	err := suite.repo.SaveConfig(suite.context, suite.sellerID, cfg)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "saving seller config")
}

func (suite *ConfigRepoTestSuite) TestGetCounter_Found() {
	suite.mock.ExpectQuery(`SELECT next_number FROM invoice_counters`).
		WithArgs(suite.sellerID).
		WillReturnRows(pgxmock.NewRows([]string{"next_number"}).AddRow(int64(42)))

	next, found, err := suite.repo.GetCounter(suite.context, suite.sellerID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), found)
	assert.Equal(suite.T(), int64(42), next)
}

func (suite *ConfigRepoTestSuite) TestGetCounter_Missing() {
	suite.mock.ExpectQuery(`SELECT next_number FROM invoice_counters`).
		WithArgs(suite.sellerID).
		WillReturnError(pgx.ErrNoRows)

	next, found, err := suite.repo.GetCounter(suite.context, suite.sellerID)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), found)
	assert.Equal(suite.T(), int64(0), next)
}

func (suite *ConfigRepoTestSuite) TestSetCounter() {
	suite.mock.ExpectExec(`INSERT INTO invoice_counters`).
		WithArgs(suite.sellerID, int64(7)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.SetCounter(suite.context, suite.sellerID, 7)
	assert.NoError(suite.T(), err)
}
