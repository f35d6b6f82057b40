package repositories

import (
	"context"
	"testing"
	"time"

	"invoicekit/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type HistoryRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     HistoryRepository
	sellerID uuid.UUID
	context  context.Context
}

func (suite *HistoryRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewHistoryRepo(mock)
	suite.sellerID = uuid.New()
	suite.context = context.Background()
}

func (suite *HistoryRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestHistoryRepoTestSuite(t *testing.T) {
	suite.Run(t, new(HistoryRepoTestSuite))
}

func (suite *HistoryRepoTestSuite) TestRecord() {
	summary := &models.BatchSummary{
		ID:          uuid.New(),
		SellerID:    suite.sellerID,
		GeneratedAt: time.Date(2025, 9, 25, 12, 0, 0, 0, time.UTC),
		OrderCount:  2,
		FirstNumber: "INV-001",
		LastNumber:  "INV-002",
		Format:      models.FormatArchive,
		ObjectKey:   suite.sellerID.String() + "/batch.zip",
	}

	suite.mock.ExpectExec(`INSERT INTO batch_history`).
		WithArgs(summary.ID, summary.SellerID, summary.GeneratedAt, summary.OrderCount,
			summary.FirstNumber, summary.LastNumber, "archive", summary.ObjectKey).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Record(suite.context, summary)
	assert.NoError(suite.T(), err)
}

func (suite *HistoryRepoTestSuite) TestListBySeller() {
	id := uuid.New()
	generatedAt := time.Date(2025, 9, 25, 12, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`SELECT id, seller_id, generated_at, order_count, first_number, last_number, format, object_key`).
		WithArgs(suite.sellerID, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "seller_id", "generated_at", "order_count", "first_number", "last_number", "format", "object_key",
		}).AddRow(id, suite.sellerID, generatedAt, 2, "INV-001", "INV-002", "merged", "key.pdf"))

	summaries, err := suite.repo.ListBySeller(suite.context, suite.sellerID, 20, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), summaries, 1)
	assert.Equal(suite.T(), models.FormatMerged, summaries[0].Format)
	assert.Equal(suite.T(), "INV-002", summaries[0].LastNumber)
}

func (suite *HistoryRepoTestSuite) TestDeleteOlderThan() {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`DELETE FROM batch_history`).
		WithArgs(cutoff).
		WillReturnRows(pgxmock.NewRows([]string{"object_key"}).
			AddRow("a/1.zip").
			AddRow("").
			AddRow("b/2.pdf"))

	keys, err := suite.repo.DeleteOlderThan(suite.context, cutoff)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"a/1.zip", "b/2.pdf"}, keys)
}
