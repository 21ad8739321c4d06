package pgsql

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	"github.com/SscSPs/receipt_budget_app/pkg/database"
)

// ReceiptRepositoryTestSuite runs against a real Postgres named by TEST_PGSQL_URL.
type ReceiptRepositoryTestSuite struct {
	suite.Suite
	pool    *pgxpool.Pool
	repo    portsrepo.ReceiptRepositoryFacade
	ownerID string
	now     time.Time
}

func (suite *ReceiptRepositoryTestSuite) SetupSuite() {
	url := os.Getenv("TEST_PGSQL_URL")
	if url == "" {
		suite.T().Skip("TEST_PGSQL_URL not set")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.Require().NoError(database.RunMigrations(url, "file://../../../../migrations", logger))

	pool, err := database.NewPgxPool(context.Background(), url, true)
	suite.Require().NoError(err)
	suite.pool = pool
	suite.repo = newPgxReceiptRepository(pool)
}

func (suite *ReceiptRepositoryTestSuite) TearDownSuite() {
	if suite.pool != nil {
		database.ClosePgxPool(suite.pool)
	}
}

func (suite *ReceiptRepositoryTestSuite) SetupTest() {
	suite.ownerID = "owner-" + uuid.NewString()
	suite.now = time.Date(2024, 7, 20, 9, 0, 0, 0, time.UTC)
}

func (suite *ReceiptRepositoryTestSuite) TearDownTest() {
	if suite.pool == nil {
		return
	}
	_, err := suite.pool.Exec(context.Background(), `DELETE FROM receipts WHERE owner_id = $1;`, suite.ownerID)
	suite.NoError(err)
}

func (suite *ReceiptRepositoryTestSuite) receipt(description string, amount string, items ...string) domain.Receipt {
	id := uuid.NewString()
	r := domain.Receipt{
		ReceiptID:   id,
		OwnerID:     suite.ownerID,
		Category:    domain.CategoryGroceries,
		Date:        domain.NewDate(2024, time.July, 15),
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Items:       []domain.ReceiptItem{},
		AuditFields: domain.AuditFields{
			CreatedAt:     suite.now,
			CreatedBy:     suite.ownerID,
			LastUpdatedAt: suite.now,
			LastUpdatedBy: suite.ownerID,
		},
	}
	for _, name := range items {
		r.Items = append(r.Items, domain.ReceiptItem{
			ItemID:    uuid.NewString(),
			ReceiptID: id,
			Item:      name,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.RequireFromString("1.50"),
		})
	}
	return r
}

func (suite *ReceiptRepositoryTestSuite) TestApplyExtractionResults_CommitsUpdatesAndCreates() {
	ctx := context.Background()
	placeholder := suite.receipt("scan.jpg", "0")
	created, err := suite.repo.SaveReceipts(ctx, []domain.Receipt{placeholder})
	suite.Require().NoError(err)
	suite.Require().Equal(1, created)

	overwritten := placeholder
	overwritten.Description = "Corner shop"
	overwritten.Amount = decimal.RequireFromString("42.50")
	overwritten.Items = suite.receipt("", "0", "milk", "bread").Items
	for i := range overwritten.Items {
		overwritten.Items[i].ReceiptID = placeholder.ReceiptID
	}
	extra := suite.receipt("Pharmacy", "7.00", "plasters")

	suite.Require().NoError(suite.repo.ApplyExtractionResults(ctx, []domain.Receipt{overwritten}, []domain.Receipt{extra}))

	got, err := suite.repo.FindReceiptsByIDs(ctx, []string{placeholder.ReceiptID, extra.ReceiptID})
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal("Corner shop", got[placeholder.ReceiptID].Description)
	suite.True(decimal.RequireFromString("42.50").Equal(got[placeholder.ReceiptID].Amount))
	suite.Require().Len(got[placeholder.ReceiptID].Items, 2)
	suite.Equal("milk", got[placeholder.ReceiptID].Items[0].Item)
	suite.Equal("bread", got[placeholder.ReceiptID].Items[1].Item)
	suite.Len(got[extra.ReceiptID].Items, 1)
}

func (suite *ReceiptRepositoryTestSuite) TestApplyExtractionResults_RollsBackOnDuplicateCreate() {
	ctx := context.Background()
	placeholder := suite.receipt("scan.jpg", "0")
	existing := suite.receipt("Already stored", "3.00")
	_, err := suite.repo.SaveReceipts(ctx, []domain.Receipt{placeholder, existing})
	suite.Require().NoError(err)

	overwritten := placeholder
	overwritten.Amount = decimal.RequireFromString("42.50")
	duplicate := existing
	duplicate.Description = "Inserted twice"

	err = suite.repo.ApplyExtractionResults(ctx, []domain.Receipt{overwritten}, []domain.Receipt{duplicate})

	suite.ErrorIs(err, apperrors.ErrCountMismatch)
	got, err := suite.repo.FindReceiptByID(ctx, placeholder.ReceiptID)
	suite.Require().NoError(err)
	suite.True(got.Amount.IsZero())
	again, err := suite.repo.FindReceiptByID(ctx, existing.ReceiptID)
	suite.Require().NoError(err)
	suite.Equal("Already stored", again.Description)
}

func (suite *ReceiptRepositoryTestSuite) TestApplyExtractionResults_UnknownPlaceholderFails() {
	ctx := context.Background()
	extra := suite.receipt("Pharmacy", "7.00")

	err := suite.repo.ApplyExtractionResults(ctx, []domain.Receipt{suite.receipt("gone.jpg", "1.00")}, []domain.Receipt{extra})

	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.repo.FindReceiptByID(ctx, extra.ReceiptID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestReceiptRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ReceiptRepositoryTestSuite))
}
