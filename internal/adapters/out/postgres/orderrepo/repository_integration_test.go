package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"grubdash/internal/adapters/out/postgres/orderrepo"
	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/core/domain/model/order"
	"grubdash/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OrderRepositoryIntegrationTestSuite provides integration tests for the
// order repository using PostgreSQL containers to verify persistence and the
// compare-and-set status writes.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders").Error)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) createTestOrder(id string) *order.Order {
	dropoff, err := kernel.NewGeoPoint(40.7580, -73.9855)
	suite.Require().NoError(err)
	pickup, err := kernel.NewGeoPoint(40.7128, -74.0060)
	suite.Require().NoError(err)

	item, err := order.NewItem("I1", "Margherita", 2, 12.50)
	suite.Require().NoError(err)

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	aggregate, err := order.NewOrder(
		id, "C1", "R1", []order.Item{item}, 25.00,
		dropoff, pickup,
		order.PaymentRefs{StripeCustomerID: "cus_123", PaymentIntentID: "pi_456"},
		createdAt,
	)
	suite.Require().NoError(err)
	return aggregate
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_NewOrder_Inserted() {
	ctx := context.Background()

	created, err := suite.repository.Add(ctx, suite.createTestOrder("O1"))
	suite.Require().NoError(err)
	suite.True(created)

	var count int64
	suite.Require().NoError(suite.db.Model(&orderrepo.OrderDTO{}).Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateID_ReportsNotCreated() {
	ctx := context.Background()

	created, err := suite.repository.Add(ctx, suite.createTestOrder("O1"))
	suite.Require().NoError(err)
	suite.True(created)

	created, err = suite.repository.Add(ctx, suite.createTestOrder("O1"))
	suite.Require().NoError(err)
	suite.False(created)

	var count int64
	suite.Require().NoError(suite.db.Model(&orderrepo.OrderDTO{}).Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_ExistingOrder_RoundTrips() {
	ctx := context.Background()

	original := suite.createTestOrder("O1")
	_, err := suite.repository.Add(ctx, original)
	suite.Require().NoError(err)

	retrieved, err := suite.repository.Get(ctx, "O1")
	suite.Require().NoError(err)

	suite.Equal(original.ID(), retrieved.ID())
	suite.Equal(original.CustomerID(), retrieved.CustomerID())
	suite.Equal(original.RestaurantID(), retrieved.RestaurantID())
	suite.Equal(original.Amount(), retrieved.Amount())
	suite.Equal(original.PaymentRefs(), retrieved.PaymentRefs())
	suite.Equal(original.Status(), retrieved.Status())
	suite.Equal(original.PickupZone(), retrieved.PickupZone())

	suite.Require().Len(retrieved.Items(), 1)
	suite.Equal("Margherita", retrieved.Items()[0].Name())
	suite.Equal(2, retrieved.Items()[0].Quantity())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	ctx := context.Background()

	retrieved, err := suite.repository.Get(ctx, "missing")

	suite.Nil(retrieved)
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateStatus_ExpectedStatus_Applies() {
	ctx := context.Background()

	_, err := suite.repository.Add(ctx, suite.createTestOrder("O1"))
	suite.Require().NoError(err)

	at := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	applied, err := suite.repository.UpdateStatus(ctx, "O1", order.PaymentPending, order.PaymentConfirmed, at)
	suite.Require().NoError(err)
	suite.True(applied)

	retrieved, err := suite.repository.Get(ctx, "O1")
	suite.Require().NoError(err)
	suite.Equal(order.PaymentConfirmed, retrieved.Status())
	suite.True(retrieved.LastModified().Equal(at))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateStatus_StatusAlreadyMoved_ReportsNotApplied() {
	ctx := context.Background()

	_, err := suite.repository.Add(ctx, suite.createTestOrder("O1"))
	suite.Require().NoError(err)

	at := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	applied, err := suite.repository.UpdateStatus(ctx, "O1", order.PaymentPending, order.PaymentConfirmed, at)
	suite.Require().NoError(err)
	suite.True(applied)

	// Redelivered event expects the old status and must lose the write race.
	applied, err = suite.repository.UpdateStatus(ctx, "O1", order.PaymentPending, order.PaymentConfirmed, at.Add(time.Second))
	suite.Require().NoError(err)
	suite.False(applied)

	retrieved, err := suite.repository.Get(ctx, "O1")
	suite.Require().NoError(err)
	suite.Equal(order.PaymentConfirmed, retrieved.Status())
	suite.True(retrieved.LastModified().Equal(at))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateStatus_MissingOrder_ReportsNotApplied() {
	ctx := context.Background()

	applied, err := suite.repository.UpdateStatus(
		ctx, "missing", order.PaymentPending, order.PaymentConfirmed, time.Now().UTC())
	suite.Require().NoError(err)
	suite.False(applied)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestLinkDelivery_ExistingOrder_SetsDeliveryID() {
	ctx := context.Background()

	_, err := suite.repository.Add(ctx, suite.createTestOrder("O1"))
	suite.Require().NoError(err)

	at := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)
	linked, err := suite.repository.LinkDelivery(ctx, "O1", "D1", at)
	suite.Require().NoError(err)
	suite.True(linked)

	retrieved, err := suite.repository.Get(ctx, "O1")
	suite.Require().NoError(err)
	suite.Equal("D1", retrieved.DeliveryID())
	suite.True(retrieved.LastModified().Equal(at))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestLinkDelivery_MissingOrder_ReportsNotLinked() {
	ctx := context.Background()

	linked, err := suite.repository.LinkDelivery(ctx, "missing", "D1", time.Now().UTC())
	suite.Require().NoError(err)
	suite.False(linked)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
