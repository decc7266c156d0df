package queries_test

import (
	"context"
	"testing"
	"time"

	"grubdash/internal/adapters/out/postgres/orderrepo"
	"grubdash/internal/core/application/usecases/queries"
	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/core/domain/model/order"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type GetStalledOrdersQueryHandlerTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.GetStalledOrdersQueryHandler
	orderRepo *orderrepo.GormOrderRepository
}

func (suite *GetStalledOrdersQueryHandlerTestSuite) SetupSuite() {
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

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}))

	suite.handler = queries.NewGetStalledOrdersQueryHandler(db)
	suite.orderRepo = orderrepo.NewGormOrderRepository(db)
}

func (suite *GetStalledOrdersQueryHandlerTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders").Error)
}

func (suite *GetStalledOrdersQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

// seedConfirmedOrder creates an order and walks it to order_confirmed with
// the given last modification time.
func (suite *GetStalledOrdersQueryHandlerTestSuite) seedConfirmedOrder(id string, modifiedAt time.Time) {
	ctx := context.Background()

	dropoff, err := kernel.NewGeoPoint(40.7580, -73.9855)
	suite.Require().NoError(err)
	pickup, err := kernel.NewGeoPoint(40.7128, -74.0060)
	suite.Require().NoError(err)

	item, err := order.NewItem("I1", "Margherita", 1, 12.50)
	suite.Require().NoError(err)

	aggregate, err := order.NewOrder(
		id, "C1", "R1", []order.Item{item}, 12.50,
		dropoff, pickup, order.PaymentRefs{}, modifiedAt.Add(-time.Hour),
	)
	suite.Require().NoError(err)

	created, err := suite.orderRepo.Add(ctx, aggregate)
	suite.Require().NoError(err)
	suite.Require().True(created)

	applied, err := suite.orderRepo.UpdateStatus(ctx, id, order.PaymentPending, order.PaymentConfirmed, modifiedAt.Add(-time.Minute))
	suite.Require().NoError(err)
	suite.Require().True(applied)

	applied, err = suite.orderRepo.UpdateStatus(ctx, id, order.PaymentConfirmed, order.OrderConfirmed, modifiedAt)
	suite.Require().NoError(err)
	suite.Require().True(applied)
}

func (suite *GetStalledOrdersQueryHandlerTestSuite) TestHandle_ReturnsOrdersPastTheWindow() {
	now := time.Now().UTC()
	suite.seedConfirmedOrder("O-old", now.Add(-2*time.Hour))
	suite.seedConfirmedOrder("O-older", now.Add(-3*time.Hour))
	suite.seedConfirmedOrder("O-fresh", now.Add(-time.Minute))

	query, err := queries.NewGetStalledOrdersQuery(order.OrderConfirmed, time.Hour)
	suite.Require().NoError(err)

	stalled, err := suite.handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Require().Len(stalled, 2)
	suite.Equal("O-older", stalled[0].ID)
	suite.Equal("O-old", stalled[1].ID)
	suite.Equal(order.OrderConfirmed.String(), stalled[0].Status)
	suite.Equal("R1", stalled[0].RestaurantID)
}

func (suite *GetStalledOrdersQueryHandlerTestSuite) TestHandle_OtherStatusesNotReported() {
	now := time.Now().UTC()
	suite.seedConfirmedOrder("O1", now.Add(-2*time.Hour))

	query, err := queries.NewGetStalledOrdersQuery(order.ReadyForDelivery, time.Hour)
	suite.Require().NoError(err)

	stalled, err := suite.handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Empty(stalled)
}

func TestGetStalledOrdersQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GetStalledOrdersQueryHandlerTestSuite))
}
