package queries_test

import (
	"context"
	"testing"
	"time"

	"grubdash/internal/adapters/out/postgres/deliveryrepo"
	"grubdash/internal/core/application/usecases/queries"
	"grubdash/internal/core/domain/model/delivery"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type GetPartnerDeliveriesQueryHandlerTestSuite struct {
	suite.Suite
	container    *postgres.PostgresContainer
	db           *gorm.DB
	handler      queries.GetPartnerDeliveriesQueryHandler
	deliveryRepo *deliveryrepo.GormDeliveryRepository
}

func (suite *GetPartnerDeliveriesQueryHandlerTestSuite) SetupSuite() {
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

	suite.Require().NoError(db.AutoMigrate(&deliveryrepo.DeliveryDTO{}))

	suite.handler = queries.NewGetPartnerDeliveriesQueryHandler(db)
	suite.deliveryRepo = deliveryrepo.NewGormDeliveryRepository(db)
}

func (suite *GetPartnerDeliveriesQueryHandlerTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE deliveries").Error)
}

func (suite *GetPartnerDeliveriesQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *GetPartnerDeliveriesQueryHandlerTestSuite) seedDelivery(id, partnerID string, orderIDs []string, createdAt time.Time) {
	aggregate, err := delivery.NewDelivery(id, partnerID, orderIDs, createdAt)
	suite.Require().NoError(err)

	created, err := suite.deliveryRepo.Add(context.Background(), aggregate)
	suite.Require().NoError(err)
	suite.Require().True(created)
}

func (suite *GetPartnerDeliveriesQueryHandlerTestSuite) TestHandle_ReturnsOnlyPartnersDeliveries() {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	suite.seedDelivery("D1", "P1", []string{"O1", "O2"}, base)
	suite.seedDelivery("D2", "P1", []string{"O3"}, base.Add(time.Hour))
	suite.seedDelivery("D3", "P2", []string{"O4"}, base)

	query, err := queries.NewGetPartnerDeliveriesQuery("P1")
	suite.Require().NoError(err)

	deliveries, err := suite.handler.Handle(context.Background(), query)
	suite.Require().NoError(err)

	suite.Require().Len(deliveries, 2)
	suite.Equal("D2", deliveries[0].ID)
	suite.Equal("D1", deliveries[1].ID)
	suite.Equal([]string{"O1", "O2"}, deliveries[1].OrderIDs)
	suite.Equal(delivery.Assigned.String(), deliveries[0].Status)
}

func (suite *GetPartnerDeliveriesQueryHandlerTestSuite) TestHandle_UnknownPartner_ReturnsEmpty() {
	suite.seedDelivery("D1", "P1", []string{"O1"}, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	query, err := queries.NewGetPartnerDeliveriesQuery("nobody")
	suite.Require().NoError(err)

	deliveries, err := suite.handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Empty(deliveries)
}

func TestGetPartnerDeliveriesQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GetPartnerDeliveriesQueryHandlerTestSuite))
}
