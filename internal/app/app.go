package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	ticketsUsecase "transit/internal/application/usecases/tickets"
	tripsUsecase "transit/internal/application/usecases/trips"
	"transit/internal/config"
	"transit/internal/infrastructure/discovery"
	"transit/internal/infrastructure/event_publisher"
	"transit/internal/interfaces/http"
	internalMessage "transit/internal/interfaces/message"
	"transit/internal/interfaces/message/events"
	"transit/internal/interfaces/message/outbox"
	"transit/internal/repository"
)

type App struct {
	cfg             config.Config
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger

	db        *sqlx.DB
	router    *message.Router
	srv       *http.Server
	forwarder *outbox.Forwarder
	consul    *discovery.ConsulClient

	tickets *ticketsUsecase.TicketsUsecase
}

func NewApp(
	cfg config.Config,
	watermillLogger watermill.LoggerAdapter,
	db *sqlx.DB,
	redisClient redis.UniversalClient,
) (*App, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName).Logger()

	broker, err := event_publisher.NewBroker(event_publisher.BrokerConfig{
		Kind:    cfg.Broker,
		AMQPURL: cfg.AMQPURL,
		Name:    cfg.ServiceName,
	}, redisClient, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create broker: %w", err)
	}

	forwarder, err := outbox.NewForwarder(db, broker.Publisher, cfg.OutboxPollInterval, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox forwarder: %w", err)
	}

	trGetter := trmsqlx.DefaultCtxGetter
	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))
	eventBus := outbox.NewEventBus(trGetter, watermillLogger)

	var (
		tripsService   *tripsUsecase.TripsUsecase
		ticketsService *ticketsUsecase.TicketsUsecase
		handlers       []cqrs.EventHandler
	)

	if cfg.Runs(config.ServiceRoute) {
		tripsService = tripsUsecase.NewTripsUsecase(
			repository.NewTripsRepo(db, trGetter),
			repository.NewReservationsRepo(db, trGetter),
			eventBus,
			trManager,
			cfg.ReleaseClampToCapacity,
		)
	}
	if cfg.Runs(config.ServiceTickets) {
		ticketsService = ticketsUsecase.NewTicketsUsecase(
			repository.NewPurchasesRepo(db, trGetter),
			repository.NewTicketsRepo(db, trGetter),
			repository.NewCancelledTripsRepo(db, trGetter),
			repository.NewTripDeparturesRepo(db, trGetter),
			eventBus,
			trManager,
			cfg.PurchaseTimeout,
		)
	}

	eventHandler := events.NewHandler(tripsService, ticketsService)
	if tripsService != nil {
		handlers = append(handlers, eventHandler.RouteHandlers()...)
	}
	if ticketsService != nil {
		handlers = append(handlers, eventHandler.TicketsHandlers()...)
	}

	router, err := internalMessage.NewRouter(
		watermillLogger,
		broker.Publisher,
		events.NewEventProcessorConfig(broker.NewSubscriber, watermillLogger),
		handlers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	// typed nil pointers must not reach the server as non-nil interfaces
	var (
		httpTickets http.TicketsService
		httpTrips   http.TripsService
	)
	if ticketsService != nil {
		httpTickets = ticketsService
	}
	if tripsService != nil {
		httpTrips = tripsService
	}

	srv := http.NewServer(
		commonHTTP.NewEcho(),
		httpTickets,
		httpTrips,
		router.IsRunning,
	)

	var consul *discovery.ConsulClient
	if cfg.ConsulAddr != "" {
		consul, err = discovery.NewConsulClient(cfg.ConsulAddr, logger)
		if err != nil {
			return nil, err
		}
	}

	return &App{
		cfg:             cfg,
		watermillLogger: watermillLogger,
		logger:          logger,
		db:              db,
		router:          router,
		srv:             srv,
		forwarder:       forwarder,
		consul:          consul,
		tickets:         ticketsService,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if err := a.initializeSchema(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Msg("starting outbox forwarder")

		return a.forwarder.Run(ctx)
	})

	g.Go(func() error {
		a.logger.Info().Strs("services", a.cfg.Services).Msg("starting router")

		return a.router.Run(ctx)
	})

	g.Go(func() error {
		select {
		case <-a.router.Running():
		case <-ctx.Done():
			return nil
		}
		a.logger.Info().Msg("router is running")

		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("starting server")
		return a.srv.Start(a.cfg.HTTPAddr)
	})

	if a.tickets != nil {
		g.Go(func() error {
			a.logger.Info().Dur("timeout", a.cfg.PurchaseTimeout).Msg("starting purchase timeout sweeper")

			return a.tickets.RunTimeoutSweeper(ctx, a.cfg.SweepInterval)
		})
	}

	if a.consul != nil {
		g.Go(func() error {
			return a.registerService(ctx)
		})
	}

	g.Go(func() error {
		// Shut down
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := a.srv.Stop(shutdownCtx)
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	// Will block until all goroutines finish
	return g.Wait()
}

func (a *App) initializeSchema(ctx context.Context) error {
	if a.cfg.Runs(config.ServiceRoute) {
		if err := repository.InitializeRouteSchema(ctx, a.db); err != nil {
			return err
		}
	}
	if a.cfg.Runs(config.ServiceTickets) {
		if err := repository.InitializeTicketsSchema(ctx, a.db); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) registerService(ctx context.Context) error {
	serviceID := a.cfg.ServiceName + "-" + uuid.NewString()[:8]

	err := a.consul.Register(discovery.ServiceConfig{
		Name: a.cfg.ServiceName,
		ID:   serviceID,
		Port: portOf(a.cfg.HTTPAddr),
		Tags: a.cfg.Services,
	})
	if err != nil {
		// the service keeps running without registration
		a.logger.Err(err).Msg("consul registration failed")
		return nil
	}

	<-ctx.Done()

	if err := a.consul.Deregister(serviceID); err != nil {
		a.logger.Err(err).Msg("consul deregistration failed")
	}
	return nil
}

func portOf(addr string) int {
	i := strings.LastIndex(addr, ":")
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return 8080
	}
	return port
}
