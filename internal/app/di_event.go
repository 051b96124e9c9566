package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/allisson/domainbus/internal/database"
	eventDomain "github.com/allisson/domainbus/internal/event/domain"
	eventHTTP "github.com/allisson/domainbus/internal/event/http"
	eventRepository "github.com/allisson/domainbus/internal/event/repository"
	eventUseCase "github.com/allisson/domainbus/internal/event/usecase"
)

// startupTimeout bounds the startup reads that seed in-memory state from the
// database (sequence counter, query window, subscription registry).
const startupTimeout = 10 * time.Second

// storageChecker adapts the database connection to the event log's
// reachability probe.
type storageChecker struct {
	db *sql.DB
}

// Reachable reports whether the database answers a ping.
func (s storageChecker) Reachable(ctx context.Context) bool {
	return database.Reachable(ctx, s.db)
}

// EventRepository returns the event repository based on database driver.
func (c *Container) EventRepository() (eventUseCase.EventRepository, error) {
	var err error
	c.eventRepoInit.Do(func() {
		c.eventRepo, err = c.initEventRepository()
		if err != nil {
			c.initErrors["eventRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventRepo"]; exists {
		return nil, storedErr
	}
	return c.eventRepo, nil
}

// SubscriptionRepository returns the subscription repository based on database driver.
func (c *Container) SubscriptionRepository() (eventUseCase.SubscriptionRepository, error) {
	var err error
	c.subscriptionRepoInit.Do(func() {
		c.subscriptionRepo, err = c.initSubscriptionRepository()
		if err != nil {
			c.initErrors["subscriptionRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subscriptionRepo"]; exists {
		return nil, storedErr
	}
	return c.subscriptionRepo, nil
}

// SubscriptionUseCase returns the subscription registry, loaded with the
// persisted subscriptions.
func (c *Container) SubscriptionUseCase() (eventUseCase.SubscriptionUseCase, error) {
	var err error
	c.subscriptionUseCaseInit.Do(func() {
		c.subscriptionUseCase, err = c.initSubscriptionUseCase()
		if err != nil {
			c.initErrors["subscriptionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subscriptionUseCase"]; exists {
		return nil, storedErr
	}
	return c.subscriptionUseCase, nil
}

// EventLogUseCase returns the event log, seeded from the durable store.
func (c *Container) EventLogUseCase() (eventUseCase.EventLogUseCase, error) {
	var err error
	c.eventLogUseCaseInit.Do(func() {
		c.eventLogUseCase, err = c.initEventLogUseCase()
		if err != nil {
			c.initErrors["eventLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.eventLogUseCase, nil
}

// EventHandler returns the HTTP handler for event log operations.
func (c *Container) EventHandler() (*eventHTTP.EventHandler, error) {
	var err error
	c.eventHandlerInit.Do(func() {
		c.eventHandler, err = c.initEventHandler()
		if err != nil {
			c.initErrors["eventHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventHandler"]; exists {
		return nil, storedErr
	}
	return c.eventHandler, nil
}

// SubscriptionHandler returns the HTTP handler for subscription registry operations.
func (c *Container) SubscriptionHandler() (*eventHTTP.SubscriptionHandler, error) {
	var err error
	c.subscriptionHandlerInit.Do(func() {
		c.subscriptionHandler, err = c.initSubscriptionHandler()
		if err != nil {
			c.initErrors["subscriptionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subscriptionHandler"]; exists {
		return nil, storedErr
	}
	return c.subscriptionHandler, nil
}

// initEventRepository creates the event repository based on the database driver.
func (c *Container) initEventRepository() (eventUseCase.EventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for event repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return eventRepository.NewPostgreSQLEventRepository(db), nil
	case "mysql":
		return eventRepository.NewMySQLEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSubscriptionRepository creates the subscription repository based on the database driver.
func (c *Container) initSubscriptionRepository() (eventUseCase.SubscriptionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for subscription repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return eventRepository.NewPostgreSQLSubscriptionRepository(db), nil
	case "mysql":
		return eventRepository.NewMySQLSubscriptionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSubscriptionUseCase creates the subscription registry and loads the
// persisted subscriptions into memory.
func (c *Container) initSubscriptionUseCase() (eventUseCase.SubscriptionUseCase, error) {
	subscriptionRepo, err := c.SubscriptionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription repository for subscription use case: %w", err)
	}

	useCase := eventUseCase.NewSubscriptionUseCase(subscriptionRepo)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := useCase.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load persisted subscriptions: %w", err)
	}

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		busMetrics, err := c.BusMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get bus metrics for subscription use case: %w", err)
		}
		return eventUseCase.NewSubscriptionUseCaseWithMetrics(useCase, busMetrics), nil
	}

	return useCase, nil
}

// initEventLogUseCase creates the event log with its sequence counter and
// query window seeded from the durable store.
func (c *Container) initEventLogUseCase() (eventUseCase.EventLogUseCase, error) {
	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for event log use case: %w", err)
	}

	subscriptionUseCase, err := c.SubscriptionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription use case for event log use case: %w", err)
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for event log use case: %w", err)
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for event log use case: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// Both seed reads run in one transaction so the counter and the window
	// reflect the same snapshot of the log.
	var lastSequence uint64
	var recent []*eventDomain.Event
	err = database.WithinTx(ctx, db, func(ctx context.Context) error {
		var err error
		lastSequence, err = eventRepo.MaxSequenceNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to read last sequence number: %w", err)
		}
		recent, err = eventRepo.ListRecent(ctx, c.config.EventWindowCapacity)
		if err != nil {
			return fmt.Errorf("failed to read recent events: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed event log state: %w", err)
	}

	useCase := eventUseCase.NewEventLogUseCase(
		eventRepo,
		subscriptionUseCase,
		dispatcher,
		storageChecker{db: db},
		c.config.EventWindowCapacity,
		lastSequence,
		recent,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		busMetrics, err := c.BusMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get bus metrics for event log use case: %w", err)
		}
		return eventUseCase.NewEventLogUseCaseWithMetrics(useCase, busMetrics), nil
	}

	return useCase, nil
}

// initEventHandler creates the event HTTP handler with all its dependencies.
func (c *Container) initEventHandler() (*eventHTTP.EventHandler, error) {
	eventLogUseCase, err := c.EventLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event log use case for event handler: %w", err)
	}

	return eventHTTP.NewEventHandler(eventLogUseCase, c.Logger()), nil
}

// initSubscriptionHandler creates the subscription HTTP handler with all its dependencies.
func (c *Container) initSubscriptionHandler() (*eventHTTP.SubscriptionHandler, error) {
	subscriptionUseCase, err := c.SubscriptionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription use case for subscription handler: %w", err)
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for subscription handler: %w", err)
	}

	return eventHTTP.NewSubscriptionHandler(subscriptionUseCase, dispatcher, dispatcher.Attempts(), c.Logger()), nil
}
