package app

import (
	"fmt"

	// Register the in-memory pubsub driver so mem:// bus topic URLs resolve.
	_ "gocloud.dev/pubsub/mempubsub"

	deliveryUseCase "github.com/allisson/domainbus/internal/delivery/usecase"
)

// AttemptLog returns the in-memory delivery attempt log.
func (c *Container) AttemptLog() (*deliveryUseCase.AttemptLog, error) {
	c.attemptLogInit.Do(func() {
		c.attemptLog = deliveryUseCase.NewAttemptLog(c.config.DeliveryAttemptLogCapacity)
	})
	return c.attemptLog, nil
}

// BusSender returns the pubsub sender for bus-to-bus deliveries.
func (c *Container) BusSender() (*deliveryUseCase.BusSender, error) {
	c.busSenderInit.Do(func() {
		c.busSender = deliveryUseCase.NewBusSender()
	})
	return c.busSender, nil
}

// Dispatcher returns the delivery dispatcher.
func (c *Container) Dispatcher() (*deliveryUseCase.Dispatcher, error) {
	var err error
	c.dispatcherInit.Do(func() {
		c.dispatcher, err = c.initDispatcher()
		if err != nil {
			c.initErrors["dispatcher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dispatcher"]; exists {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

// initDispatcher creates the delivery dispatcher with all its dependencies.
func (c *Container) initDispatcher() (*deliveryUseCase.Dispatcher, error) {
	subscriptionUseCase, err := c.SubscriptionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription use case for dispatcher: %w", err)
	}

	gw, err := c.Gateway()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway for dispatcher: %w", err)
	}

	attemptLog, err := c.AttemptLog()
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt log for dispatcher: %w", err)
	}

	busSender, err := c.BusSender()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus sender for dispatcher: %w", err)
	}

	bridge, err := c.Bridge()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitoring bridge for dispatcher: %w", err)
	}

	alerter, ok := bridge.(deliveryUseCase.Alerter)
	if !ok {
		return nil, fmt.Errorf("monitoring bridge does not implement the delivery alerter")
	}

	busMetrics, err := c.BusMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus metrics for dispatcher: %w", err)
	}

	dispatcherConfig := deliveryUseCase.Config{
		Workers:     c.config.DeliveryWorkers,
		SendTimeout: c.config.DeliverySendTimeout,
		BackoffBase: c.config.DeliveryBackoffBase,
		BackoffCap:  c.config.DeliveryBackoffCap,
	}

	return deliveryUseCase.NewDispatcher(
		dispatcherConfig,
		subscriptionUseCase,
		deliveryUseCase.NewWebhookSender(gw),
		busSender,
		attemptLog,
		alerter,
		busMetrics,
		c.Logger(),
	), nil
}
