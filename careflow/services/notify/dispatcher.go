package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"careflow/careflow/sources/psql/dao"
	"careflow/careflow/sources/psql/models"
	"careflow/careflow/utils/logging"
)

// Dispatcher sweeps due notifications on a fixed interval and delivers
// them through the channel providers. Different notification ids are
// processed concurrently; a single id can never be attempted twice at once
// because every worker must win the conditional pending→sent claim first.
type Dispatcher struct {
	dao             *dao.NotificationDAO
	providers       map[models.DeliveryMethod]Provider
	interval        time.Duration
	deliveryTimeout time.Duration
	baseBackoff     time.Duration
	workers         int

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewDispatcher(notificationDAO *dao.NotificationDAO, providers map[models.DeliveryMethod]Provider, interval, deliveryTimeout, baseBackoff time.Duration, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		dao:             notificationDAO,
		providers:       providers,
		interval:        interval,
		deliveryTimeout: deliveryTimeout,
		baseBackoff:     baseBackoff,
		workers:         workers,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.doneCh)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-d.stopCh:
				return
			case <-ticker.C:
				if err := d.Sweep(context.Background()); err != nil {
					logging.ErrorLogger.Error("notification sweep failed", zap.Error(err))
				}
			}
		}
	}()
	logging.AppLogger.Info("notification dispatcher started",
		zap.Duration("interval", d.interval),
		zap.Int("workers", d.workers),
	)
}

// Stop halts the sweep loop and waits for it to exit. In-flight deliveries
// finish on their own deadlines.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	<-d.doneCh
}

// Sweep delivers everything currently due. Exported so tests and the CLI
// can drive a single pass without the ticker.
func (d *Dispatcher) Sweep(ctx context.Context) error {
	due, err := d.dao.SelectDue(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup
	for i := range due {
		n := due[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			d.deliver(ctx, n)
		}()
	}
	wg.Wait()
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, n models.Notification) {
	now := time.Now()
	claimed, err := d.dao.ClaimForSend(ctx, n.ID, now)
	if err != nil {
		logging.ErrorLogger.Error("notification claim failed",
			zap.String("notification_id", n.ID.String()), zap.Error(err))
		return
	}
	if !claimed {
		// Another sweep got here first.
		return
	}
	n.Status = models.StatusSent
	n.SentAt = &now

	provider, ok := d.providers[n.Method]
	if !ok {
		d.recordFailure(ctx, &n, fmt.Sprintf("no provider for method %s", n.Method))
		return
	}

	dctx, cancel := context.WithTimeout(ctx, d.deliveryTimeout)
	defer cancel()
	if err := provider.Send(dctx, &n); err != nil {
		// A timeout is just another failed attempt.
		d.recordFailure(ctx, &n, err.Error())
		return
	}

	if err := n.MarkDelivered(time.Now()); err != nil {
		logging.ErrorLogger.Error("notification transition error",
			zap.String("notification_id", n.ID.String()), zap.Error(err))
		return
	}
	if err := d.dao.Save(ctx, &n); err != nil {
		logging.ErrorLogger.Error("notification save failed",
			zap.String("notification_id", n.ID.String()), zap.Error(err))
		return
	}
	logging.DispatchLogger.Info("notification delivered",
		zap.String("notification_id", n.ID.String()),
		zap.String("method", string(n.Method)),
		zap.Int("attempts", n.Attempts+1),
	)
}

func (d *Dispatcher) recordFailure(ctx context.Context, n *models.Notification, reason string) {
	if err := n.MarkFailed(reason, time.Now(), d.baseBackoff); err != nil {
		logging.ErrorLogger.Error("notification transition error",
			zap.String("notification_id", n.ID.String()), zap.Error(err))
		return
	}
	if err := d.dao.Save(ctx, n); err != nil {
		logging.ErrorLogger.Error("notification save failed",
			zap.String("notification_id", n.ID.String()), zap.Error(err))
		return
	}
	if n.Status == models.StatusFailed {
		// Terminal: attempts exhausted. Operationally visible, never thrown
		// back at a request path.
		logging.ErrorLogger.Error("notification delivery exhausted",
			zap.String("notification_id", n.ID.String()),
			zap.String("method", string(n.Method)),
			zap.Int("attempts", n.Attempts),
			zap.String("last_error", reason),
		)
		return
	}
	logging.DispatchLogger.Info("notification attempt failed, retry scheduled",
		zap.String("notification_id", n.ID.String()),
		zap.Int("attempts", n.Attempts),
		zap.Time("retry_at", n.ScheduledFor),
		zap.String("error", reason),
	)
}
