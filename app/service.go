package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/skiptow/dispatch/config"
	coredispatch "github.com/skiptow/dispatch/core/dispatch"
	"github.com/skiptow/dispatch/core/events"
	coremetrics "github.com/skiptow/dispatch/core/metrics"
	"github.com/skiptow/dispatch/core/reactor"
	"github.com/skiptow/dispatch/infra/fcm"
	fsinfra "github.com/skiptow/dispatch/infra/firestore"
	"github.com/skiptow/dispatch/infra/logger"
	"github.com/skiptow/dispatch/infra/metrics"
	"github.com/skiptow/dispatch/internal/eventbus"
	"github.com/skiptow/dispatch/jobs/sweeps"
)

// Service orchestrates the change feed, the reactor and the sweeps.
type Service struct {
	Store    *fsinfra.Store
	Reactor  *reactor.Reactor
	Sweeper  *sweeps.Sweeper
	feed     *fsinfra.ChangeFeed
	bus      eventbus.EventBus
	log      logger.Logger
	closers  []func() error
	sweepGap time.Duration

	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration. All Firebase clients are
// built once here and shared for the lifetime of the process.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	fsClient, err := fbApp.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	msgClient, err := fbApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	st, err := fsinfra.NewStore(fsClient, logger.New("firestore"))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	sender, err := fcm.NewSender(msgClient, logger.New("fcm"))
	if err != nil {
		return nil, fmt.Errorf("fcm sender: %w", err)
	}
	notifier, err := coredispatch.New(st, sender, logger.New("dispatch"), sink)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	rc, err := reactor.New(st, notifier, logger.New("reactor"))
	if err != nil {
		return nil, fmt.Errorf("reactor: %w", err)
	}
	sweeper, err := sweeps.New(st, notifier, logger.New("sweeps"), sink, cfg.Sweeps)
	if err != nil {
		return nil, fmt.Errorf("sweeper: %w", err)
	}

	bus := eventbus.New()
	feed, err := fsinfra.NewChangeFeed(fsClient, bus, logger.New("feed"))
	if err != nil {
		return nil, fmt.Errorf("change feed: %w", err)
	}

	svc := &Service{
		Store:       st,
		Reactor:     rc,
		Sweeper:     sweeper,
		feed:        feed,
		bus:         bus,
		log:         logg,
		sweepGap:    time.Duration(cfg.Sweeps.IntervalHours) * time.Hour,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	svc.closers = append(svc.closers, fsClient.Close)
	return svc, nil
}

// Run starts the change feed, event routing, sweep scheduler and metrics
// endpoint, then blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	go func() {
		if err := s.feed.Run(ctx); err != nil {
			s.log.Errorf("change feed: %v", err)
		}
	}()

	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if s.sweepGap > 0 {
		go s.runSweeps(ctx)
	}

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case ev, ok := <-sub:
			if !ok {
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(ev eventbus.Event) {
				defer wg.Done()
				s.route(ctx, ev)
			}(ev)
		}
	}
}

// route dispatches a single bus event to its reactor handler.
func (s *Service) route(ctx context.Context, ev eventbus.Event) {
	var err error
	switch e := ev.(type) {
	case events.InvoiceCreated:
		err = s.Reactor.InvoiceCreated(ctx, e)
	case events.InvoiceUpdated:
		err = s.Reactor.InvoiceUpdated(ctx, e)
	case events.UserMessageCreated:
		err = s.Reactor.UserMessageCreated(ctx, e)
	case events.InvoiceMessageCreated:
		err = s.Reactor.InvoiceMessageCreated(ctx, e)
	default:
		s.log.Warnf("unhandled event type %T", ev)
		return
	}
	if err != nil {
		s.log.Errorf("event %T: %v", ev, err)
	}
}

func (s *Service) runSweeps(ctx context.Context) {
	ticker := time.NewTicker(s.sweepGap)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweeper.RunAll(ctx); err != nil {
				s.log.Errorf("sweeps: %v", err)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
