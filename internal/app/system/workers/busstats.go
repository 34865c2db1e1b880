// internal/app/system/workers/busstats.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/metrics"
	"github.com/dalemusser/pulsehub/internal/app/system/pubsub"
)

// BusStats is a background worker that periodically samples the event
// bus and exports per-topic subscriber and drop counts as gauges.
type BusStats struct {
	bus      *pubsub.Bus
	metrics  *metrics.Metrics
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewBusStats creates a new bus sampling worker.
//
// Parameters:
//   - bus: the event bus to sample
//   - m: the collector set to publish into
//   - logger: zap logger for logging
//   - interval: how often to sample (e.g., 15 seconds)
func NewBusStats(bus *pubsub.Bus, m *metrics.Metrics, logger *zap.Logger, interval time.Duration) *BusStats {
	return &BusStats{
		bus:      bus,
		metrics:  m,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sampling loop.
func (w *BusStats) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("bus stats worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *BusStats) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("bus stats worker stopped")
}

func (w *BusStats) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *BusStats) sample() {
	for topic, stats := range w.bus.Stats() {
		w.metrics.SetBusTopic(topic, stats.Subscribers, stats.Dropped)
		if stats.Dropped > 0 {
			w.log.Debug("bus topic has dropped events",
				zap.String("topic", topic),
				zap.Int("subscribers", stats.Subscribers),
				zap.Uint64("dropped", stats.Dropped))
		}
	}
}
