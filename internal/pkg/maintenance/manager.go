// Package maintenance runs the background sweeps over stored webhook events:
// reconciling deliveries stuck in pending and pruning finished ones.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/metrics"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/webhook"
)

// Reprocessor re-runs a stored event the caller has reclaimed.
type Reprocessor interface {
	Reprocess(ctx context.Context, ev *models.WebhookEvent) (*webhook.Result, error)
}

// Archiver stores events before they are deleted. Optional.
type Archiver interface {
	ArchiveEvents(ctx context.Context, events []models.WebhookEvent) (string, error)
}

type ReconcileReport struct {
	Stale       int `json:"stale"`
	Reclaimed   int `json:"reclaimed"`
	Reprocessed int `json:"reprocessed"`
	Failed      int `json:"failed"`
}

type PruneReport struct {
	Cutoff   time.Time `json:"cutoff"`
	Archived int       `json:"archived"`
	Deleted  int64     `json:"deleted"`
	Objects  []string  `json:"objects,omitempty"`
}

// Manager owns the reconcile and prune workers
type Manager struct {
	cfg         Config
	events      repository.WebhookEventRepository
	reprocessor Reprocessor
	archiver    Archiver
	now         func() time.Time

	reconcileTicker *time.Ticker
	pruneTicker     *time.Ticker
	stopCh          chan struct{}
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.Mutex
	running         bool
}

// NewManager creates a stopped manager. archiver may be nil.
func NewManager(cfg Config, events repository.WebhookEventRepository, reprocessor Reprocessor, archiver Archiver) *Manager {
	return &Manager{
		cfg:         cfg.withDefaults(),
		events:      events,
		reprocessor: reprocessor,
		archiver:    archiver,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start starts the background workers
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.stopCh = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	log.Info("[Maintenance] Starting background workers")

	m.reconcileTicker = time.NewTicker(m.cfg.ReconcileInterval)
	m.wg.Add(1)
	go m.reconcileWorker(ctx, m.stopCh)

	if m.cfg.RetentionDays > 0 {
		m.pruneTicker = time.NewTicker(m.cfg.PruneInterval)
		m.wg.Add(1)
		go m.pruneWorker(ctx, m.stopCh)
	} else {
		log.Info("[Maintenance] EVENT_RETENTION_DAYS <= 0, prune worker disabled")
	}

	log.Info("[Maintenance] Started successfully")
}

// Stop stops the workers and waits for a running sweep to return
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Maintenance] Stopping background workers...")
	if m.reconcileTicker != nil {
		m.reconcileTicker.Stop()
	}
	if m.pruneTicker != nil {
		m.pruneTicker.Stop()
	}

	close(m.stopCh)
	m.cancel()
	m.running = false

	m.wg.Wait()
	log.Info("[Maintenance] Stopped successfully")
}

// Close implements io.Closer for the shutdown chain
func (m *Manager) Close() error {
	m.Stop()
	return nil
}

func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) reconcileWorker(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()
	log.Infof("[Maintenance] Started reconcile worker (interval: %s, enabled: %t)", m.cfg.ReconcileInterval, m.cfg.ReconcileEnabled)

	for {
		select {
		case <-stop:
			log.Info("[Maintenance] Reconcile worker stopping")
			return
		case <-m.reconcileTicker.C:
			if _, err := m.RunReconcileOnce(ctx); err != nil {
				log.Errorf("[Maintenance] Reconcile error: %v", err)
			}
		}
	}
}

func (m *Manager) pruneWorker(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()
	log.Infof("[Maintenance] Started prune worker (retention: %d days, interval: %s)", m.cfg.RetentionDays, m.cfg.PruneInterval)

	for {
		select {
		case <-stop:
			log.Info("[Maintenance] Prune worker stopping")
			return
		case <-m.pruneTicker.C:
			if _, err := m.RunPruneOnce(ctx); err != nil {
				log.Errorf("[Maintenance] Prune error: %v", err)
			}
		}
	}
}

// RunReconcileOnce finds pending events older than the stale threshold. When
// reconciliation is enabled each one is reclaimed and processed again;
// otherwise the count is only reported.
func (m *Manager) RunReconcileOnce(ctx context.Context) (*ReconcileReport, error) {
	staleBefore := m.now().Add(-m.cfg.StaleAfter)
	stale, err := m.events.ListStalePending(ctx, staleBefore, m.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list stale pending events: %w", err)
	}

	report := &ReconcileReport{Stale: len(stale)}
	metrics.StalePendingEvents.Set(float64(len(stale)))
	if len(stale) == 0 {
		return report, nil
	}

	if !m.cfg.ReconcileEnabled {
		log.Warnf("[Maintenance] %d webhook events pending for more than %s (RECONCILE_ENABLED=false)", len(stale), m.cfg.StaleAfter)
		return report, nil
	}

	for i := range stale {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		ev := &stale[i]
		ok, err := m.events.Reclaim(ctx, ev.EventID, staleBefore)
		if err != nil {
			return report, fmt.Errorf("reclaim event %s: %w", ev.EventID, err)
		}
		if !ok {
			// picked up by a redelivery meanwhile
			continue
		}
		report.Reclaimed++

		if _, err := m.reprocessor.Reprocess(ctx, ev); err != nil {
			report.Failed++
			log.Errorf("[Maintenance] Reprocessing event %s failed: %v", ev.EventID, err)
			continue
		}
		report.Reprocessed++
	}

	log.Infof("[Maintenance] Reconciled stale events: %d stale, %d reclaimed, %d reprocessed, %d failed",
		report.Stale, report.Reclaimed, report.Reprocessed, report.Failed)
	return report, nil
}

// RunPruneOnce removes finished events older than the retention window,
// archiving each batch first when an archiver is configured. A batch that
// fails to archive is kept.
func (m *Manager) RunPruneOnce(ctx context.Context) (*PruneReport, error) {
	report := &PruneReport{}
	if m.cfg.RetentionDays <= 0 {
		return report, nil
	}
	report.Cutoff = m.now().Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour)

	for {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		batch, err := m.events.ListFinishedBefore(ctx, report.Cutoff, m.cfg.BatchSize)
		if err != nil {
			return report, fmt.Errorf("list finished events: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		if m.archiver != nil {
			key, err := m.archiver.ArchiveEvents(ctx, batch)
			if err != nil {
				return report, fmt.Errorf("archive events: %w", err)
			}
			report.Archived += len(batch)
			report.Objects = append(report.Objects, key)
		}

		ids := make([]uint, len(batch))
		for i := range batch {
			ids[i] = batch[i].ID
		}
		n, err := m.events.DeleteByIDs(ctx, ids)
		if err != nil {
			return report, fmt.Errorf("delete events: %w", err)
		}
		report.Deleted += n
		metrics.PrunedEvents.Add(float64(n))

		if n == 0 || len(batch) < m.cfg.BatchSize {
			break
		}
	}

	if report.Deleted > 0 {
		log.Infof("[Maintenance] Pruned %d webhook events older than %s", report.Deleted, report.Cutoff.Format(time.RFC3339))
	}
	return report, nil
}
