package services

import (
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"wayfarer/internal/models"
	"wayfarer/internal/providers"
	storage "wayfarer/internal/storage/interfaces"
	"wayfarer/internal/structures"
)

type JanitorInterface interface {
	Init()
	Stop()
	Persist() error
}

// Janitor owns the periodic housekeeping: pruning idle sessions together
// with their digests, and flushing the document store.
type Janitor struct {
	conf     *structures.Config
	sessions *models.SessionStore
	digests  *models.DigestStore
	store    storage.DocumentStoreInterface
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	cron     *gron.Cron
	opsMu    sync.Mutex
}

func NewJanitor(
	conf *structures.Config,
	sessions *models.SessionStore,
	digests *models.DigestStore,
	store storage.DocumentStoreInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) JanitorInterface {
	return &Janitor{
		conf:     conf,
		sessions: sessions,
		digests:  digests,
		store:    store,
		logger:   logger,
		metrics:  metrics,
	}
}

func (j *Janitor) Init() {
	j.cron = gron.New()

	j.cron.AddFunc(gron.Every(j.conf.Sessions.PruneInterval), func() {
		j.opsMu.Lock()
		defer j.opsMu.Unlock()

		cutoff := time.Now().UTC().Add(-j.conf.Sessions.IdleTTL)
		pruned := j.sessions.PruneIdle(cutoff)
		for _, ref := range pruned {
			j.digests.ClearDigest(ref.UserID, ref.SessionID)
		}
		if len(pruned) > 0 {
			j.logger.Infof(providers.TypeApp, "Pruned %d idle sessions", len(pruned))
		}
	})

	j.cron.AddFunc(gron.Every(j.conf.Storage.SaveInterval), func() {
		j.opsMu.Lock()
		defer j.opsMu.Unlock()

		start := time.Now()
		if err := j.store.Persist(); err != nil {
			j.logger.Errorf(providers.TypeApp, "Error while persisting documents: %s", err)
			return
		}
		j.metrics.ObservePersistenceDuration(time.Since(start))
		j.logger.Infof(providers.TypeApp, "Persisted documents in %s", time.Since(start))
	})

	j.cron.Start()
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}

func (j *Janitor) Persist() error {
	j.opsMu.Lock()
	defer j.opsMu.Unlock()

	j.logger.Infof(providers.TypeApp, "Persisting documents...")
	start := time.Now()
	err := j.store.Persist()
	if err != nil {
		j.logger.Errorf(providers.TypeApp, "Error while persisting documents: %s", err)
		return err
	}
	j.metrics.ObservePersistenceDuration(time.Since(start))
	return nil
}
