package services

import (
	"errors"
	"testing"
	"time"
	"wayfarer/internal/models"
	"wayfarer/internal/storage"
	storageiface "wayfarer/internal/storage/interfaces"
	"wayfarer/internal/structures"
	"wayfarer/internal/testutil"

	"github.com/stretchr/testify/assert"
)

// persistFailingStore overrides Persist on an otherwise working store.
type persistFailingStore struct {
	storageiface.DocumentStoreInterface
	err error
}

func (p *persistFailingStore) Persist() error { return p.err }

func janitorConfig() *structures.Config {
	conf := &structures.Config{}
	conf.Sessions.PruneInterval = time.Hour
	conf.Sessions.IdleTTL = time.Hour
	conf.Storage.SaveInterval = time.Hour
	return conf
}

func newTestJanitor(store storageiface.DocumentStoreInterface) (JanitorInterface, *testutil.MockMetrics, *testutil.MockLogger) {
	metrics := &testutil.MockMetrics{}
	logger := &testutil.MockLogger{}
	j := NewJanitor(janitorConfig(), models.NewSessionStore(), models.NewDigestStore(1000), store, logger, metrics)
	return j, metrics, logger
}

func TestJanitor_Persist(t *testing.T) {
	j, metrics, _ := newTestJanitor(storage.NewMemoryStore())

	assert.NoError(t, j.Persist())
	assert.Equal(t, 1, metrics.PersistTimings)
}

func TestJanitor_Persist_ErrorPropagates(t *testing.T) {
	failing := &persistFailingStore{
		DocumentStoreInterface: storage.NewMemoryStore(),
		err:                    errors.New("disk full"),
	}
	j, metrics, logger := newTestJanitor(failing)

	assert.Error(t, j.Persist())
	assert.Equal(t, 0, metrics.PersistTimings)
	assert.Equal(t, 1, logger.LevelCount("error"))
}

func TestJanitor_InitAndStop(t *testing.T) {
	j, _, _ := newTestJanitor(storage.NewMemoryStore())

	j.Init()
	j.Stop() // should not panic
}

func TestJanitor_StopWithoutInit(t *testing.T) {
	j, _, _ := newTestJanitor(storage.NewMemoryStore())
	j.Stop() // should not panic
}
