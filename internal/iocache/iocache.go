package iocache

import (
	"sync"

	"github.com/huangsam/diffcover/internal/contract"
)

// CacheStoreManager holds the decode cache and the run history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	coverage     contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetCoverageStore returns the decode cache store.
func (mgr *CacheStoreManager) GetCoverageStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.coverage
}

// GetHistoryStore returns the run history store.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
