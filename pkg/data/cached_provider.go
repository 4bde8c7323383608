package data

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// MemoryCache implements DataCache using in-memory storage
type MemoryCache struct {
	cache map[string][]types.OHLCV
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string][]types.OHLCV),
	}
}

// Get retrieves data from cache if available
func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	data, exists := c.cache[key]
	if exists {
		// Return a copy to prevent external modifications
		result := make([]types.OHLCV, len(data))
		copy(result, data)
		return result, true
	}

	return nil, false
}

// Set stores data in cache
func (c *MemoryCache) Set(key string, data []types.OHLCV) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.OHLCV, len(data))
	copy(cached, data)
	c.cache[key] = cached
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string][]types.OHLCV)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CachedProvider wraps another DataProvider with caching functionality
type CachedProvider struct {
	provider DataProvider
	cache    DataCache
}

// NewCachedProvider creates a new cached data provider
func NewCachedProvider(provider DataProvider) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    NewMemoryCache(),
	}
}

// GetName returns the name of the underlying provider with cache indication
func (p *CachedProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadData loads data with caching to improve repeat-run performance
func (p *CachedProvider) LoadData(source string) ([]types.OHLCV, error) {
	if cachedData, exists := p.cache.Get(source); exists {
		return cachedData, nil
	}

	log.Printf("🔄 Loading historical data from %s", filepath.Base(source))
	data, err := p.provider.LoadData(source)
	if err != nil {
		return nil, err
	}

	p.cache.Set(source, data)

	log.Printf("✅ Loaded and cached data from %s (%d records)", filepath.Base(source), len(data))
	return data, nil
}

// ValidateData validates data using the underlying provider
func (p *CachedProvider) ValidateData(data []types.OHLCV) error {
	return p.provider.ValidateData(data)
}
