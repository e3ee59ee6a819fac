// Package cache holds recently scraped responses so repeat lookups of the
// same profile skip the browser entirely. Scrapes are slow and the target
// rate-limits aggressively, so callers that tolerate staleness opt in via
// the request's max_age field.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/use-agent/credscan/models"
)

// entry pairs a cached response with its creation time, so per-request
// max_age checks can be stricter than the cache-wide TTL.
type entry struct {
	response  *models.ScrapeResponse
	createdAt time.Time
}

// Cache is an in-memory LRU for scrape responses.
// It is safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[string, entry]
}

// New creates a Cache evicting beyond maxEntries and after ttl.
func New(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, entry](maxEntries, nil, ttl),
	}
}

// Key derives the cache key from the request fields that change the result.
func Key(url string, detailOnly bool) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte(fmt.Sprintf("|detail=%t", detailOnly)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached response younger than maxAge milliseconds.
// maxAge <= 0 disables the lookup entirely.
func (c *Cache) Get(key string, maxAgeMs int) (*models.ScrapeResponse, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return nil, false
	}
	return e.response, true
}

// Set stores a response.
func (c *Cache) Set(key string, resp *models.ScrapeResponse) {
	c.lru.Add(key, entry{response: resp, createdAt: time.Now()})
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
