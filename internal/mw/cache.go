package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache keeps successful GET responses in memory until they expire
// or Flush is called. A response whose handler overlapped a Flush is not
// stored.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration

	mu  sync.Mutex
	gen uint64
}

// NewResponseCache creates a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Flush drops every cached response. Wired to data mutations so cached reads
// never outlive the state they describe.
func (rc *ResponseCache) Flush() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.gen++
	rc.store.Flush()
}

func (rc *ResponseCache) generation() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.gen
}

// setIfCurrent stores resp unless a Flush happened since gen was read.
func (rc *ResponseCache) setIfCurrent(key string, resp cachedResponse, gen uint64) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.gen != gen {
		return false
	}
	rc.store.Set(key, resp, rc.ttl)
	return true
}

// Len returns the number of cached responses.
func (rc *ResponseCache) Len() int {
	return rc.store.ItemCount()
}

// Middleware caches GET responses keyed by request URI.
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := rc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		gen := rc.generation()
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			rc.setIfCurrent(key, cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}, gen)
		}
	}
}
