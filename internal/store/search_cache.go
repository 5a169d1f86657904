package store

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tunedrop/internal/core"
	"tunedrop/pkg/text"
)

// CachedCatalog decorates a catalog with a bounded, expiring result cache.
// Concurrent lookups for the same query share one upstream call.
type CachedCatalog struct {
	next   core.Catalog
	cache  *expirable.LRU[string, []core.Track]
	group  singleflight.Group
	parser *text.Parser
	logger *zap.Logger
}

func NewCachedCatalog(next core.Catalog, size int, ttl time.Duration, logger *zap.Logger) *CachedCatalog {
	if size <= 0 {
		size = core.DefaultSearchCacheSize
	}
	if ttl <= 0 {
		ttl = core.DefaultSearchCacheTTL
	}

	return &CachedCatalog{
		next:   next,
		cache:  expirable.NewLRU[string, []core.Track](size, nil, ttl),
		parser: text.NewParser(),
		logger: logger.Named("search_cache"),
	}
}

func (c *CachedCatalog) SearchCatalog(ctx context.Context, query string) ([]core.Track, error) {
	key := c.cacheKey(query)

	if tracks, ok := c.cache.Get(key); ok {
		c.logger.Debug("Search cache hit", zap.String("query", query))
		return cloneTracks(tracks), nil
	}

	// The shared call must not die with the first caller; each caller still
	// honors its own context below.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		tracks, err := c.next.SearchCatalog(context.WithoutCancel(ctx), query)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, tracks)
		return tracks, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		tracks, _ := res.Val.([]core.Track)
		return cloneTracks(tracks), nil
	}
}

// cacheKey folds case for free text only. Track IDs inside links and URIs are
// case-sensitive.
func (c *CachedCatalog) cacheKey(query string) string {
	query = strings.TrimSpace(query)
	if c.parser.ParseQuery(query).Kind != text.QueryFreeText {
		return query
	}
	return strings.ToLower(query)
}

func cloneTracks(tracks []core.Track) []core.Track {
	if tracks == nil {
		return nil
	}
	out := make([]core.Track, len(tracks))
	for i := range tracks {
		out[i] = tracks[i]
		out[i].Artists = append([]core.Artist(nil), tracks[i].Artists...)
		out[i].Album.Images = append([]core.Image(nil), tracks[i].Album.Images...)
	}
	return out
}
