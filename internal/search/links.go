package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tunedrop/internal/core"
	"tunedrop/pkg/musiclink"
	"tunedrop/pkg/text"
)

// LinkResolver reads artist and title from a link to another music service.
type LinkResolver interface {
	CanResolve(link string) bool
	Resolve(ctx context.Context, link string) (*musiclink.TrackInfo, error)
}

// LinkCatalog searches for the song behind a YouTube, SoundCloud or similar
// link instead of the link text. Everything else goes to the next catalog
// untouched, and so does a link that fails to resolve.
type LinkCatalog struct {
	next     core.Catalog
	resolver LinkResolver
	parser   *text.Parser
	logger   *zap.Logger
}

func NewLinkCatalog(next core.Catalog, resolver LinkResolver, logger *zap.Logger) *LinkCatalog {
	return &LinkCatalog{
		next:     next,
		resolver: resolver,
		parser:   text.NewParser(),
		logger:   logger.Named("links"),
	}
}

func (c *LinkCatalog) SearchCatalog(ctx context.Context, query string) ([]core.Track, error) {
	parsed := c.parser.ParseQuery(query)
	if parsed.Kind != text.QueryOtherLink || !c.resolver.CanResolve(parsed.URL) {
		return c.next.SearchCatalog(ctx, query)
	}

	info, err := c.resolver.Resolve(ctx, parsed.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.logger.Debug("Could not resolve link, searching as typed",
			zap.String("url", parsed.URL),
			zap.Error(err))
		return c.next.SearchCatalog(ctx, query)
	}

	resolved := info.Query()
	if resolved == "" {
		return c.next.SearchCatalog(ctx, query)
	}

	c.logger.Debug("Resolved link",
		zap.String("url", parsed.URL),
		zap.String("query", resolved))
	return c.next.SearchCatalog(ctx, resolved)
}
