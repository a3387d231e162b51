package nav

import (
	"context"

	"tekstitv/cache"
	"tekstitv/fetch"
	"tekstitv/markup"
	"tekstitv/page"
)

// Resolver turns a page id into a parsed page. The controller drives
// navigation through it and clears entries via Invalidate on reload.
type Resolver interface {
	Resolve(ctx context.Context, id page.PageId) (*page.Page, error)
	Invalidate(id page.PageId)
}

// Pipeline is the production resolver: cache in front of
// fetch -> decode -> parse. Misses run the full chain and the result is
// cached; concurrent misses for one id share a single fetch.
type Pipeline struct {
	Client *fetch.Client
	Cache  *cache.Cache
	Dim    page.Dimensions
}

// Resolve returns the page for id, fetching and parsing on cache miss.
func (p *Pipeline) Resolve(ctx context.Context, id page.PageId) (*page.Page, error) {
	return p.Cache.GetOrFetch(ctx, id, func(ctx context.Context) (*page.Page, error) {
		raw, err := p.Client.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		stream, err := markup.Decode(raw)
		if err != nil {
			return nil, err
		}
		return page.Parse(stream, id, p.Dim)
	})
}

// Invalidate drops the cached entry for id.
func (p *Pipeline) Invalidate(id page.PageId) {
	p.Cache.Invalidate(id)
}
