package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCatalogTTL  = 10 * time.Minute
	defaultCatalogSize = 256
)

// Catalog serves full template descriptors, caching per-template
// details so that repeated grounding-prompt builds do not hammer the
// template service. Descriptors expire after the TTL and are refetched.
type Catalog struct {
	client *Client
	cache  *expirable.LRU[string, *Template]

	mu        sync.Mutex
	uids      []string
	uidsAt    time.Time
	uidsTTL   time.Duration
}

func NewCatalog(client *Client, ttl time.Duration) (*Catalog, error) {
	if client == nil {
		return nil, fmt.Errorf("render: catalog requires a client")
	}
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &Catalog{
		client:  client,
		cache:   expirable.NewLRU[string, *Template](defaultCatalogSize, nil, ttl),
		uidsTTL: ttl,
	}, nil
}

func (c *Catalog) templateUIDs(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uids != nil && time.Since(c.uidsAt) < c.uidsTTL {
		return c.uids, nil
	}
	summaries, err := c.client.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(summaries))
	for _, t := range summaries {
		if t.UID == "" {
			continue
		}
		uids = append(uids, t.UID)
	}
	c.uids = uids
	c.uidsAt = time.Now()
	return uids, nil
}

// Templates returns every template with its full descriptor, in the
// order the service lists them.
func (c *Catalog) Templates(ctx context.Context) ([]Template, error) {
	uids, err := c.templateUIDs(ctx)
	if err != nil {
		return nil, err
	}
	templates := make([]Template, 0, len(uids))
	for _, uid := range uids {
		if cached, ok := c.cache.Get(uid); ok {
			templates = append(templates, *cached)
			continue
		}
		t, err := c.client.GetTemplate(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("render: load template %s: %w", uid, err)
		}
		c.cache.Add(uid, t)
		templates = append(templates, *t)
	}
	return templates, nil
}

// Template returns one full descriptor by uid, or nil when the uid is
// not in the catalog.
func (c *Catalog) Template(ctx context.Context, uid string) (*Template, error) {
	templates, err := c.Templates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].UID == uid {
			return &templates[i], nil
		}
	}
	return nil, nil
}
