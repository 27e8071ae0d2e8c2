package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quetzal/middleware"
	"quetzal/model"
	"quetzal/repository"
	"quetzal/utils"
)

var (
	ErrPaperNotFound    = errors.New("paper not found")
	ErrDuplicatePaperID = errors.New("duplicate paper id")
)

const DefaultStoreTimeout = 10 * time.Second

// Catalog keeps the in-memory copy of the paper list and writes every change
// through to the backend as a whole list. Reads never touch the backend.
type Catalog struct {
	backend repository.CatalogBackend
	links   utils.LinkBuilder
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.RWMutex
	papers  []model.Paper
	version uint64
	subs    map[uint64]func()
	nextSub uint64
}

func NewCatalog(backend repository.CatalogBackend, links utils.LinkBuilder, logger *zap.Logger, timeout time.Duration) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Catalog{
		backend: backend,
		links:   links,
		logger:  logger,
		timeout: timeout,
		papers:  []model.Paper{},
		subs:    make(map[uint64]func()),
	}
}

// Initialize loads the catalog once at startup. An unreachable or unreadable
// store leaves an empty catalog; that is logged, not returned.
func (c *Catalog) Initialize(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.backend.Ping(pingCtx)
	cancel()
	if err != nil {
		c.logger.Warn("catalog store unreachable, starting empty", zap.Error(err))
		c.set([]model.Paper{})
		c.notify()
		return nil
	}

	papers := c.load(ctx)
	migrated, changed := c.migrateLinks(papers)
	if changed > 0 {
		if err := c.persist(ctx, migrated); err != nil {
			c.logger.Warn("failed to persist migrated links", zap.Int("papers", changed), zap.Error(err))
		} else {
			c.logger.Info("migrated legacy upload links", zap.Int("papers", changed))
		}
	}

	c.set(migrated)
	c.notify()
	c.logger.Info("catalog loaded", zap.Int("papers", len(migrated)))
	return nil
}

// All returns a copy of the current list.
func (c *Catalog) All() []model.Paper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clonePapers(c.papers)
}

// Get returns the paper with the given id.
func (c *Catalog) Get(id string) (model.Paper, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.papers {
		if p.PaperID == id {
			return p, true
		}
	}
	return model.Paper{}, false
}

func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// ReplaceAll persists papers and adopts them only once the write succeeded.
func (c *Catalog) ReplaceAll(ctx context.Context, papers []model.Paper) error {
	next := clonePapers(papers)
	if err := c.persist(ctx, next); err != nil {
		return err
	}
	c.set(next)
	c.notify()
	middleware.TrackCatalogOperation("replace", len(next))
	return nil
}

// Remove drops the paper locally first, then persists. When the write fails
// the list is reloaded from the store and the write error is returned.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	next := make([]model.Paper, 0, len(c.papers))
	for _, p := range c.papers {
		if p.PaperID != id {
			next = append(next, p)
		}
	}
	c.papers = next
	c.version++
	snapshot := clonePapers(next)
	c.mu.Unlock()
	c.notify()

	if err := c.persist(ctx, snapshot); err != nil {
		c.reloadAfterFailure(ctx)
		return err
	}
	middleware.TrackCatalogOperation("remove", len(snapshot))
	return nil
}

// Update replaces the paper with the given id, keeping the id.
func (c *Catalog) Update(ctx context.Context, id string, paper model.Paper) error {
	paper.PaperID = id

	c.mu.Lock()
	idx := -1
	for i, p := range c.papers {
		if p.PaperID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPaperNotFound, id)
	}
	next := clonePapers(c.papers)
	next[idx] = paper
	c.papers = next
	c.version++
	snapshot := clonePapers(next)
	c.mu.Unlock()
	c.notify()

	if err := c.persist(ctx, snapshot); err != nil {
		c.reloadAfterFailure(ctx)
		return err
	}
	middleware.TrackCatalogOperation("update", len(snapshot))
	return nil
}

// Add appends locally without persisting. Used after a write that already
// reached the store by other means.
func (c *Catalog) Add(paper model.Paper) {
	c.mu.Lock()
	next := make([]model.Paper, len(c.papers), len(c.papers)+1)
	copy(next, c.papers)
	c.papers = append(next, paper)
	c.version++
	size := len(c.papers)
	c.mu.Unlock()
	c.notify()
	middleware.TrackCatalogOperation("add", size)
}

// Reset reloads the list from the store, falling back to empty.
func (c *Catalog) Reset(ctx context.Context) {
	papers := c.load(ctx)
	c.set(papers)
	c.notify()
	middleware.TrackCatalogOperation("reset", len(papers))
}

// MigrateLinks rewrites legacy upload links in the current list and persists
// the result. It returns how many papers changed.
func (c *Catalog) MigrateLinks(ctx context.Context) (int, error) {
	migrated, changed := c.migrateLinks(c.All())
	if changed == 0 {
		return 0, nil
	}
	if err := c.ReplaceAll(ctx, migrated); err != nil {
		return 0, err
	}
	return changed, nil
}

// Subscribe registers fn to run after every change. The returned func
// removes it.
func (c *Catalog) Subscribe(fn func()) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Catalog) notify() {
	c.mu.RLock()
	subs := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

func (c *Catalog) set(papers []model.Paper) {
	c.mu.Lock()
	c.papers = papers
	c.version++
	c.mu.Unlock()
}

func (c *Catalog) persist(ctx context.Context, papers []model.Paper) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.backend.Save(ctx, papers); err != nil {
		middleware.TrackError("db")
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

func (c *Catalog) load(ctx context.Context) []model.Paper {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	papers, err := c.backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNoCatalog) {
			c.logger.Warn("failed to load catalog, using empty list", zap.Error(err))
		}
		return []model.Paper{}
	}
	return papers
}

// reloadAfterFailure reloads after a failed write so memory matches the store again.
func (c *Catalog) reloadAfterFailure(ctx context.Context) {
	c.logger.Warn("catalog write failed, reloading from store")
	c.set(c.load(ctx))
	c.notify()
}

func (c *Catalog) migrateLinks(papers []model.Paper) ([]model.Paper, int) {
	out := clonePapers(papers)
	changed := 0
	for i := range out {
		touched := false
		if utils.IsLegacyUploadLink(out[i].QueLink) {
			out[i].QueLink = c.links.QuestionPaper(out[i].PaperID)
			touched = true
		}
		if utils.IsLegacyUploadLink(out[i].SolLink) {
			out[i].SolLink = c.links.AnswerKey(out[i].PaperID)
			touched = true
		}
		if touched {
			changed++
		}
	}
	return out, changed
}

func clonePapers(papers []model.Paper) []model.Paper {
	out := make([]model.Paper, len(papers))
	copy(out, papers)
	return out
}
