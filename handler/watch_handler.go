package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"quetzal/dto"
	"quetzal/middleware"
	"quetzal/model"
	"quetzal/search"
	"quetzal/utils"
)

// WatchSettings tunes the live search stream.
type WatchSettings struct {
	Debounce  time.Duration
	Keepalive time.Duration
}

func (s WatchSettings) withDefaults() WatchSettings {
	if s.Debounce <= 0 {
		s.Debounce = search.DefaultDebounce
	}
	if s.Keepalive <= 0 {
		s.Keepalive = 30 * time.Second
	}
	return s
}

// Watch streams result sets as server-sent events. A "papers" event is sent
// once the query first runs and again after every catalog change.
func (h *PapersHandler) Watch(c *gin.Context) {
	query := c.Query("q")
	filters, err := search.ParseFilters(c.QueryArray("filter"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updates := make(chan []model.Paper, 1)
	view := search.NewView(h.catalog, h.settings.Debounce, query, filters, func(papers []model.Paper) {
		// Keep only the newest result set.
		for {
			select {
			case updates <- papers:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer view.Close()

	middleware.ActiveWatchers.Inc()
	defer middleware.ActiveWatchers.Dec()

	keepalive := time.NewTicker(h.settings.Keepalive)
	defer keepalive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case papers := <-updates:
			c.SSEvent("papers", dto.NewPapersResponse(papers, h.catalog.Version(), query, view.Filters()))
			return true
		case <-keepalive.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
