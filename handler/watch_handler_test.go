package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quetzal/model"
)

// streamRecorder adds the CloseNotify support gin's Stream needs.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestWatchStreamsCatalogChanges(t *testing.T) {
	env := newTestEnv(t, []model.Paper{
		{PaperID: "g1", Title: "Galaxy Exam", Date: "01-01-2024", Std: 11, Category: model.CategoryBoard},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/papers/watch?q=galaxy", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+env.studentToken)
	w := newStreamRecorder()

	go func() {
		time.Sleep(150 * time.Millisecond)
		papers := append(env.catalog.All(), model.Paper{
			PaperID: "g2", Title: "Galaxy Finals", Date: "02-02-2024", Std: 12, Category: model.CategoryBoard,
		})
		if err := env.catalog.ReplaceAll(context.Background(), papers); err != nil {
			t.Errorf("ReplaceAll() error = %v", err)
		}
	}()

	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("unexpected Content-Type %q", ct)
	}

	body := w.Body.String()
	if n := strings.Count(body, "event:papers"); n < 2 {
		t.Fatalf("expected at least 2 papers events, got %d in %q", n, body)
	}
	events := strings.Split(body, "event:papers")
	first, last := events[1], events[len(events)-1]
	if !strings.Contains(first, `"g1"`) || strings.Contains(first, `"g2"`) {
		t.Errorf("first event should hold only g1: %s", first)
	}
	if !strings.Contains(last, `"g2"`) {
		t.Errorf("last event should include g2: %s", last)
	}
}

func TestWatchRejectsUnknownFilter(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/papers/watch?filter=bogus", env.studentToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
