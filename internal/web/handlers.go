package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hpungsan/glance/internal/activity"
	"github.com/hpungsan/glance/internal/agent"
	"github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/store"
	"github.com/hpungsan/glance/internal/summary"
)

// Handlers holds dependencies for the viewer's HTTP handlers.
type Handlers struct {
	store    *store.Store
	ai       agent.AIService
	renderer *Renderer
	now      func() time.Time
}

// HandleDays lists the partition days, newest first.
func (h *Handlers) HandleDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.store.Days()
	if err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]DayItem, 0, len(days))
	for _, date := range days {
		records, err := h.store.ReadDay(date)
		if err != nil {
			// A corrupt partition still gets a row; count stays zero.
			items = append(items, DayItem{Date: date})
			continue
		}
		items = append(items, DayItem{Date: date, Count: len(records)})
	}

	h.renderer.Render(w, "days.html", DaysPageData{
		PageData: PageData{Title: "Activity", Version: h.renderer.version},
		Days:     items,
	})
}

// HandleDay shows one day's records in capture order.
func (h *Handlers) HandleDay(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	records, err := h.store.ReadDay(date)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		h.renderer.RenderError(w, status, err.Error())
		return
	}

	views := make([]RecordView, 0, len(records))
	for _, rec := range records {
		front, _ := activity.Frontmost(rec.OpenApplications)
		analysis := rec.ScreenAnalysis
		if analysis == "" {
			analysis = "_no description recorded_"
		}
		views = append(views, RecordView{
			Time:         rec.Timestamp.Local().Format("15:04"),
			Frontmost:    front,
			AppCount:     len(rec.OpenApplications),
			AnalysisHTML: renderMarkdown(analysis),
		})
	}

	h.renderer.Render(w, "day.html", DayPageData{
		PageData: PageData{Title: date, Version: h.renderer.version},
		Date:     date,
		Records:  views,
	})
}

// HandleSummary renders an on-demand rollup of the trailing window. The
// periodic checkpoint is not moved.
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	data := SummaryPageData{
		PageData: PageData{Title: "Summary", Version: h.renderer.version},
		Hours:    1,
	}

	if hours := r.URL.Query().Get("hours"); hours != "" {
		n, err := strconv.Atoi(hours)
		if err != nil || n <= 0 || n > 24 {
			h.renderer.RenderError(w, http.StatusBadRequest, "hours must be between 1 and 24")
			return
		}
		data.Hours = n
	}

	if h.ai == nil {
		h.renderer.Render(w, "summary.html", data)
		return
	}
	data.Available = true

	end := h.now()
	start := end.Add(-time.Duration(data.Hours) * time.Hour)
	records, err := h.store.ReadRange(start, end)
	if err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	text, err := summary.Summarize(r.Context(), h.ai, records)
	if err != nil {
		h.renderer.RenderError(w, http.StatusBadGateway, err.Error())
		return
	}
	data.RecordCount = len(records)
	data.SummaryHTML = renderMarkdown(text)
	h.renderer.Render(w, "summary.html", data)
}
