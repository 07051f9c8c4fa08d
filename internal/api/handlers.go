package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"depremkit/internal/export"
	"depremkit/internal/expiry"
	"depremkit/internal/models"
	"depremkit/internal/notify"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// itemView is an item plus what the screens derive from it.
type itemView struct {
	models.Item
	CategoryInfo models.Category `json:"category_info"`
	UnitLabel    string          `json:"unit_label"`
	Status       expiry.Status   `json:"status,omitempty"`
	DaysDelta    *int            `json:"days_delta,omitempty"`
}

func (s *HTTPServer) view(item models.Item, threshold int) itemView {
	category, _ := models.LookupCategory(item.Category)
	v := itemView{
		Item:         item,
		CategoryInfo: category,
		UnitLabel:    models.TranslateUnit(item.Unit),
	}
	if verdict, ok := s.deps.Kit.Classify(item, threshold); ok {
		days := verdict.DaysDelta
		v.Status = verdict.Status
		v.DaysDelta = &days
	}
	return v
}

func (s *HTTPServer) views(items []models.Item, threshold int) []itemView {
	out := make([]itemView, 0, len(items))
	for _, item := range items {
		out = append(out, s.view(item, threshold))
	}
	return out
}

// threshold reads ?threshold=, falling back to the configured warning days.
func (s *HTTPServer) threshold(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("threshold"))
	if raw == "" {
		return s.deps.Kit.WarningDays(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid threshold %q", raw)
	}
	return n, nil
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func applyRequested(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("apply"))
	return v
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		if err := s.deps.Store.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": models.Categories()})
}

func (s *HTTPServer) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listItems(w, r)
	case http.MethodPost:
		s.createItem(w, r)
	case http.MethodDelete:
		n, err := s.deps.Kit.DeleteAll(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
	default:
		methodNotAllowed(w)
	}
}

func (s *HTTPServer) listItems(w http.ResponseWriter, r *http.Request) {
	threshold, err := s.threshold(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var items []models.Item
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		items, err = s.deps.Kit.ListByCategory(r.Context(), category)
	} else {
		items, err = s.deps.Kit.ListItems(r.Context())
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.views(items, threshold)})
}

func (s *HTTPServer) createItem(w http.ResponseWriter, r *http.Request) {
	var body models.NewItem
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, err := s.deps.Kit.AddItem(r.Context(), body)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.view(*item, s.deps.Kit.WarningDays()))
}

func (s *HTTPServer) handleItem(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/items/"
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		threshold, err := s.threshold(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		item, err := s.deps.Kit.GetItem(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.view(*item, threshold))
	case http.MethodPatch:
		var patch models.ItemPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if patch.IsEmpty() {
			writeError(w, http.StatusBadRequest, "no fields to update")
			return
		}
		item, err := s.deps.Kit.UpdateItem(r.Context(), id, patch)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.view(*item, s.deps.Kit.WarningDays()))
	case http.MethodDelete:
		if err := s.deps.Kit.DeleteItem(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *HTTPServer) handleExpired(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.deps.Kit.Expired(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.views(items, s.deps.Kit.WarningDays())})
}

func (s *HTTPServer) handleExpiring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	days := models.DefaultLookAheadDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid days; expected a non-negative integer")
			return
		}
		days = n
	}

	items, err := s.deps.Kit.ExpiringSoon(r.Context(), days)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "items": s.views(items, days)})
}

func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	summary, err := s.deps.Kit.Summary(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *HTTPServer) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.deps.Generator == nil {
		writeError(w, http.StatusServiceUnavailable, "recommendations are disabled")
		return
	}

	var profile models.HouseholdProfile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := s.deps.Generator.Generate(r.Context(), profile)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := map[string]any{"recommendation": rec}
	if applyRequested(r) {
		ids, err := s.deps.Kit.ApplyRecommendation(r.Context(), rec)
		if err != nil {
			s.logger.Error().Err(err).Int("applied", len(ids)).Msg("recommendation partially applied")
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":       "recommendation partially applied",
				"applied_ids": ids,
			})
			return
		}
		resp["applied_ids"] = ids
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.deps.Kit.ListItems(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	now := s.deps.Kit.Now()
	var buf bytes.Buffer
	if err := export.WriteKit(&buf, items, now, s.deps.Kit.WarningDays()); err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="deprem-cantasi-%s.xlsx"`, now.Format(expiry.DateLayout)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "notifications are disabled")
		return
	}
	switch r.Method {
	case http.MethodGet:
		pending, err := s.deps.Scheduler.Pending(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": pending})
	case http.MethodDelete:
		if err := s.deps.Scheduler.CancelAll(r.Context()); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *HTTPServer) handleNotification(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil || s.deps.Reminders == nil {
		writeError(w, http.StatusServiceUnavailable, "notifications are disabled")
		return
	}

	const prefix = "/api/v1/notifications/"
	target := strings.TrimPrefix(r.URL.Path, prefix)
	switch {
	case target == "check" && r.Method == http.MethodPost:
		id, err := s.deps.Reminders.CheckNow(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
	case target == "refresh" && r.Method == http.MethodPost:
		if err := s.deps.Reminders.Refresh(r.Context()); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case target != "" && !strings.Contains(target, "/") && r.Method == http.MethodDelete:
		err := s.deps.Scheduler.Cancel(r.Context(), target)
		if errors.Is(err, notify.ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case target == "check" || target == "refresh":
		methodNotAllowed(w)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}
