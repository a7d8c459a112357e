package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/actions"
	"github.com/anicoll/fleetsync/internal/pkg/auth"
	"github.com/anicoll/fleetsync/internal/pkg/hydrate"
	"github.com/anicoll/fleetsync/internal/pkg/model"
	"github.com/anicoll/fleetsync/internal/pkg/views"
	"github.com/anicoll/fleetsync/pkg/api"
)

const defaultHistoryLimit = 100

var errNoJournal = errors.New("no journal configured")

func (s *server) GetHealth(w http.ResponseWriter, r *http.Request) {
	h := api.Health{
		Connected:       s.Status.Connected(),
		Loaded:          s.Status.Loaded(),
		LoggedIn:        s.Status.LoggedIn(),
		Loading:         s.Refresher.Loading(),
		ScheduleLoading: s.Schedules.Loading(),
	}
	if exp, ok := auth.ExpiresAt(s.Session.Token()); ok {
		h.TokenExpiresAt = &exp
	}
	status := http.StatusOK
	if !h.Connected || !h.LoggedIn {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *server) PostRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Refresher.Refresh(r.Context()); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListViews returns every view, optionally of one kind. Listing counts as
// observing, so unattached entities get their status fetched.
func (s *server) ListViews(w http.ResponseWriter, r *http.Request, params api.ListViewsParams) {
	out := make([]views.View, 0)
	for _, ref := range s.Graph.Refs() {
		if params.Kind != nil && ref.Kind != model.Kind(*params.Kind) {
			continue
		}
		s.observe(ref)
		if v, ok := s.Views.Get(ref); ok {
			out = append(out, v)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type viewResponse struct {
	View   views.View   `json:"view"`
	Entity model.Entity `json:"entity"`
}

// GetView returns one view and its entity. With ?hydrate=true it waits until
// the entity's status has been pushed.
func (s *server) GetView(w http.ResponseWriter, r *http.Request, kind api.EntityKind, id int64, params api.GetViewParams) {
	ref := toRef(kind, id)

	var (
		entity model.Entity
		err    error
	)
	if lo.FromPtr(params.Hydrate) {
		entity, err = s.Hydrator.EnsureHydrated(r.Context(), ref)
		if err != nil {
			handleError(w, hydrateStatus(err), err)
			return
		}
		s.observe(ref)
	} else {
		s.observe(ref)
		var ok bool
		if entity, ok = s.Graph.Entity(ref); !ok {
			handleError(w, http.StatusNotFound, fmt.Errorf("%w: %s", hydrate.ErrUnknownEntity, ref))
			return
		}
	}

	v, ok := s.Views.Get(ref)
	if !ok {
		handleError(w, http.StatusNotFound, fmt.Errorf("%w: %s", hydrate.ErrUnknownEntity, ref))
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{View: v, Entity: entity})
}

// observe marks ref as read. Tag and location views aggregate their member
// devices' status, so those devices are observed too.
func (s *server) observe(ref model.Ref) {
	s.Hydrator.Observe(ref)
	entity, ok := s.Graph.Entity(ref)
	if !ok {
		return
	}
	var members []model.ID
	switch e := entity.(type) {
	case model.Tag:
		members = e.Data.Devices
	case model.Location:
		members = e.Data.Devices
	}
	for _, id := range members {
		s.Hydrator.Observe(model.DeviceRef(id))
	}
}

func hydrateStatus(err error) int {
	switch {
	case errors.Is(err, hydrate.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, hydrate.ErrTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusServiceUnavailable
}

func (s *server) ListActions(w http.ResponseWriter, r *http.Request, kind api.EntityKind, id int64) {
	list, err := s.Actions.List(toRef(kind, id))
	if err != nil {
		handleError(w, actionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) RunAction(w http.ResponseWriter, r *http.Request, kind api.EntityKind, id int64, action string) {
	ref := toRef(kind, id)
	name := model.Capability(action)
	if err := s.Actions.Run(r.Context(), ref, name); err != nil {
		handleError(w, actionStatus(err), err)
		return
	}
	s.logger.Info("action sent", zap.Stringer("ref", ref), zap.Stringer("action", name))
	w.WriteHeader(http.StatusAccepted)
}

func actionStatus(err error) int {
	switch {
	case errors.Is(err, actions.ErrUnknown):
		return http.StatusNotFound
	case errors.Is(err, actions.ErrUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, actions.ErrDisabled):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func (s *server) ListKNXEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Graph.KNXEvents())
}

func (s *server) ListErrors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Graph.Errors())
}

func (s *server) ListKNXHistory(w http.ResponseWriter, r *http.Request, params api.ListKNXHistoryParams) {
	if s.History == nil {
		handleError(w, http.StatusNotFound, errNoJournal)
		return
	}
	since, limit := historyWindow(params.Since, params.Limit)
	events, err := s.History.KNXEvents(r.Context(), since, limit)
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *server) ListErrorHistory(w http.ResponseWriter, r *http.Request, params api.ListErrorHistoryParams) {
	if s.History == nil {
		handleError(w, http.StatusNotFound, errNoJournal)
		return
	}
	since, limit := historyWindow(params.Since, params.Limit)
	records, err := s.History.Errors(r.Context(), since, limit)
	if err != nil {
		handleError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// historyWindow defaults since to one day back and limit to 100.
func historyWindow(since *time.Time, limit *int) (time.Time, int) {
	from := time.Now().Add(-24 * time.Hour)
	if since != nil {
		from = *since
	}
	return from, lo.FromPtrOr(limit, defaultHistoryLimit)
}

func (s *server) ListSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Schedules.List())
}

func (s *server) GetScheduledEvent(w http.ResponseWriter, r *http.Request, id string) {
	ev, ok := s.Schedules.Get(id)
	if !ok {
		handleError(w, http.StatusNotFound, errors.New("no such scheduled event"))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *server) CommitSchedule(w http.ResponseWriter, r *http.Request) {
	body, err := unmarshalPayload[api.CommitScheduleJSONRequestBody](r)
	if err != nil {
		handleError(w, http.StatusBadRequest, err)
		return
	}
	saved, err := s.Schedules.Commit(r.Context(), toScheduledEvent(*body))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, model.ErrInvalidSchedule) {
			status = http.StatusBadRequest
		}
		handleError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *server) DeleteScheduledEvent(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Schedules.Remove(r.Context(), id); err != nil {
		handleError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toRef(kind api.EntityKind, id int64) model.Ref {
	return model.Ref{Kind: model.Kind(kind), ID: model.ID(id)}
}

func toScheduledEvent(in api.ScheduledEvent) model.ScheduledEvent {
	target := in.ExtendedProps
	ev := model.ScheduledEvent{
		ID:              in.Id,
		AllDay:          lo.FromPtr(in.AllDay),
		Start:           in.Start,
		End:             in.End,
		RRule:           in.Rrule,
		Duration:        in.Duration,
		Title:           lo.FromPtr(in.Title),
		BackgroundColor: in.BackgroundColor,
		Target: model.ScheduleTarget{
			Kind:        model.Kind(target.Type),
			ID:          model.ID(target.Id),
			Label:       lo.FromPtr(target.Label),
			Description: lo.FromPtr(target.Description),
		},
	}
	if a := target.Actions; a != nil {
		ev.Target.Actions = &model.ScheduleAction{
			Start: model.Capability(a.Start),
			End:   model.Capability(a.End),
		}
	}
	return ev
}

func handleError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, api.ErrorResponse{Status: status, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func unmarshalPayload[T any](r *http.Request) (*T, error) {
	var out T
	if err := json.NewDecoder(r.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
