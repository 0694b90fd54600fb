package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
)

type Applications struct {
	s *Store
}

var _ repository.ApplicationRepository = (*Applications)(nil)

func (r *Applications) Create(_ context.Context, app application.Application) (application.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.applications {
		if existing.JobID == app.JobID && existing.CandidateID == app.CandidateID {
			return application.Application{}, fmt.Errorf("create application: %w", repository.ErrDuplicate)
		}
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.Status == "" {
		app.Status = application.StatusPending
	}
	app.ResponseDeadline = copyTime(app.ResponseDeadline)
	app = r.s.resolveCompany(app)
	r.s.applications[app.ID] = app
	r.appendLocked(application.TimelineEntry{ApplicationID: app.ID, Status: app.Status, ChangedAt: app.AppliedAt})
	return app, nil
}

func (r *Applications) GetByID(_ context.Context, id uuid.UUID) (application.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	return r.s.resolveCompany(app), nil
}

func (r *Applications) SetResponseDeadline(_ context.Context, id uuid.UUID, status application.Status, deadline time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return application.ErrNotFound
	}
	if app.Status != status || app.AutoRejectedAt != nil {
		return application.ErrStatusConflict
	}
	app.ResponseDeadline = &deadline
	r.s.applications[id] = app
	return nil
}

func (r *Applications) UpdateStatus(_ context.Context, id uuid.UUID, from, to application.Status, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return application.ErrNotFound
	}
	if app.Status != from || app.AutoRejectedAt != nil {
		return application.ErrStatusConflict
	}
	app.Status = to
	app.LastStatusUpdate = &at
	r.s.applications[id] = app
	return nil
}

func (r *Applications) AppendTimeline(_ context.Context, entry application.TimelineEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[entry.ApplicationID]
	if !ok {
		return application.ErrNotFound
	}
	if app.Status != entry.Status || app.AutoRejectedAt != nil {
		return application.ErrStatusConflict
	}
	r.appendLocked(entry)
	return nil
}

func (r *Applications) appendLocked(entry application.TimelineEntry) {
	r.s.timelineSeq++
	entry.ID = r.s.timelineSeq
	r.s.timeline[entry.ApplicationID] = append(r.s.timeline[entry.ApplicationID], entry)
}

func (r *Applications) ListTimeline(_ context.Context, id uuid.UUID) ([]application.TimelineEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := append([]application.TimelineEntry(nil), r.s.timeline[id]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ChangedAt.Before(out[j].ChangedAt)
	})
	if out == nil {
		out = make([]application.TimelineEntry, 0)
	}
	return out, nil
}

func (r *Applications) ListOverdue(_ context.Context, now time.Time, limit int) ([]application.Application, error) {
	if limit <= 0 {
		limit = 500
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]application.Application, 0)
	for _, app := range r.s.applications {
		if app.Overdue(now) {
			out = append(out, r.s.resolveCompany(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResponseDeadline.Before(*out[j].ResponseDeadline) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Applications) Expire(_ context.Context, id uuid.UUID, at time.Time, note string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok || !app.Overdue(at) {
		return false, nil
	}
	app.Status = application.StatusExpired
	app.AutoRejectedAt = &at
	app.LastStatusUpdate = &at
	r.s.applications[id] = app
	r.appendLocked(application.TimelineEntry{
		ApplicationID: id,
		Status:        application.StatusExpired,
		ChangedAt:     at,
		Automated:     true,
		Notes:         &note,
	})
	return true, nil
}

func (r *Applications) GetSuggestionContext(_ context.Context, id uuid.UUID) (application.SuggestionContext, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return application.SuggestionContext{}, application.ErrNotFound
	}
	out := application.SuggestionContext{ApplicationID: id}
	if j, ok := r.s.jobs[app.JobID]; ok {
		out.JobTitle = j.Title
		if c, ok := r.s.companies[j.CompanyID]; ok {
			out.CompanyName = c.Name
		}
	}
	if u, ok := r.s.users[app.CandidateID]; ok {
		out.CandidateName = u.Name
	}
	return out, nil
}
