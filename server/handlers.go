package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/teranos/qntx-cohort/cohort"
	"github.com/teranos/qntx-cohort/errors"
	"github.com/teranos/qntx-cohort/logger"
)

func (s *CohortServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", State: s.getState().String()}
	if meta, subjects, err := s.catalog.Summary(); err == nil {
		resp.Loaded = true
		resp.Study = meta.Study
		resp.Subjects = subjects
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

func (s *CohortServer) handleSubjects(w http.ResponseWriter, r *http.Request) {
	keys, err := s.catalog.Keys()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(keys),
		"subjects": keys,
	})
}

func (s *CohortServer) handleSubject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ts, meta, err := s.catalog.RetrieveWithMeta(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, SubjectResponse{
		Subject: id,
		Columns: meta.Whitelist,
		Vectors: ts,
	})
}

func (s *CohortServer) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if req.Study == "" {
		req.Study = cohort.UPittSSRIName
	}
	if req.Save && s.store == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "snapshot storage is not configured")
		return
	}

	ctx := logger.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	snap, err := s.catalog.Load(ctx, req.Study, req.Whitelist)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := LoadResponse{
		Study:     snap.Meta.Study,
		Whitelist: snap.Meta.Whitelist,
		Subjects:  snap.Dataset.SubjectIDs(),
		Records:   snap.Meta.Records,
		LoadedAt:  snap.Meta.LoadedAt,
	}

	if req.Save {
		id, err := s.store.Save(ctx, snap)
		if err != nil {
			s.fail(w, r, errors.Wrap(err, "dataset installed but snapshot save failed"))
			return
		}
		resp.SnapshotID = id
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

func (s *CohortServer) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context(), 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(infos),
		"snapshots": infos,
	})
}

func (s *CohortServer) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.store.Save(r.Context(), snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *CohortServer) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.catalog.Install(snap.Dataset, snap.Meta); err != nil {
		s.fail(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, LoadResponse{
		Study:      snap.Meta.Study,
		Whitelist:  snap.Meta.Whitelist,
		Subjects:   snap.Dataset.SubjectIDs(),
		Records:    snap.Meta.Records,
		LoadedAt:   snap.Meta.LoadedAt,
		SnapshotID: id,
	})
}

func (s *CohortServer) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail writes err and logs server-side failures
func (s *CohortServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := writeErr(w, err)
	if status >= http.StatusInternalServerError {
		s.logger.Errorw("Request failed",
			"path", r.URL.Path,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
}
