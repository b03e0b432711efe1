package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/fileservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *fileservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *fileservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListFiles handles GET /api/files.
//
//	@Summary		List every record, oldest first
//	@Tags			files
//	@Produce		json
//	@Success		200	{array}		models.Record
//	@Failure		500	{string}	string
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("list files failed", slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// CreateFile handles POST /api/files.
//
//	@Summary		Create a file or folder record
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFileRequest	true	"Record to create"
//	@Success		200		{object}	SuccessResponse
//	@Failure		400		{string}	string
//	@Failure		500		{string}	string
//	@Router			/files [post]
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CreatedAt == 0 {
		req.CreatedAt = time.Now().UnixMilli()
	}
	if err := h.svc.Create(r.Context(), req.Record()); err != nil {
		if errors.Is(err, apperr.ErrInvalidRecord) {
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("create file failed", slog.String("id", req.ID), slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w)
}

// UpdateFile handles PUT /api/files/{id}.
//
//	@Summary		Update title and/or content of a record
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Record id"
//	@Param			body	body		UpdateFileRequest	true	"Fields to change"
//	@Success		200		{object}	SuccessResponse
//	@Failure		400		{string}	string
//	@Failure		500		{string}	string
//	@Router			/files/{id} [put]
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := chi.URLParam(r, "id")
	var req UpdateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Update(r.Context(), id, req.Patch()); err != nil {
		slog.Error("update file failed", slog.String("id", id), slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w)
}

// DeleteFile handles DELETE /api/files/{id}.
//
//	@Summary		Delete a record and everything beneath it
//	@Tags			files
//	@Produce		json
//	@Param			id	path		string	true	"Record id"
//	@Success		200	{object}	SuccessResponse
//	@Failure		500	{string}	string
//	@Router			/files/{id} [delete]
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Delete(r.Context(), id); err != nil {
		slog.Error("delete file failed", slog.String("id", id), slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w)
}
