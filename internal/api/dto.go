package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdtree/internal/models"
)

// CreateFileRequest is the request body for POST /api/files.
type CreateFileRequest struct {
	ID        string      `json:"id" example:"file-01JA7V3Z8Q0000000000000000" validate:"required"`
	ParentID  *string     `json:"parent_id" example:"folder-01JA7V3Z8Q0000000000000000"`
	Title     string      `json:"title" example:"Release notes" validate:"required"`
	Kind      models.Kind `json:"type" example:"file" validate:"required"`
	Content   *string     `json:"content" example:"# Release notes\n\n"`
	CreatedAt int64       `json:"created_at" example:"1729300000000"`
}

// Validate checks the request at the API boundary.
func (r CreateFileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Kind, validation.Required, validation.In(models.KindFile, models.KindFolder)),
		validation.Field(&r.CreatedAt, validation.Min(int64(0))),
	)
}

// Record converts the request to the stored shape.
func (r CreateFileRequest) Record() models.Record {
	return models.Record{
		ID:        r.ID,
		ParentID:  r.ParentID,
		Title:     r.Title,
		Kind:      r.Kind,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

// UpdateFileRequest is the request body for PUT /api/files/{id}.
// Absent fields are left untouched.
type UpdateFileRequest struct {
	Title   *string `json:"title,omitempty" example:"Renamed"`
	Content *string `json:"content,omitempty" example:"# Renamed\n\nBody"`
}

// Validate checks the request at the API boundary.
func (r UpdateFileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty),
	)
}

// Patch converts the request to a record patch.
func (r UpdateFileRequest) Patch() models.FilePatch {
	return models.FilePatch{Title: r.Title, Content: r.Content}
}

// SuccessResponse is returned by every successful mutation.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}
