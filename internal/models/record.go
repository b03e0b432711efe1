// Package models defines the domain types for mdtree.
package models

// Kind distinguishes files from folders. It never changes after creation.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFile || k == KindFolder
}

// Record is the flat shape exchanged with the document authority and
// stored in the files table.
type Record struct {
	ID        string  `json:"id"`
	ParentID  *string `json:"parent_id"`
	Title     string  `json:"title"`
	Kind      Kind    `json:"type"`
	Content   *string `json:"content"`
	CreatedAt int64   `json:"created_at"` // unix millis
	UpdatedAt int64   `json:"updated_at,omitempty"`
}

// FilePatch is a partial update. Nil fields are left untouched.
type FilePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p FilePatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
