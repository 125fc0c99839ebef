package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ChecklistItem is one entry in a checklist
type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// ChecklistItems stores items as a JSONB column
type ChecklistItems []ChecklistItem

// Value implements driver.Valuer
func (items ChecklistItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	return string(b), err
}

// Scan implements sql.Scanner
func (items *ChecklistItems) Scan(value any) error {
	if value == nil {
		*items = ChecklistItems{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported checklist items type %T", value)
	}
	return json.Unmarshal(b, items)
}

// Checklist is a lightweight manual QA pass list.
type Checklist struct {
	ID          string         `json:"id" db:"id"`
	WorkspaceID string         `json:"workspace_id" db:"workspace_id"`
	ProjectID   string         `json:"project_id" db:"project_id"`
	Title       string         `json:"title" db:"title" validate:"required"`
	Items       ChecklistItems `json:"items" db:"items"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateChecklistRequest is the request body for creating a checklist
type CreateChecklistRequest struct {
	Title string          `json:"title" validate:"required"`
	Items []ChecklistItem `json:"items,omitempty"`
}

// UpdateChecklistRequest is the request body for updating a checklist
type UpdateChecklistRequest struct {
	Title *string         `json:"title,omitempty"`
	Items []ChecklistItem `json:"items,omitempty"`
}

// ChecklistListResponse is the API response for listing checklists
type ChecklistListResponse struct {
	Items      []Checklist `json:"items"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
