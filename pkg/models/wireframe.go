package models

import "time"

// Wireframe page types.
const (
	PageTypeLanding = "landing"
	PageTypeForm    = "form"
	PageTypeList    = "list"
	PageTypeDetail  = "detail"
)

// Wireframe is a rendered page sketch belonging to a project.
type Wireframe struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	PageName  string    `json:"pageName"`
	Content   string    `json:"content"`
	PageType  string    `json:"pageType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
