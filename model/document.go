package model

import (
	"time"

	"gorm.io/datatypes"
)

// Document is the relational row behind one document of the hierarchy.
// Parent is the collection path, DocID the last path segment.
type Document struct {
	Path      string            `gorm:"primaryKey;type:text" json:"path"`
	Parent    string            `gorm:"type:text;not null;index:documents_parent_idx,priority:1" json:"parent"`
	DocID     string            `gorm:"type:text;not null;index:documents_parent_idx,priority:2" json:"doc_id"`
	Data      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"data"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}
