package model

import "time"

// DocumentRecord is the audit entry persisted for one generation event.
// This is a pure domain model with no database-specific dependencies or tags.
// Records are immutable once created.
type DocumentRecord struct {
	ID           string       `json:"id"`
	DocumentName string       `json:"documentName"`
	DocumentType DocumentType `json:"documentType"`
	TemplateType TemplateType `json:"templateType"`
	GeneratedBy  string       `json:"generatedBy"`
	Metadata     Fields       `json:"metadata"`
	StoragePath  string       `json:"storagePath,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}
