package model

import (
	"time"

	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
)

type GenerationRun struct {
	BaseModel
	SessionID    string    `gorm:"type:text;not null;index" json:"sessionId"`
	OwnerID      string    `gorm:"type:text;not null;index" json:"ownerId"`
	Total        int       `gorm:"type:int;not null" json:"total"`
	SuccessCount int       `gorm:"type:int;not null" json:"successCount"`
	ErrorCount   int       `gorm:"type:int;not null" json:"errorCount"`
	Success      bool      `gorm:"not null" json:"success"`
	Summary      string    `gorm:"type:text" json:"summary"`
	BundleKey    string    `gorm:"type:text" json:"bundleKey,omitempty"`
	StartedAt    time.Time `gorm:"not null" json:"startedAt"`
	FinishedAt   time.Time `gorm:"not null" json:"finishedAt"`

	Certificates []GeneratedCertificate `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"certificates,omitempty"`
}

func (gr GenerationRun) TableName() string {
	return "generation_runs"
}

// NewGenerationRun maps a finished generation onto its persisted form.
// Storage keys are filled by the caller once artifacts are delivered.
func NewGenerationRun(sessionID, ownerID string, result *autocert.GenerationResult) *GenerationRun {
	run := &GenerationRun{
		BaseModel:    BaseModel{ID: result.ID},
		SessionID:    sessionID,
		OwnerID:      ownerID,
		Total:        result.Total,
		SuccessCount: result.SuccessCount,
		ErrorCount:   result.ErrorCount,
		Success:      result.Success,
		Summary:      autocert.Summary(result),
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
	}

	for _, c := range result.Certificates {
		run.Certificates = append(run.Certificates, GeneratedCertificate{
			StudentID:   c.StudentID,
			StudentName: c.StudentName,
			FileName:    c.FileName,
		})
	}

	return run
}
