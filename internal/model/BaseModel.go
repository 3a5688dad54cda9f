package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timestamps are filled by gorm on the client so no database default has to be read back.
type BaseModel struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;not null" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null" json:"-"`
}

func (bm *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	// Runs keep the id assigned by the generator
	if bm.ID == "" {
		// UUID version 4
		bm.ID = uuid.NewString()
	}
	return
}
