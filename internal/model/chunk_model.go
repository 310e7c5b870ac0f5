package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type Chunk struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content      string          `gorm:"type:text;not null"`
	SourceUrl    string          `gorm:"type:text"`
	PageTitle    string          `gorm:"type:text;index"`
	TopicHeading string          `gorm:"type:text"`
	Embedding    pgvector.Vector `gorm:"type:vector(1024)"` // voyage-3-large uses 1024 dimensions
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt  `gorm:"index"`
}

func (Chunk) TableName() string {
	return "chunks"
}
