package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

type OrderBy struct {
	Field     string
	Ascending bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "DESC"
	if s.Ascending {
		direction = "ASC"
	}
	return db.Order(s.Field + " " + direction)
}

type Limit struct {
	Count int
}

func (s Limit) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Count)
}
