package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag colors available to the catalog.
const (
	TagColorGreen = "#03c03c"
	TagColorRed   = "#ff6347"
	TagColorBlue  = "#120a8f"
)

// TagColors lists the palette in display order.
var TagColors = []string{TagColorGreen, TagColorRed, TagColorBlue}

// IsTagColor reports whether c belongs to the tag palette.
func IsTagColor(c string) bool {
	for _, known := range TagColors {
		if c == known {
			return true
		}
	}
	return false
}

type Tag struct {
	ID    uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	Name  string    `gorm:"size:200;not null" json:"name"`
	Color string    `gorm:"size:7;not null" json:"color"`
	Slug  string    `gorm:"size:200;not null;uniqueIndex" json:"slug"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Ingredient is reference data. Uniqueness of (name, measurement_unit) is
// not enforced by the schema.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	Name            string    `gorm:"size:200;not null;index" json:"name"`
	MeasurementUnit string    `gorm:"size:200;not null" json:"measurement_unit"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
