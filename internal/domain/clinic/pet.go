package clinic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Species string

const (
	SpeciesDog     Species = "dog"
	SpeciesCat     Species = "cat"
	SpeciesBird    Species = "bird"
	SpeciesRabbit  Species = "rabbit"
	SpeciesReptile Species = "reptile"
	SpeciesOther   Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesReptile, SpeciesOther:
		return true
	}
	return false
}

type Pet struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name        string     `gorm:"not null;column:name" json:"name"`
	Species     Species    `gorm:"not null;column:species" json:"species"`
	Breed       string     `gorm:"column:breed" json:"breed"`
	Sex         string     `gorm:"column:sex" json:"sex"`
	BirthDate   *time.Time `gorm:"column:birth_date" json:"birth_date,omitempty"`
	WeightKg    float64    `gorm:"column:weight_kg" json:"weight_kg"`
	PhotoKey    string     `gorm:"column:photo_key" json:"-"`
	PhotoURL    string     `gorm:"column:photo_url" json:"photo_url"`
	AvatarColor string     `gorm:"column:avatar_color" json:"avatar_color"`
	Notes       string     `gorm:"column:notes" json:"notes"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Pet) TableName() string { return "pet" }
