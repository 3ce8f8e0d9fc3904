package clinic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecordKind string

const (
	RecordExam         RecordKind = "exam"
	RecordVaccination  RecordKind = "vaccination"
	RecordSurgery      RecordKind = "surgery"
	RecordPrescription RecordKind = "prescription"
	RecordLab          RecordKind = "lab"
)

func (k RecordKind) Valid() bool {
	switch k {
	case RecordExam, RecordVaccination, RecordSurgery, RecordPrescription, RecordLab:
		return true
	}
	return false
}

type MedicalRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PetID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"pet_id"`
	VetID     *uuid.UUID     `gorm:"type:uuid;index" json:"vet_id,omitempty"`
	Kind      RecordKind     `gorm:"not null;column:kind" json:"kind"`
	Title     string         `gorm:"not null;column:title" json:"title"`
	Diagnosis string         `gorm:"column:diagnosis" json:"diagnosis"`
	Treatment string         `gorm:"column:treatment" json:"treatment"`
	Notes     string         `gorm:"column:notes" json:"notes"`
	Vitals    datatypes.JSON `gorm:"column:vitals;type:jsonb" json:"vitals,omitempty"`
	VisitedAt time.Time      `gorm:"not null;column:visited_at;index" json:"visited_at"`
	NextDueAt *time.Time     `gorm:"column:next_due_at" json:"next_due_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MedicalRecord) TableName() string { return "medical_record" }
