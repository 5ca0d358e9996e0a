package models

import (
	"time"

	"github.com/invoicing/backend/internal/domain/shared"
)

// RecordModel provides the persistence fields shared by soft-deletable,
// versioned records. It maps to the domain's BaseRecord.
type RecordModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
	Hidden    bool      `gorm:"not null;default:false;index"`
}

// ToDomain converts RecordModel to the domain BaseRecord
func (m *RecordModel) ToDomain() shared.BaseRecord {
	return shared.BaseRecord{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version: m.Version,
		Hidden:  m.Hidden,
	}
}

// FromDomainRecord populates RecordModel from a domain BaseRecord
func (m *RecordModel) FromDomainRecord(r shared.BaseRecord) {
	m.ID = r.ID
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
	m.Version = r.Version
	m.Hidden = r.Hidden
}
