package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormRecordCountProvider implements RecordCountProvider with one count
// query per table.
type GormRecordCountProvider struct {
	db *gorm.DB
}

// NewGormRecordCountProvider creates a new GormRecordCountProvider.
func NewGormRecordCountProvider(db *gorm.DB) *GormRecordCountProvider {
	return &GormRecordCountProvider{db: db}
}

// CountVisible counts rows with hidden = false in the person and invoice tables
func (p *GormRecordCountProvider) CountVisible(ctx context.Context) (map[Entity]int64, error) {
	tables := map[Entity]string{
		EntityPerson:  "person",
		EntityInvoice: "invoice",
	}

	counts := make(map[Entity]int64, len(tables))
	for entity, table := range tables {
		var n int64
		if err := p.db.WithContext(ctx).Table(table).Where("hidden = ?", false).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[entity] = n
	}
	return counts, nil
}
