package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/invoicing/backend/internal/domain/person"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPersonRepository implements person.Repository using GORM
type GormPersonRepository struct {
	db *gorm.DB
}

// NewGormPersonRepository creates a new GormPersonRepository
func NewGormPersonRepository(db *gorm.DB) *GormPersonRepository {
	return &GormPersonRepository{db: db}
}

// FindByID finds a person row by its ID, hidden or not
func (r *GormPersonRepository) FindByID(ctx context.Context, id int64) (*person.Person, error) {
	var model models.PersonModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("Person not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIdentificationNumber returns every version of the logical person
func (r *GormPersonRepository) FindByIdentificationNumber(ctx context.Context, identificationNumber string) ([]person.Person, error) {
	var personModels []models.PersonModel
	if err := r.db.WithContext(ctx).
		Where("identification_number = ?", identificationNumber).
		Order("id ASC").
		Find(&personModels).Error; err != nil {
		return nil, err
	}

	persons := make([]person.Person, len(personModels))
	for i, model := range personModels {
		persons[i] = *model.ToDomain()
	}
	return persons, nil
}

// lookupRow is the scan target of lookup projections
type lookupRow struct {
	ID                   int64
	Name                 string
	IdentificationNumber string
}

func (row lookupRow) toDomain() person.Lookup {
	return person.Lookup{ID: row.ID, Name: row.Name, IdentificationNumber: row.IdentificationNumber}
}

// FindLookups returns a page of visible persons and the total count
func (r *GormPersonRepository) FindLookups(ctx context.Context, filter shared.Filter) ([]person.Lookup, int64, error) {
	visible := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.PersonModel{}).Where("hidden = ?", false)
	}

	var total int64
	if err := visible().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []lookupRow
	query := r.applyFilter(visible(), filter).
		Select("id, name, identification_number")
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	lookups := make([]person.Lookup, len(rows))
	for i, row := range rows {
		lookups[i] = row.toDomain()
	}
	return lookups, total, nil
}

// FindAllLookups returns all visible persons ordered by name
func (r *GormPersonRepository) FindAllLookups(ctx context.Context) ([]person.Lookup, error) {
	var rows []lookupRow
	if err := r.db.WithContext(ctx).Model(&models.PersonModel{}).
		Select("id, name, identification_number").
		Where("hidden = ?", false).
		Order("name ASC, id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	lookups := make([]person.Lookup, len(rows))
	for i, row := range rows {
		lookups[i] = row.toDomain()
	}
	return lookups, nil
}

// FindLookupByID returns the lookup projection of any row
func (r *GormPersonRepository) FindLookupByID(ctx context.Context, id int64) (*person.Lookup, error) {
	var row lookupRow
	result := r.db.WithContext(ctx).Model(&models.PersonModel{}).
		Select("id, name, identification_number").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, shared.NotFound("Person not found")
	}
	lookup := row.toDomain()
	return &lookup, nil
}

// Create inserts a new person row and assigns its ID
func (r *GormPersonRepository) Create(ctx context.Context, p *person.Person) error {
	return createPerson(r.db.WithContext(ctx), p)
}

func createPerson(db *gorm.DB, p *person.Person) error {
	model := models.PersonModelFromDomain(p)
	model.ID = 0
	if err := db.Create(model).Error; err != nil {
		return err
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// Hide marks a visible person row hidden
func (r *GormPersonRepository) Hide(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PersonModel{}).
		Where("id = ? AND hidden = ?", id, false).
		Updates(hideColumns())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Supersede hides current and inserts next in one transaction. The hide is
// conditional on the version current was loaded at.
func (r *GormPersonRepository) Supersede(ctx context.Context, current, next *person.Person) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := hideVersion(tx, &models.PersonModel{}, current.ID, current.Version); err != nil {
			return err
		}
		return createPerson(tx, next)
	})
	if err != nil {
		return err
	}
	current.Hide()
	return nil
}

// statisticsRow is the scan target of the revenue query
type statisticsRow struct {
	PersonID   int64
	PersonName string
	Revenue    decimal.Decimal
}

// Statistics returns a page of revenue per visible person over visible
// invoices. A person that is both buyer and seller of an invoice counts it
// on both sides.
func (r *GormPersonRepository) Statistics(ctx context.Context, filter shared.Filter) ([]person.Statistics, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.PersonModel{}).Where("hidden = ?", false).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, PersonStatisticsSortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir, "ASC")

	query := db.Table("person AS p").
		Select(`p.id AS person_id, p.name AS person_name,
			COALESCE(SUM(CASE WHEN i.buyer_id = p.id THEN i.price ELSE 0 END), 0) +
			COALESCE(SUM(CASE WHEN i.seller_id = p.id THEN i.price ELSE 0 END), 0) AS revenue`).
		Joins("LEFT JOIN invoice i ON (i.buyer_id = p.id OR i.seller_id = p.id) AND i.hidden = ?", false).
		Where("p.hidden = ?", false).
		Group("p.id, p.name").
		Order(orderBy + " " + orderDir)
	if orderBy != "p.id" {
		query = query.Order("p.id ASC")
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []statisticsRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	stats := make([]person.Statistics, len(rows))
	for i, row := range rows {
		stats[i] = person.Statistics{
			PersonID:   row.PersonID,
			PersonName: row.PersonName,
			Revenue:    row.Revenue.Round(2),
		}
	}
	return stats, total, nil
}

// applyFilter applies pagination and whitelisted ordering
func (r *GormPersonRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, PersonSortFields, "id")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir, "ASC"))
	if orderBy != "id" {
		query = query.Order("id ASC")
	}
	return query
}

// hideColumns are the column updates that hide a row and bump its version
func hideColumns() map[string]any {
	return map[string]any{
		"hidden":     true,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
}

// hideVersion hides the visible row with the given id and version. It fails
// with shared.ErrConcurrencyConflict unless exactly one row changes.
func hideVersion(tx *gorm.DB, model any, id int64, version int) error {
	result := tx.Model(model).
		Where("id = ? AND version = ? AND hidden = ?", id, version, false).
		Updates(hideColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormPersonRepository implements person.Repository
var _ person.Repository = (*GormPersonRepository)(nil)
