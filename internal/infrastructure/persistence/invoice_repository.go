package persistence

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const summaryColumns = `invoice.id, invoice.invoice_number, invoice.product, invoice.price, invoice.issued,
	buyer.name AS buyer_name, seller.name AS seller_name,
	buyer.identification_number AS buyer_identification_number,
	seller.identification_number AS seller_identification_number`

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID loads an invoice row, hidden or not, with buyer and seller
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Buyer").
		Preload("Seller").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("Invoice not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new invoice row and assigns its ID
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	return createInvoice(r.db.WithContext(ctx), inv)
}

func createInvoice(db *gorm.DB, inv *invoice.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	model.ID = 0
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	inv.ID = model.ID
	inv.CreatedAt = model.CreatedAt
	inv.UpdatedAt = model.UpdatedAt
	return nil
}

// Hide marks a visible invoice row hidden
func (r *GormInvoiceRepository) Hide(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("id = ? AND hidden = ?", id, false).
		Updates(hideColumns())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Supersede hides current and inserts next in one transaction
func (r *GormInvoiceRepository) Supersede(ctx context.Context, current, next *invoice.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := hideVersion(tx, &models.InvoiceModel{}, current.ID, current.Version); err != nil {
			return err
		}
		return createInvoice(tx, next)
	})
	if err != nil {
		return err
	}
	current.Hide()
	return nil
}

// FindSummaries returns a page of summaries matching criteria and the total count
func (r *GormInvoiceRepository) FindSummaries(ctx context.Context, criteria *invoice.Criteria, filter shared.Filter) ([]invoice.Summary, int64, error) {
	matching := func() (*gorm.DB, error) {
		return applyCriteria(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), criteria)
	}

	countQuery, err := matching()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []invoice.Summary{}, 0, nil
	}

	pageQuery, err := matching()
	if err != nil {
		return nil, 0, err
	}
	pageQuery = r.applyFilter(pageQuery.
		Select(summaryColumns).
		Joins("JOIN person buyer ON buyer.id = invoice.buyer_id").
		Joins("JOIN person seller ON seller.id = invoice.seller_id"), filter)

	var rows []models.InvoiceSummaryRow
	if err := pageQuery.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	summaries := make([]invoice.Summary, len(rows))
	for i := range rows {
		summaries[i] = rows[i].ToDomain()
	}
	return summaries, total, nil
}

// FindByBuyerIDs returns a page of visible invoices bought by any of ids
func (r *GormInvoiceRepository) FindByBuyerIDs(ctx context.Context, ids []int64, filter shared.Filter) ([]invoice.Invoice, int64, error) {
	return r.findPage(ctx, invoice.NewCriteria().BuyerIn(ids...), filter)
}

// FindBySellerIDs returns a page of visible invoices sold by any of ids
func (r *GormInvoiceRepository) FindBySellerIDs(ctx context.Context, ids []int64, filter shared.Filter) ([]invoice.Invoice, int64, error) {
	return r.findPage(ctx, invoice.NewCriteria().SellerIn(ids...), filter)
}

func (r *GormInvoiceRepository) findPage(ctx context.Context, criteria *invoice.Criteria, filter shared.Filter) ([]invoice.Invoice, int64, error) {
	countQuery, err := applyCriteria(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), criteria)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []invoice.Invoice{}, 0, nil
	}

	pageQuery, err := applyCriteria(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), criteria)
	if err != nil {
		return nil, 0, err
	}
	var invoiceModels []models.InvoiceModel
	if err := r.applyFilter(pageQuery.Preload("Buyer").Preload("Seller"), filter).
		Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]invoice.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, total, nil
}

// statisticsAggregate is the scan target of the invoice statistics query
type statisticsAggregate struct {
	AllTimeSum     decimal.Decimal
	CurrentYearSum decimal.Decimal
	InvoiceCount   int64
}

// Statistics sums visible invoices. Year bounds are compared as calendar
// dates so the result does not depend on the session time zone.
func (r *GormInvoiceRepository) Statistics(ctx context.Context, yearStart, yearEnd time.Time) (*invoice.Statistics, error) {
	const dateLayout = "2006-01-02"

	var agg statisticsAggregate
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select(`COALESCE(SUM(price), 0) AS all_time_sum,
			COALESCE(SUM(CASE WHEN issued >= ? AND issued < ? THEN price ELSE 0 END), 0) AS current_year_sum,
			COUNT(*) AS invoice_count`,
			yearStart.Format(dateLayout), yearEnd.Format(dateLayout)).
		Where("hidden = ?", false).
		Scan(&agg).Error; err != nil {
		return nil, err
	}

	return &invoice.Statistics{
		CurrentYearSum: agg.CurrentYearSum.Round(2),
		AllTimeSum:     agg.AllTimeSum.Round(2),
		Count:          agg.InvoiceCount,
	}, nil
}

// relatedRow is the scan target of the related persons query
type relatedRow struct {
	ID                   int64
	IdentificationNumber string
	Name                 string
}

// FindRelatedPersons returns buyers and sellers of visible invoices, one
// per identification number. The newest referenced version supplies the name.
func (r *GormInvoiceRepository) FindRelatedPersons(ctx context.Context) ([]invoice.RelatedPerson, error) {
	db := r.db.WithContext(ctx)
	buyers := db.Model(&models.InvoiceModel{}).Select("buyer_id").Where("hidden = ?", false)
	sellers := db.Model(&models.InvoiceModel{}).Select("seller_id").Where("hidden = ?", false)

	var rows []relatedRow
	if err := db.Model(&models.PersonModel{}).
		Select("id, identification_number, name").
		Where("id IN (?) OR id IN (?)", buyers, sellers).
		Order("identification_number ASC, id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	related := make([]invoice.RelatedPerson, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.IdentificationNumber]; ok {
			continue
		}
		seen[row.IdentificationNumber] = struct{}{}
		related = append(related, invoice.RelatedPerson{
			IdentificationNumber: row.IdentificationNumber,
			Name:                 row.Name,
		})
	}
	slices.SortFunc(related, func(a, b invoice.RelatedPerson) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.IdentificationNumber, b.IdentificationNumber))
	})
	return related, nil
}

// applyFilter applies pagination and whitelisted ordering, id ascending by default
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "id")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir, "ASC"))
	if orderBy != "invoice.id" {
		query = query.Order("invoice.id ASC")
	}
	return query
}

// Ensure GormInvoiceRepository implements invoice.Repository
var _ invoice.Repository = (*GormInvoiceRepository)(nil)
