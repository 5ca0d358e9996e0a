//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/migration"
	"github.com/invoicing/backend/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a PostgreSQL container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("invoicing_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestPostgres_InvoiceWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db := newPostgresDB(t)
	persons := NewGormPersonRepository(db)
	invoices := NewGormInvoiceRepository(db)

	buyer := seedPerson(t, persons, "Nákupčí s.r.o.", "111")
	seller := seedPerson(t, persons, "Prodejce a.s.", "222")
	now := time.Now().UTC()
	thisYear := day(now.Year(), time.January, 1)

	seedInvoice(t, invoices, 1, "Židle KANCELÁŘSKÁ", "1500.50", thisYear, buyer, seller)
	seedInvoice(t, invoices, 2, "Stůl", "999.50", day(now.Year()-1, time.June, 1), buyer, seller)

	t.Run("product match folds case beyond ascii", func(t *testing.T) {
		summaries, total, err := invoices.FindSummaries(ctx,
			invoice.NewCriteria().ProductContains("kancelářská"), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, summaries, 1)
		assert.Equal(t, "Nákupčí s.r.o.", summaries[0].BuyerName)
	})

	t.Run("statistics use date bounds", func(t *testing.T) {
		stats, err := invoices.Statistics(ctx, thisYear, thisYear.AddDate(1, 0, 0))
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.Count)
		assert.True(t, decimal.RequireFromString("1500.50").Equal(stats.CurrentYearSum))
		assert.True(t, decimal.RequireFromString("2500.00").Equal(stats.AllTimeSum))
	})

	t.Run("person revenue counts both sides", func(t *testing.T) {
		stats, total, err := persons.Statistics(ctx, shared.Filter{Page: 1, PageSize: 10, OrderBy: "revenue", OrderDir: "desc"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, stats, 2)
		assert.True(t, decimal.RequireFromString("2500.00").Equal(stats[0].Revenue))
		assert.True(t, decimal.RequireFromString("2500.00").Equal(stats[1].Revenue))
	})

	t.Run("racing edits leave one visible successor", func(t *testing.T) {
		p := seedPerson(t, persons, "Race", "333")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				current := *p
				next, err := current.Revise(personDetails("Race edited", "333"))
				if err != nil {
					errs[i] = err
					return
				}
				errs[i] = persons.Supersede(ctx, &current, next)
			}(i)
		}
		wg.Wait()

		failures := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
				failures++
			}
		}
		assert.Equal(t, 1, failures)

		versions, err := persons.FindByIdentificationNumber(ctx, "333")
		require.NoError(t, err)
		visible := 0
		for _, v := range versions {
			if !v.Hidden {
				visible++
			}
		}
		assert.Equal(t, 1, visible)
	})
}
