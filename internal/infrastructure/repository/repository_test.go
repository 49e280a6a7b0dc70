package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront-insights-core/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	user := &domain.User{ID: uuid.New(), Email: email, OAuthLinked: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestIntegrationUpsertKeyedByTuple(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormIntegrationRepository(db)
	owner := seedUser(t, db, "u1@example.com")
	ctx := context.Background()

	first := &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "acme.myshopify.com", AccessToken: "shpat_old", IsActive: true,
	}
	require.NoError(t, repo.Upsert(ctx, first))

	// Same tuple: the credential is refreshed, no second row appears.
	second := &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "acme.myshopify.com", AccessToken: "shpat_new", IsActive: true,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	var count int64
	require.NoError(t, db.Model(&domain.Integration{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	saved, err := repo.GetByOwnerAndShop(ctx, owner.ID, domain.PlatformShopify, "acme.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "shpat_new", saved.AccessToken)

	// A different shop for the same owner is a distinct row.
	third := &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "other.myshopify.com", AccessToken: "shpat_other", IsActive: true,
	}
	require.NoError(t, repo.Upsert(ctx, third))
	require.NoError(t, db.Model(&domain.Integration{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestIntegrationGetAbsentIsNilNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormIntegrationRepository(db)

	saved, err := repo.GetByOwnerAndShop(context.Background(), uuid.New(), domain.PlatformShopify, "ghost.myshopify.com")
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestIntegrationListActive(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormIntegrationRepository(db)
	owner := seedUser(t, db, "u1@example.com")
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "active.myshopify.com", AccessToken: "t1", IsActive: true,
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "disabled.myshopify.com", AccessToken: "t2", IsActive: false,
	}))

	active, err := repo.ListActive(ctx, domain.PlatformShopify)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active.myshopify.com", active[0].ShopURL)

	byOwner, err := repo.ListActiveByOwner(ctx, owner.ID, domain.PlatformShopify)
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)
}

func TestIntegrationSoftDisablePersists(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormIntegrationRepository(db)
	owner := seedUser(t, db, "u1@example.com")
	ctx := context.Background()

	// A row written as disabled must read back disabled.
	require.NoError(t, repo.Upsert(ctx, &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "dormant.myshopify.com", AccessToken: "t", IsActive: false,
	}))
	saved, err := repo.GetByOwnerAndShop(ctx, owner.ID, domain.PlatformShopify, "dormant.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.False(t, saved.IsActive)

	// Upserting the same tuple with IsActive=false turns an active row off.
	require.NoError(t, repo.Upsert(ctx, &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "acme.myshopify.com", AccessToken: "t", IsActive: true,
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "acme.myshopify.com", AccessToken: "t", IsActive: false,
	}))
	saved, err = repo.GetByOwnerAndShop(ctx, owner.ID, domain.PlatformShopify, "acme.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.False(t, saved.IsActive)
}

func TestUserDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	integrations := NewGormIntegrationRepository(db)
	owner := seedUser(t, db, "u1@example.com")
	ctx := context.Background()

	require.NoError(t, integrations.Upsert(ctx, &domain.Integration{
		UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "acme.myshopify.com", AccessToken: "t", IsActive: true,
	}))
	require.NoError(t, db.Create(&domain.Product{ID: "p1", UserID: owner.ID, Platform: domain.PlatformShopify}).Error)
	require.NoError(t, db.Create(&domain.Variant{ID: "v1", ProductID: "p1", Platform: domain.PlatformShopify}).Error)
	require.NoError(t, db.Create(&domain.Order{ID: "o1", UserID: owner.ID, Platform: domain.PlatformShopify}).Error)
	require.NoError(t, db.Create(&domain.OrderItem{ID: "i1", UserID: owner.ID, OrderID: "o1", Platform: domain.PlatformShopify}).Error)

	require.NoError(t, users.Delete(ctx, owner.ID))

	for _, model := range []interface{}{
		&domain.User{}, &domain.Integration{}, &domain.Product{},
		&domain.Variant{}, &domain.Order{}, &domain.OrderItem{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.EqualValues(t, 0, count, "%T should be empty", model)
	}
}

func TestCommerceReplaceForOwnerBumpsLastSynced(t *testing.T) {
	db := newTestDB(t)
	commerce := NewGormCommerceRepository(db)
	owner := seedUser(t, db, "u1@example.com")
	ctx := context.Background()

	integration := &domain.Integration{
		ID: uuid.New(), UserID: owner.ID, Platform: domain.PlatformShopify,
		ShopURL: "acme.myshopify.com", AccessToken: "t", IsActive: true,
	}
	require.NoError(t, db.Create(integration).Error)

	syncedAt := time.Now().Truncate(time.Second)
	batch := &domain.SyncBatch{
		IntegrationID: integration.ID,
		Orders: []domain.Order{{
			ID: "o1", Platform: domain.PlatformShopify,
			Items: []domain.OrderItem{{ID: "i1", OrderID: "o1", Platform: domain.PlatformShopify, Quantity: 1, Price: 9.99}},
		}},
	}
	require.NoError(t, commerce.ReplaceForOwner(ctx, owner.ID, batch, syncedAt))

	var saved domain.Integration
	require.NoError(t, db.First(&saved, "id = ?", integration.ID).Error)
	require.NotNil(t, saved.LastSyncedAt)
	assert.WithinDuration(t, syncedAt, *saved.LastSyncedAt, time.Second)

	var item domain.OrderItem
	require.NoError(t, db.First(&item, "id = ?", "i1").Error)
	assert.Equal(t, owner.ID, item.UserID)
}
