package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// Sync modes. A full sync pulls every record the shop exposes; an
// incremental sync only pulls records updated since the previous run.
const (
	SyncModeFull        = "full"
	SyncModeIncremental = "incremental"
)

// incrementalFallback bounds the lookback window for a store that has
// never been synced before.
const incrementalFallback = 7 * 24 * time.Hour

// SyncService pulls commerce data out of a connected shop and lands it
// in the relational store.
type SyncService struct {
	integrationRepo ports.IntegrationRepository
	commerceRepo    ports.CommerceRepository
	shopifyClient   ports.ShopifyClient
	logger          zerolog.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(
	integrationRepo ports.IntegrationRepository,
	commerceRepo ports.CommerceRepository,
	shopifyClient ports.ShopifyClient,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		integrationRepo: integrationRepo,
		commerceRepo:    commerceRepo,
		shopifyClient:   shopifyClient,
		logger:          logger,
	}
}

// SyncShop refreshes products, customers and orders for one connected
// shop. Mode selects between a full pull and an incremental one scoped
// to records updated since the last successful sync.
func (s *SyncService) SyncShop(ctx context.Context, ownerID uuid.UUID, shop, mode string) error {
	if mode != SyncModeFull && mode != SyncModeIncremental {
		return domain.E(domain.KindInvalidRequest, "mode must be full or incremental")
	}

	integration, err := s.integrationRepo.GetByOwnerAndShop(ctx, ownerID, domain.PlatformShopify, shop)
	if err != nil {
		return domain.E(domain.KindPersistenceError, "failed to load integration", err)
	}
	if integration == nil {
		return domain.E(domain.KindNotFound, "no integration for shop")
	}
	if !integration.IsActive {
		return domain.E(domain.KindIntegrationDisabled, "integration is disabled")
	}

	var since time.Time
	if mode == SyncModeIncremental {
		if integration.LastSyncedAt != nil {
			since = *integration.LastSyncedAt
		} else {
			since = time.Now().Add(-incrementalFallback)
		}
	}

	token := integration.AccessToken
	batch := &domain.SyncBatch{IntegrationID: integration.ID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.shopifyClient.GetProducts(gctx, shop, token, since)
		if err != nil {
			return err
		}
		batch.Products = products
		return nil
	})
	g.Go(func() error {
		customers, err := s.shopifyClient.GetCustomers(gctx, shop, token, since)
		if err != nil {
			return err
		}
		batch.Customers = customers
		return nil
	})
	g.Go(func() error {
		orders, err := s.shopifyClient.GetOrders(gctx, shop, token, since)
		if err != nil {
			return err
		}
		batch.Orders = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) {
			return err
		}
		return domain.E(domain.KindUpstreamError, "failed to fetch shop data", err)
	}

	syncedAt := time.Now()
	if err := s.commerceRepo.ReplaceForOwner(ctx, ownerID, batch, syncedAt); err != nil {
		return domain.E(domain.KindPersistenceError, "failed to store shop data", err)
	}

	s.logger.Info().
		Str("shop", shop).
		Str("mode", mode).
		Int("products", len(batch.Products)).
		Int("customers", len(batch.Customers)).
		Int("orders", len(batch.Orders)).
		Msg("shop sync completed")
	return nil
}

// SyncAllActive runs an incremental sync for every active integration.
// Failures are logged per shop and do not stop the remaining shops.
func (s *SyncService) SyncAllActive(ctx context.Context) error {
	integrations, err := s.integrationRepo.ListActive(ctx, domain.PlatformShopify)
	if err != nil {
		return domain.E(domain.KindPersistenceError, "failed to list integrations", err)
	}

	var failed int
	for _, integration := range integrations {
		if err := s.SyncShop(ctx, integration.UserID, integration.ShopURL, SyncModeIncremental); err != nil {
			failed++
			s.logger.Error().Err(err).
				Str("shop", integration.ShopURL).
				Msg("scheduled sync failed for shop")
		}
	}
	if failed > 0 {
		s.logger.Warn().
			Int("failed", failed).
			Int("total", len(integrations)).
			Msg("scheduled sync finished with failures")
	}
	return nil
}
