package service

import (
	"context"
	"errors"
	"fmt"

	"cargoport/internal/dto"
	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RecomputeQueue schedules container repricing off the request path. The
// worker dispatcher satisfies it; a nil queue disables async repricing.
type RecomputeQueue interface {
	EnqueueRecompute(ctx context.Context, containerID string) error
}

type CatalogService interface {
	Create(ctx context.Context, req dto.CreateCatalogEntryRequest) (*dto.CatalogEntryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateCatalogEntryRequest) (*dto.CatalogEntryResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CatalogEntryResponse, error)
	List(ctx context.Context, filter dto.CatalogFilter) ([]dto.CatalogEntryResponse, error)
	// Delete removes the entry. Assignments still pointing at it become stale
	// and are skipped (and logged) by the pricing rollup.
	Delete(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	catalogRepo    repository.CatalogRepository
	assignmentRepo repository.AssignmentRepository
	rdb            *redis.Client
	queue          RecomputeQueue
}

func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	assignmentRepo repository.AssignmentRepository,
	rdb *redis.Client,
	queue RecomputeQueue,
) CatalogService {
	return &catalogService{
		catalogRepo:    catalogRepo,
		assignmentRepo: assignmentRepo,
		rdb:            rdb,
		queue:          queue,
	}
}

func (s *catalogService) Create(ctx context.Context, req dto.CreateCatalogEntryRequest) (*dto.CatalogEntryResponse, error) {
	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("invalid provider_id: %w", err)
	}
	entry := &model.CatalogEntry{
		Provider:      model.ProviderRef{Kind: model.ProviderKind(req.ProviderKind), ID: providerID},
		Name:          req.Name,
		Code:          req.Code,
		DefaultPrice:  req.DefaultPrice,
		DefaultMarkup: req.DefaultMarkup,
		Active:        true,
		AutoAdd:       req.AutoAdd,
	}
	if err := s.catalogRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return catalogEntryToResponse(entry), nil
}

func (s *catalogService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCatalogEntryRequest) (*dto.CatalogEntryResponse, error) {
	entry, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("catalog entry not found")
	}

	if req.Name != nil {
		entry.Name = *req.Name
	}
	if req.Code != nil {
		entry.Code = req.Code
	}
	if req.DefaultPrice != nil {
		entry.DefaultPrice = *req.DefaultPrice
	}
	if req.DefaultMarkup != nil {
		entry.DefaultMarkup = *req.DefaultMarkup
	}
	if req.Active != nil {
		entry.Active = *req.Active
	}
	if req.AutoAdd != nil {
		entry.AutoAdd = *req.AutoAdd
	}

	if err := s.catalogRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	InvalidateCatalogEntry(ctx, s.rdb, entry.ID)
	if req.DefaultPrice != nil || req.DefaultMarkup != nil || req.Active != nil {
		s.scheduleReprices(ctx, entry.ID)
	}
	return catalogEntryToResponse(entry), nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*dto.CatalogEntryResponse, error) {
	entry, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("catalog entry not found")
	}
	return catalogEntryToResponse(entry), nil
}

func (s *catalogService) List(ctx context.Context, filter dto.CatalogFilter) ([]dto.CatalogEntryResponse, error) {
	providerID, err := uuid.Parse(filter.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("invalid provider_id: %w", err)
	}
	provider := model.ProviderRef{Kind: model.ProviderKind(filter.ProviderKind), ID: providerID}
	entries, err := s.catalogRepo.ListByProvider(ctx, provider, filter.ActiveOnly)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CatalogEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, *catalogEntryToResponse(&entries[i]))
	}
	return items, nil
}

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.catalogRepo.FindByID(ctx, id); err != nil {
		return errors.New("catalog entry not found")
	}
	if err := s.catalogRepo.Delete(ctx, id); err != nil {
		return err
	}
	InvalidateCatalogEntry(ctx, s.rdb, id)
	s.scheduleReprices(ctx, id)
	return nil
}

// scheduleReprices enqueues one repricing job per container affected by a
// catalog change. Enqueue failures are logged, not surfaced — the catalog
// write itself has already committed.
func (s *catalogService) scheduleReprices(ctx context.Context, entryID uuid.UUID) {
	if s.queue == nil {
		return
	}
	containerIDs, err := s.assignmentRepo.ContainerIDsByEntry(ctx, entryID)
	if err != nil {
		log.Warn().Err(err).Str("entry_id", entryID.String()).Msg("failed to list containers for repricing")
		return
	}
	for _, containerID := range containerIDs {
		if err := s.queue.EnqueueRecompute(ctx, containerID.String()); err != nil {
			log.Warn().Err(err).Str("container_id", containerID.String()).Msg("failed to enqueue repricing")
		}
	}
}

func catalogEntryToResponse(e *model.CatalogEntry) *dto.CatalogEntryResponse {
	return &dto.CatalogEntryResponse{
		ID:            e.ID.String(),
		ProviderKind:  string(e.Provider.Kind),
		ProviderID:    e.Provider.ID.String(),
		Name:          e.Name,
		Code:          e.Code,
		DefaultPrice:  e.DefaultPrice,
		DefaultMarkup: e.DefaultMarkup,
		Active:        e.Active,
		AutoAdd:       e.AutoAdd,
	}
}
