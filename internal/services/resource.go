package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pybook/pybook-backend/internal/normalization"
	apperrors "github.com/pybook/pybook-backend/internal/pkg/errors"
	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/repos"
	"github.com/pybook/pybook-backend/internal/types"
)

type ResourceInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	ResourceType string `json:"resource_type"`
	Category     string `json:"category"`
	Icon         string `json:"icon"`
}

type ResourceService interface {
	Create(ctx context.Context, orgID, createdBy uuid.UUID, input ResourceInput) (*types.OrgResource, error)
	List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*types.OrgResource, error)
	Update(ctx context.Context, orgID, resourceID uuid.UUID, input ResourceInput) (*types.OrgResource, error)
	SetActive(ctx context.Context, orgID, resourceID uuid.UUID, active bool) error
	Delete(ctx context.Context, orgID, resourceID uuid.UUID) error
	// Reorder persists the permutation with contiguous zero-based indexes.
	Reorder(ctx context.Context, orgID uuid.UUID, resourceIDs []uuid.UUID) error
}

type resourceService struct {
	db           *gorm.DB
	log          *logger.Logger
	resourceRepo repos.ResourceRepo
}

func NewResourceService(db *gorm.DB, log *logger.Logger, resourceRepo repos.ResourceRepo) ResourceService {
	return &resourceService{
		db:           db,
		log:          log.With("service", "ResourceService"),
		resourceRepo: resourceRepo,
	}
}

func (rs *resourceService) validate(input *ResourceInput) error {
	input.Title = normalization.ParseInputString(input.Title)
	if input.Title == "" {
		return fmt.Errorf("resource title is required: %w", apperrors.ErrInvalidArgument)
	}
	input.URL = strings.TrimSpace(input.URL)
	if input.URL == "" {
		return fmt.Errorf("resource url is required: %w", apperrors.ErrInvalidArgument)
	}
	if input.ResourceType == "" {
		input.ResourceType = "link"
	}
	if !types.ValidResourceType(input.ResourceType) {
		return fmt.Errorf("invalid resource type %q: %w", input.ResourceType, apperrors.ErrInvalidArgument)
	}
	if input.Category == "" {
		input.Category = "learning"
	}
	if !types.ValidResourceCategory(input.Category) {
		return fmt.Errorf("invalid resource category %q: %w", input.Category, apperrors.ErrInvalidArgument)
	}
	return nil
}

func (rs *resourceService) Create(ctx context.Context, orgID, createdBy uuid.UUID, input ResourceInput) (*types.OrgResource, error) {
	if err := rs.validate(&input); err != nil {
		return nil, err
	}
	resource := &types.OrgResource{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          input.Title,
		Description:    normalization.ParseInputString(input.Description),
		URL:            input.URL,
		ResourceType:   input.ResourceType,
		Category:       input.Category,
		Icon:           input.Icon,
		IsActive:       true,
		CreatedBy:      createdBy,
	}
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, lErr := rs.resourceRepo.GetByOrgID(ctx, tx, orgID, false)
		if lErr != nil {
			return fmt.Errorf("list resources for ordering: %w", lErr)
		}
		resource.OrderIndex = len(existing)
		if _, cErr := rs.resourceRepo.Create(ctx, tx, []*types.OrgResource{resource}); cErr != nil {
			return fmt.Errorf("create resource: %w", cErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resource, nil
}

func (rs *resourceService) List(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*types.OrgResource, error) {
	rows, err := rs.resourceRepo.GetByOrgID(ctx, nil, orgID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return rows, nil
}

func (rs *resourceService) owned(ctx context.Context, tx *gorm.DB, orgID, resourceID uuid.UUID) (*types.OrgResource, error) {
	rows, err := rs.resourceRepo.GetByIDs(ctx, tx, []uuid.UUID{resourceID})
	if err != nil {
		return nil, fmt.Errorf("load resource: %w", err)
	}
	if len(rows) == 0 || rows[0].OrganizationID != orgID {
		return nil, fmt.Errorf("resource %s: %w", resourceID, apperrors.ErrNotFound)
	}
	return rows[0], nil
}

func (rs *resourceService) Update(ctx context.Context, orgID, resourceID uuid.UUID, input ResourceInput) (*types.OrgResource, error) {
	if err := rs.validate(&input); err != nil {
		return nil, err
	}
	var updated *types.OrgResource
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resource, oErr := rs.owned(ctx, tx, orgID, resourceID)
		if oErr != nil {
			return oErr
		}
		fields := map[string]interface{}{
			"title":         input.Title,
			"description":   normalization.ParseInputString(input.Description),
			"url":           input.URL,
			"resource_type": input.ResourceType,
			"category":      input.Category,
			"icon":          input.Icon,
		}
		if uErr := rs.resourceRepo.UpdateFields(ctx, tx, resourceID, fields); uErr != nil {
			return fmt.Errorf("update resource: %w", uErr)
		}
		resource.Title = input.Title
		resource.Description = normalization.ParseInputString(input.Description)
		resource.URL = input.URL
		resource.ResourceType = input.ResourceType
		resource.Category = input.Category
		resource.Icon = input.Icon
		updated = resource
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (rs *resourceService) SetActive(ctx context.Context, orgID, resourceID uuid.UUID, active bool) error {
	if _, err := rs.owned(ctx, nil, orgID, resourceID); err != nil {
		return err
	}
	return rs.resourceRepo.UpdateFields(ctx, nil, resourceID, map[string]interface{}{"is_active": active})
}

func (rs *resourceService) Delete(ctx context.Context, orgID, resourceID uuid.UUID) error {
	return rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := rs.owned(ctx, tx, orgID, resourceID); err != nil {
			return err
		}
		if err := rs.resourceRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{resourceID}); err != nil {
			return fmt.Errorf("delete resource: %w", err)
		}
		// Renumber the survivors so indexes stay contiguous.
		remaining, lErr := rs.resourceRepo.GetByOrgID(ctx, tx, orgID, false)
		if lErr != nil {
			return fmt.Errorf("list remaining resources: %w", lErr)
		}
		orders := make(map[uuid.UUID]int, len(remaining))
		for i, r := range remaining {
			orders[r.ID] = i
		}
		return rs.resourceRepo.UpdateOrderIndexes(ctx, tx, orders)
	})
}

func (rs *resourceService) Reorder(ctx context.Context, orgID uuid.UUID, resourceIDs []uuid.UUID) error {
	return rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := rs.resourceRepo.GetByOrgID(ctx, tx, orgID, false)
		if err != nil {
			return fmt.Errorf("list resources: %w", err)
		}
		if len(existing) != len(resourceIDs) {
			return fmt.Errorf("reorder must list every resource exactly once: %w", apperrors.ErrInvalidArgument)
		}
		known := make(map[uuid.UUID]bool, len(existing))
		for _, r := range existing {
			known[r.ID] = true
		}
		orders := make(map[uuid.UUID]int, len(resourceIDs))
		seen := make(map[uuid.UUID]bool, len(resourceIDs))
		for i, id := range resourceIDs {
			if seen[id] || !known[id] {
				return fmt.Errorf("resource %s invalid in reorder: %w", id, apperrors.ErrInvalidArgument)
			}
			seen[id] = true
			orders[id] = i
		}
		return rs.resourceRepo.UpdateOrderIndexes(ctx, tx, orders)
	})
}
