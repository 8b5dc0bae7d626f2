package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/univ-adm/faculte-api/internal/dto"
	"github.com/univ-adm/faculte-api/internal/models"
	appErrors "github.com/univ-adm/faculte-api/pkg/errors"
)

type dashboardUserStore interface {
	CountByRoles(ctx context.Context, roles []models.Role) (map[models.Role]int, error)
}

type dashboardRequestStore interface {
	CountByStatus(ctx context.Context, status models.ChangeRequestStatus) (int, error)
}

type dashboardGroupStore interface {
	FillRates(ctx context.Context, sectionIDs []string) ([]dto.GroupFillRate, error)
}

type dashboardResponsableStore interface {
	Coverage(ctx context.Context) ([]dto.SectionCoverage, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the administrative dashboard: administrator
// counts scoped to the actor's manageable roles, pending request pressure,
// group fill rates and responsable coverage.
type DashboardService struct {
	users        dashboardUserStore
	requests     dashboardRequestStore
	groups       dashboardGroupStore
	responsables dashboardResponsableStore
	cache        *CacheService
	logger       *zap.Logger
	cfg          DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users        dashboardUserStore
	Requests     dashboardRequestStore
	Groups       dashboardGroupStore
	Responsables dashboardResponsableStore
	Cache        *CacheService
	Logger       *zap.Logger
	Config       DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:        params.Users,
		requests:     params.Requests,
		groups:       params.Groups,
		responsables: params.Responsables,
		cache:        params.Cache,
		logger:       logger,
		cfg:          cfg,
	}
}

// Overview returns the dashboard for the actor and indicates cache
// utilisation.
func (s *DashboardService) Overview(ctx context.Context, actor *models.JWTClaims) (*dto.DashboardResponse, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	if !models.IsAdministrative(actor.Role) {
		return nil, false, appErrors.ErrForbidden
	}

	cacheKey := fmt.Sprintf("dashboard:%s", actor.Role)
	if s.cache != nil {
		var cached dto.DashboardResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	resp := &dto.DashboardResponse{
		AdministratorCounts: []dto.RoleCount{},
		GroupFillRates:      []dto.GroupFillRate{},
		SectionCoverage:     []dto.SectionCoverage{},
	}

	manageable := models.ManageableRoles(actor.Role)
	if len(manageable) > 0 {
		counts, err := s.users.CountByRoles(ctx, manageable)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count administrators")
		}
		for _, role := range manageable {
			resp.AdministratorCounts = append(resp.AdministratorCounts, dto.RoleCount{Role: role, Count: counts[role]})
		}
	}

	pending, err := s.requests.CountByStatus(ctx, models.ChangeRequestPending)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending requests")
	}
	resp.PendingRequests = pending

	fillRates, err := s.groups.FillRates(ctx, nil)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fill rates")
	}
	if fillRates != nil {
		resp.GroupFillRates = fillRates
	}

	coverage, err := s.responsables.Coverage(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section coverage")
	}
	if coverage != nil {
		resp.SectionCoverage = coverage
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return resp, false, nil
}
