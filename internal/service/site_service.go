package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/model"
	"minelog/backend/internal/repository"
)

// ── 矿区模块业务错误 ──

var (
	ErrSiteNameExists = errors.New("矿区名称已存在")
	ErrSiteHasMembers = errors.New("矿区下存在成员，无法删除")
	ErrSiteInactive   = errors.New("矿区已停用")
)

// SiteService 矿区业务接口
type SiteService interface {
	Create(ctx context.Context, req *dto.CreateSiteRequest, callerID string) (*dto.SiteDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SiteDetailResponse, error)
	List(ctx context.Context, req *dto.SiteListRequest) ([]dto.SiteDetailResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSiteRequest, callerID string) (*dto.SiteDetailResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	GetMembers(ctx context.Context, siteID string) ([]dto.SiteMemberResponse, error)
}

type siteService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSiteService 创建 SiteService 实例
func NewSiteService(repo *repository.Repository, logger *zap.Logger) SiteService {
	return &siteService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *siteService) Create(ctx context.Context, req *dto.CreateSiteRequest, callerID string) (*dto.SiteDetailResponse, error) {
	// 检查名称唯一性
	existing, err := s.repo.Site.GetByName(ctx, req.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询矿区失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrSiteNameExists
	}

	site := &model.MineSite{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		IsActive:    true,
	}
	site.CreatedBy = &callerID
	site.UpdatedBy = &callerID

	if err := s.repo.Site.Create(ctx, site); err != nil {
		s.logger.Error("创建矿区失败", zap.Error(err))
		return nil, err
	}

	return s.toSiteDetailResponse(ctx, site), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *siteService) GetByID(ctx context.Context, id string) (*dto.SiteDetailResponse, error) {
	site, err := s.repo.Site.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		s.logger.Error("查询矿区失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toSiteDetailResponse(ctx, site), nil
}

// ────────────────────── List ──────────────────────

func (s *siteService) List(ctx context.Context, req *dto.SiteListRequest) ([]dto.SiteDetailResponse, error) {
	var sites []model.MineSite
	var err error

	if req.IncludeInactive {
		sites, err = s.repo.Site.ListAll(ctx)
	} else {
		sites, err = s.repo.Site.List(ctx)
	}
	if err != nil {
		s.logger.Error("列出矿区失败", zap.Error(err))
		return nil, err
	}

	// 批量查询成员数，避免 N+1 查询问题
	siteIDs := make([]string, 0, len(sites))
	for _, site := range sites {
		siteIDs = append(siteIDs, site.SiteID)
	}
	countMap, err := s.repo.Site.BatchCountMembers(ctx, siteIDs)
	if err != nil {
		s.logger.Warn("批量查询成员数失败，回退为0", zap.Error(err))
		countMap = make(map[string]int64)
	}

	result := make([]dto.SiteDetailResponse, 0, len(sites))
	for i := range sites {
		result = append(result, dto.SiteDetailResponse{
			ID:          sites[i].SiteID,
			Name:        sites[i].Name,
			Code:        sites[i].Code,
			Description: sites[i].Description,
			IsActive:    sites[i].IsActive,
			MemberCount: countMap[sites[i].SiteID],
			CreatedAt:   sites[i].CreatedAt.Format("2006-01-02T15:04:05Z"),
			UpdatedAt:   sites[i].UpdatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *siteService) Update(ctx context.Context, id string, req *dto.UpdateSiteRequest, callerID string) (*dto.SiteDetailResponse, error) {
	site, err := s.repo.Site.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		s.logger.Error("查询矿区失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 如果更新名称，检查唯一性
	if req.Name != nil && *req.Name != site.Name {
		existing, err := s.repo.Site.GetByName(ctx, *req.Name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrSiteNameExists
		}
		site.Name = *req.Name
	}

	if req.Description != nil {
		site.Description = *req.Description
	}
	if req.IsActive != nil {
		site.IsActive = *req.IsActive
	}

	site.UpdatedBy = &callerID

	if err := s.repo.Site.Update(ctx, site); err != nil {
		s.logger.Error("更新矿区失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toSiteDetailResponse(ctx, site), nil
}

// ────────────────────── Delete ──────────────────────

func (s *siteService) Delete(ctx context.Context, id string, callerID string) error {
	site, err := s.repo.Site.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSiteNotFound
		}
		s.logger.Error("查询矿区失败", zap.String("id", id), zap.Error(err))
		return err
	}

	// 检查矿区下是否有成员
	count, err := s.repo.Site.CountMembers(ctx, site.SiteID)
	if err != nil {
		s.logger.Error("查询矿区成员数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrSiteHasMembers
	}

	if err := s.repo.Site.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除矿区失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ────────────────────── GetMembers ──────────────────────

func (s *siteService) GetMembers(ctx context.Context, siteID string) ([]dto.SiteMemberResponse, error) {
	// 校验矿区存在
	if _, err := s.repo.Site.GetByID(ctx, siteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}

	users, err := s.repo.User.ListBySite(ctx, siteID)
	if err != nil {
		s.logger.Error("查询矿区成员失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SiteMemberResponse, 0, len(users))
	for _, u := range users {
		result = append(result, dto.SiteMemberResponse{
			UserID:     u.UserID,
			Name:       u.Name,
			EmployeeNo: u.EmployeeNo,
			Email:      u.Email,
			Role:       u.Role,
		})
	}

	return result, nil
}

// ── 内部辅助方法 ──

func (s *siteService) toSiteDetailResponse(ctx context.Context, site *model.MineSite) *dto.SiteDetailResponse {
	memberCount, _ := s.repo.Site.CountMembers(ctx, site.SiteID)
	return &dto.SiteDetailResponse{
		ID:          site.SiteID,
		Name:        site.Name,
		Code:        site.Code,
		Description: site.Description,
		IsActive:    site.IsActive,
		MemberCount: memberCount,
		CreatedAt:   site.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   site.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
