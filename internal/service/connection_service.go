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

// ── 工友模块业务错误 ──

var (
	ErrConnectionNotFound       = errors.New("工友请求不存在")
	ErrConnectionExists         = errors.New("与该用户已存在工友关系或待处理请求")
	ErrConnectionSelf           = errors.New("不能添加自己为工友")
	ErrConnectionTargetRequired = errors.New("需提供对方用户ID或工号")
	ErrConnectionNotAddressee   = errors.New("仅被邀方可处理该请求")
	ErrConnectionNotPending     = errors.New("该请求已被处理")
)

// ConnectionService 工友关系业务接口
type ConnectionService interface {
	Request(ctx context.Context, req *dto.CreateConnectionRequest, callerID string) (*dto.ConnectionResponse, error)
	Respond(ctx context.Context, id string, accept bool, callerID string) (*dto.ConnectionResponse, error)
	List(ctx context.Context, callerID, status string) ([]dto.ConnectionResponse, error)
	ListPending(ctx context.Context, callerID string) ([]dto.ConnectionResponse, error)
	Remove(ctx context.Context, id, callerID string) error
}

type connectionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewConnectionService 创建 ConnectionService 实例
func NewConnectionService(repo *repository.Repository, logger *zap.Logger) ConnectionService {
	return &connectionService{repo: repo, logger: logger}
}

// ────────────────────── Request ──────────────────────
//
// 支持按用户 ID 或工号指定对方；declined 记录不阻止重新发起

func (s *connectionService) Request(ctx context.Context, req *dto.CreateConnectionRequest, callerID string) (*dto.ConnectionResponse, error) {
	// 1. 解析目标用户
	var target *model.User
	var err error
	switch {
	case req.AddresseeID != "":
		target, err = s.repo.User.GetByID(ctx, req.AddresseeID)
	case req.EmployeeNo != "":
		target, err = s.repo.User.GetByEmployeeNo(ctx, req.EmployeeNo)
	default:
		return nil, ErrConnectionTargetRequired
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询目标用户失败", zap.Error(err))
		return nil, err
	}

	if target.UserID == callerID {
		return nil, ErrConnectionSelf
	}

	// 2. 查重（pending / accepted 均视为已存在）
	if _, err := s.repo.Connection.GetBetween(ctx, callerID, target.UserID); err == nil {
		return nil, ErrConnectionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询工友关系失败", zap.Error(err))
		return nil, err
	}

	conn := &model.Connection{
		RequesterID: callerID,
		AddresseeID: target.UserID,
		Status:      model.ConnectionPending,
	}
	conn.CreatedBy = &callerID
	conn.UpdatedBy = &callerID

	if err := s.repo.Connection.Create(ctx, conn); err != nil {
		s.logger.Error("创建工友请求失败", zap.Error(err))
		return nil, err
	}

	// 重新加载以带出双方用户信息
	created, err := s.repo.Connection.GetByID(ctx, conn.ConnectionID)
	if err != nil {
		return nil, err
	}
	return toConnectionResponse(created), nil
}

// ────────────────────── Respond ──────────────────────

func (s *connectionService) Respond(ctx context.Context, id string, accept bool, callerID string) (*dto.ConnectionResponse, error) {
	conn, err := s.repo.Connection.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		s.logger.Error("查询工友请求失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if conn.AddresseeID != callerID {
		return nil, ErrConnectionNotAddressee
	}
	if conn.Status != model.ConnectionPending {
		return nil, ErrConnectionNotPending
	}

	status := model.ConnectionDeclined
	if accept {
		status = model.ConnectionAccepted
	}
	if err := s.repo.Connection.UpdateStatus(ctx, id, status, callerID); err != nil {
		s.logger.Error("更新工友请求状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.Connection.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toConnectionResponse(updated), nil
}

// ────────────────────── List ──────────────────────

func (s *connectionService) List(ctx context.Context, callerID, status string) ([]dto.ConnectionResponse, error) {
	conns, err := s.repo.Connection.ListForUser(ctx, callerID, status)
	if err != nil {
		s.logger.Error("查询工友关系列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ConnectionResponse, 0, len(conns))
	for i := range conns {
		result = append(result, *toConnectionResponse(&conns[i]))
	}
	return result, nil
}

// ────────────────────── ListPending ──────────────────────

func (s *connectionService) ListPending(ctx context.Context, callerID string) ([]dto.ConnectionResponse, error) {
	conns, err := s.repo.Connection.ListPendingForUser(ctx, callerID)
	if err != nil {
		s.logger.Error("查询待处理请求失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ConnectionResponse, 0, len(conns))
	for i := range conns {
		result = append(result, *toConnectionResponse(&conns[i]))
	}
	return result, nil
}

// ────────────────────── Remove ──────────────────────
//
// 双方任一人可解除关系；requester 也可借此撤回未处理的请求

func (s *connectionService) Remove(ctx context.Context, id, callerID string) error {
	conn, err := s.repo.Connection.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConnectionNotFound
		}
		s.logger.Error("查询工友关系失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if conn.RequesterID != callerID && conn.AddresseeID != callerID {
		return ErrNoPermission
	}

	if err := s.repo.Connection.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("解除工友关系失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func toConnectionResponse(conn *model.Connection) *dto.ConnectionResponse {
	resp := &dto.ConnectionResponse{
		ID:        conn.ConnectionID,
		Status:    conn.Status,
		CreatedAt: conn.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if conn.RespondedAt != nil {
		resp.RespondedAt = conn.RespondedAt.Format("2006-01-02T15:04:05Z")
	}
	if conn.Requester != nil {
		resp.Requester = toPeerResponse(conn.Requester)
	}
	if conn.Addressee != nil {
		resp.Addressee = toPeerResponse(conn.Addressee)
	}
	return resp
}

func toPeerResponse(user *model.User) *dto.PeerResponse {
	peer := &dto.PeerResponse{
		UserID:     user.UserID,
		Name:       user.Name,
		EmployeeNo: user.EmployeeNo,
	}
	if user.Site != nil {
		peer.SiteName = user.Site.Name
	}
	return peer
}
