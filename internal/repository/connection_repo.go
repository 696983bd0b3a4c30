package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"minelog/backend/internal/model"
)

// ConnectionRepository 工友关系数据访问接口
type ConnectionRepository interface {
	Create(ctx context.Context, conn *model.Connection) error
	GetByID(ctx context.Context, id string) (*model.Connection, error)
	// GetBetween 查询两人之间的关系（方向无关）
	GetBetween(ctx context.Context, userA, userB string) (*model.Connection, error)
	UpdateStatus(ctx context.Context, id, status, updatedBy string) error
	Delete(ctx context.Context, id string, deletedBy string) error
	ListForUser(ctx context.Context, userID, status string) ([]model.Connection, error)
	ListPendingForUser(ctx context.Context, userID string) ([]model.Connection, error)
	// ListAcceptedPeerIDs 返回与某人互为工友的全部用户 ID
	ListAcceptedPeerIDs(ctx context.Context, userID string) ([]string, error)
}

type connectionRepo struct {
	db *gorm.DB
}

// NewConnectionRepo 创建 ConnectionRepository 实例
func NewConnectionRepo(db *gorm.DB) ConnectionRepository {
	return &connectionRepo{db: db}
}

func (r *connectionRepo) Create(ctx context.Context, conn *model.Connection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

func (r *connectionRepo) GetByID(ctx context.Context, id string) (*model.Connection, error) {
	var conn model.Connection
	err := r.db.WithContext(ctx).
		Preload("Requester.Site").
		Preload("Addressee.Site").
		Where("connection_id = ?", id).
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepo) GetBetween(ctx context.Context, userA, userB string) (*model.Connection, error) {
	var conn model.Connection
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			userA, userB, userB, userA).
		Where("status <> ?", model.ConnectionDeclined).
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepo) UpdateStatus(ctx context.Context, id, status, updatedBy string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Connection{}).
		Where("connection_id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": now,
			"updated_at":   now,
			"updated_by":   updatedBy,
		}).Error
}

func (r *connectionRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Connection{}).
		Where("connection_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *connectionRepo) ListForUser(ctx context.Context, userID, status string) ([]model.Connection, error) {
	var conns []model.Connection
	db := r.db.WithContext(ctx).
		Preload("Requester.Site").
		Preload("Addressee.Site").
		Where("requester_id = ? OR addressee_id = ?", userID, userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at DESC").Find(&conns).Error
	return conns, err
}

// ListPendingForUser 查询待本人处理的请求（本人为被邀方）
func (r *connectionRepo) ListPendingForUser(ctx context.Context, userID string) ([]model.Connection, error) {
	var conns []model.Connection
	err := r.db.WithContext(ctx).
		Preload("Requester.Site").
		Where("addressee_id = ? AND status = ?", userID, model.ConnectionPending).
		Order("created_at DESC").
		Find(&conns).Error
	return conns, err
}

func (r *connectionRepo) ListAcceptedPeerIDs(ctx context.Context, userID string) ([]string, error) {
	var conns []model.Connection
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, model.ConnectionAccepted).
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	peers := make([]string, 0, len(conns))
	for _, c := range conns {
		if c.RequesterID == userID {
			peers = append(peers, c.AddresseeID)
		} else {
			peers = append(peers, c.RequesterID)
		}
	}
	return peers, nil
}
