package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"minelog/backend/internal/model"
	pkgerrors "minelog/backend/pkg/errors"
)

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	GetByUserDateType(ctx context.Context, userID string, date time.Time, shiftType string) (*model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id string, deletedBy string) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Shift, int64, error)
	ListByUserRange(ctx context.Context, userID string, from, to time.Time) ([]model.Shift, error)
	ListByUsersRange(ctx context.Context, userIDs []string, from, to time.Time) ([]model.Shift, error)
	ListAllByUser(ctx context.Context, userID string) ([]model.Shift, error)
	ListAllByUsers(ctx context.Context, userIDs []string) ([]model.Shift, error)
}

// shiftRepo ShiftRepository 的 GORM 实现
type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// GetByUserDateType 查询某人某日某班别的班次（重复录入检查）
func (r *shiftRepo) GetByUserDateType(ctx context.Context, userID string, date time.Time, shiftType string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ? AND shift_type = ?", userID, date, shiftType).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// Update 乐观锁更新：版本不匹配返回 ErrOptimisticLock
func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	oldVersion := shift.Version
	result := r.db.WithContext(ctx).
		Model(shift).
		Where("shift_id = ? AND version = ?", shift.ShiftID, oldVersion).
		Updates(map[string]interface{}{
			"date":       shift.Date,
			"shift_type": shift.ShiftType,
			"source":     shift.Source,
			"notes":      shift.Notes,
			"totals":     shift.Totals,
			"updated_by": shift.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version = oldVersion + 1
	return nil
}

func (r *shiftRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *shiftRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Shift, int64, error) {
	var shifts []model.Shift
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Shift{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Records", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).
		Offset(offset).Limit(limit).
		Order("date DESC, shift_type ASC").
		Find(&shifts).Error; err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

func (r *shiftRepo) ListByUserRange(ctx context.Context, userID string, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC, shift_type ASC").
		Find(&shifts).Error
	return shifts, err
}

// ListByUsersRange 批量查询多人区间班次（同伴时间线）
func (r *shiftRepo) ListByUsersRange(ctx context.Context, userIDs []string, from, to time.Time) ([]model.Shift, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("user_id IN ? AND date >= ? AND date <= ?", userIDs, from, to).
		Order("date ASC").
		Find(&shifts).Error
	return shifts, err
}

// ListAllByUser 查询某人不限区间的全部班次（历史最佳）
func (r *shiftRepo) ListAllByUser(ctx context.Context, userID string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&shifts).Error
	return shifts, err
}

// ListAllByUsers 批量查询多人不限区间的全部班次（同伴历史最佳）
func (r *shiftRepo) ListAllByUsers(ctx context.Context, userIDs []string) ([]model.Shift, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("user_id IN ?", userIDs).
		Order("date ASC").
		Find(&shifts).Error
	return shifts, err
}
