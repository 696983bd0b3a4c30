package repository

import (
	"context"

	"gorm.io/gorm"

	"minelog/backend/internal/model"
)

// ActivityRecordRepository 活动记录数据访问接口
type ActivityRecordRepository interface {
	Create(ctx context.Context, record *model.ActivityRecord) error
	BatchCreate(ctx context.Context, records []model.ActivityRecord) error
	GetByID(ctx context.Context, id string) (*model.ActivityRecord, error)
	Update(ctx context.Context, record *model.ActivityRecord) error
	Delete(ctx context.Context, id string) error
	ListByShift(ctx context.Context, shiftID string) ([]model.ActivityRecord, error)
	DeleteByShift(ctx context.Context, shiftID string) error
	CountByShift(ctx context.Context, shiftID string) (int64, error)
}

type activityRecordRepo struct {
	db *gorm.DB
}

// NewActivityRecordRepo 创建 ActivityRecordRepository 实例
func NewActivityRecordRepo(db *gorm.DB) ActivityRecordRepository {
	return &activityRecordRepo{db: db}
}

func (r *activityRecordRepo) Create(ctx context.Context, record *model.ActivityRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *activityRecordRepo) BatchCreate(ctx context.Context, records []model.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *activityRecordRepo) GetByID(ctx context.Context, id string) (*model.ActivityRecord, error) {
	var record model.ActivityRecord
	err := r.db.WithContext(ctx).
		Where("record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *activityRecordRepo) Update(ctx context.Context, record *model.ActivityRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Delete 物理删除单条活动记录
func (r *activityRecordRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("record_id = ?", id).
		Delete(&model.ActivityRecord{}).Error
}

func (r *activityRecordRepo) ListByShift(ctx context.Context, shiftID string) ([]model.ActivityRecord, error) {
	var records []model.ActivityRecord
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("sort_order ASC").
		Find(&records).Error
	return records, err
}

// DeleteByShift 物理删除班次的全部活动记录（编辑班次时整组重建）
func (r *activityRecordRepo) DeleteByShift(ctx context.Context, shiftID string) error {
	return r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Delete(&model.ActivityRecord{}).Error
}

func (r *activityRecordRepo) CountByShift(ctx context.Context, shiftID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ActivityRecord{}).
		Where("shift_id = ?", shiftID).
		Count(&count).Error
	return count, err
}
