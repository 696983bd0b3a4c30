package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/metric"
	"minelog/backend/internal/model"
	"minelog/backend/internal/repository"
	pkgerrors "minelog/backend/pkg/errors"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound          = errors.New("班次不存在")
	ErrShiftDuplicate         = errors.New("该日期该班别已有班次记录")
	ErrShiftDateInvalid       = errors.New("日期格式无效，应为 yyyy-MM-dd")
	ErrShiftConflict          = errors.New("班次已被其他请求修改，请刷新后重试")
	ErrActivityRecordNotFound = errors.New("活动记录不存在")
)

// ShiftService 班次业务接口
type ShiftService interface {
	Create(ctx context.Context, req *dto.CreateShiftRequest, callerID, callerSiteID string) (*dto.ShiftResponse, error)
	GetByID(ctx context.Context, id string, callerID, callerRole string) (*dto.ShiftResponse, error)
	List(ctx context.Context, req *dto.ShiftListRequest, callerID string) ([]dto.ShiftResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, callerID, callerRole string) (*dto.ShiftResponse, error)
	Delete(ctx context.Context, id string, callerID, callerRole string) error
	AddRecord(ctx context.Context, shiftID string, req *dto.ActivityRecordRequest, callerID, callerRole string) (*dto.ShiftResponse, error)
	UpdateRecord(ctx context.Context, shiftID, recordID string, req *dto.ActivityRecordRequest, callerID, callerRole string) (*dto.ShiftResponse, error)
	DeleteRecord(ctx context.Context, shiftID, recordID string, callerID, callerRole string) (*dto.ShiftResponse, error)
}

type shiftService struct {
	repo   *repository.Repository
	engine *metric.Engine
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, engine *metric.Engine, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, engine: engine, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *shiftService) Create(ctx context.Context, req *dto.CreateShiftRequest, callerID, callerSiteID string) (*dto.ShiftResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrShiftDateInvalid
	}

	// 同人同日同班别唯一
	if _, err := s.repo.Shift.GetByUserDateType(ctx, callerID, date, req.ShiftType); err == nil {
		return nil, ErrShiftDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, err
	}

	shift := &model.Shift{
		UserID:    callerID,
		SiteID:    callerSiteID,
		Date:      date,
		ShiftType: req.ShiftType,
		Source:    model.ShiftSourceManual,
		Notes:     req.Notes,
		Totals:    model.JSONMap(req.Totals),
	}
	shift.CreatedBy = &callerID
	shift.UpdatedBy = &callerID

	// 事务：班次与活动记录一并落库
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Shift.Create(ctx, shift); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}

	if len(req.Records) > 0 {
		records := buildActivityRecords(shift.ShiftID, req.Records, callerID)
		if err := txRepo.ActivityRecord.BatchCreate(ctx, records); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("创建活动记录失败", zap.Error(err))
			return nil, err
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return s.loadShiftResponse(ctx, shift.ShiftID)
}

// ────────────────────── GetByID ──────────────────────

func (s *shiftService) GetByID(ctx context.Context, id string, callerID, callerRole string) (*dto.ShiftResponse, error) {
	shift, err := s.getOwnedShift(ctx, id, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	return s.toShiftResponse(shift), nil
}

// ────────────────────── List ──────────────────────

func (s *shiftService) List(ctx context.Context, req *dto.ShiftListRequest, callerID string) ([]dto.ShiftResponse, int64, error) {
	// 带日期范围时走范围查询（升序），内存分页
	if req.From != "" || req.To != "" {
		from, to, err := parseShiftRange(req.From, req.To)
		if err != nil {
			return nil, 0, err
		}
		shifts, err := s.repo.Shift.ListByUserRange(ctx, callerID, from, to)
		if err != nil {
			s.logger.Error("查询班次列表失败", zap.Error(err))
			return nil, 0, err
		}

		total := int64(len(shifts))
		offset := req.GetOffset()
		if offset > len(shifts) {
			offset = len(shifts)
		}
		end := offset + req.GetPageSize()
		if end > len(shifts) {
			end = len(shifts)
		}

		page := shifts[offset:end]
		result := make([]dto.ShiftResponse, 0, len(page))
		for i := range page {
			result = append(result, *s.toShiftResponse(&page[i]))
		}
		return result, total, nil
	}

	shifts, total, err := s.repo.Shift.ListByUser(ctx, callerID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询班次列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *s.toShiftResponse(&shifts[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────
//
// 乐观锁：客户端必须回传读取时的 version，版本不匹配返回冲突

func (s *shiftService) Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, callerID, callerRole string) (*dto.ShiftResponse, error) {
	shift, err := s.getOwnedShift(ctx, id, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	// 应用更新字段（仅更新非 nil 字段）
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, ErrShiftDateInvalid
		}
		shift.Date = date
	}
	if req.ShiftType != nil {
		shift.ShiftType = *req.ShiftType
	}

	// 日期或班别变化后重查重复
	if req.Date != nil || req.ShiftType != nil {
		existing, err := s.repo.Shift.GetByUserDateType(ctx, shift.UserID, shift.Date, shift.ShiftType)
		if err == nil && existing.ShiftID != shift.ShiftID {
			return nil, ErrShiftDuplicate
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if req.Notes != nil {
		shift.Notes = *req.Notes
	}
	if req.Totals != nil {
		shift.Totals = model.JSONMap(*req.Totals)
	}

	shift.Version = req.Version
	shift.UpdatedBy = &callerID

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Shift.Update(ctx, shift); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrShiftConflict
		}
		s.logger.Error("更新班次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// Records 非 nil 时整组替换
	if req.Records != nil {
		if err := txRepo.ActivityRecord.DeleteByShift(ctx, shift.ShiftID); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("清除活动记录失败", zap.Error(err))
			return nil, err
		}
		if len(*req.Records) > 0 {
			records := buildActivityRecords(shift.ShiftID, *req.Records, callerID)
			if err := txRepo.ActivityRecord.BatchCreate(ctx, records); err != nil {
				if tx != nil {
					tx.Rollback()
				}
				s.logger.Error("创建活动记录失败", zap.Error(err))
				return nil, err
			}
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return s.loadShiftResponse(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *shiftService) Delete(ctx context.Context, id string, callerID, callerRole string) error {
	if _, err := s.getOwnedShift(ctx, id, callerID, callerRole); err != nil {
		return err
	}
	if err := s.repo.Shift.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除班次失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── AddRecord ──────────────────────

func (s *shiftService) AddRecord(ctx context.Context, shiftID string, req *dto.ActivityRecordRequest, callerID, callerRole string) (*dto.ShiftResponse, error) {
	shift, err := s.getOwnedShift(ctx, shiftID, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	// 新记录排在末尾
	next := 0
	for i := range shift.Records {
		if shift.Records[i].SortOrder >= next {
			next = shift.Records[i].SortOrder + 1
		}
	}

	rec := &model.ActivityRecord{
		ShiftID:      shiftID,
		ActivityType: req.ActivityType,
		SubType:      req.SubType,
		Location:     req.Location,
		Equipment:    req.Equipment,
		Fields:       model.JSONMap(req.Fields),
		SortOrder:    next,
	}
	rec.CreatedBy = &callerID
	rec.UpdatedBy = &callerID

	if err := s.repo.ActivityRecord.Create(ctx, rec); err != nil {
		s.logger.Error("创建活动记录失败", zap.Error(err))
		return nil, err
	}

	return s.loadShiftResponse(ctx, shiftID)
}

// ────────────────────── UpdateRecord ──────────────────────

func (s *shiftService) UpdateRecord(ctx context.Context, shiftID, recordID string, req *dto.ActivityRecordRequest, callerID, callerRole string) (*dto.ShiftResponse, error) {
	if _, err := s.getOwnedShift(ctx, shiftID, callerID, callerRole); err != nil {
		return nil, err
	}

	rec, err := s.repo.ActivityRecord.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityRecordNotFound
		}
		s.logger.Error("查询活动记录失败", zap.String("id", recordID), zap.Error(err))
		return nil, err
	}
	if rec.ShiftID != shiftID {
		return nil, ErrActivityRecordNotFound
	}

	rec.ActivityType = req.ActivityType
	rec.SubType = req.SubType
	rec.Location = req.Location
	rec.Equipment = req.Equipment
	rec.Fields = model.JSONMap(req.Fields)
	rec.UpdatedBy = &callerID

	if err := s.repo.ActivityRecord.Update(ctx, rec); err != nil {
		s.logger.Error("更新活动记录失败", zap.String("id", recordID), zap.Error(err))
		return nil, err
	}

	return s.loadShiftResponse(ctx, shiftID)
}

// ────────────────────── DeleteRecord ──────────────────────

func (s *shiftService) DeleteRecord(ctx context.Context, shiftID, recordID string, callerID, callerRole string) (*dto.ShiftResponse, error) {
	if _, err := s.getOwnedShift(ctx, shiftID, callerID, callerRole); err != nil {
		return nil, err
	}

	rec, err := s.repo.ActivityRecord.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityRecordNotFound
		}
		s.logger.Error("查询活动记录失败", zap.String("id", recordID), zap.Error(err))
		return nil, err
	}
	if rec.ShiftID != shiftID {
		return nil, ErrActivityRecordNotFound
	}

	if err := s.repo.ActivityRecord.Delete(ctx, recordID); err != nil {
		s.logger.Error("删除活动记录失败", zap.String("id", recordID), zap.Error(err))
		return nil, err
	}

	return s.loadShiftResponse(ctx, shiftID)
}

// ── 内部辅助方法 ──

// getOwnedShift 加载班次并校验访问权（本人或 admin）
func (s *shiftService) getOwnedShift(ctx context.Context, id, callerID, callerRole string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if shift.UserID != callerID && callerRole != "admin" {
		return nil, ErrNoPermission
	}
	return shift, nil
}

func (s *shiftService) loadShiftResponse(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("重新加载班次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toShiftResponse(shift), nil
}

func (s *shiftService) toShiftResponse(shift *model.Shift) *dto.ShiftResponse {
	return buildShiftResponse(s.engine, shift)
}

// buildShiftResponse 将 model.Shift 转换为响应，指标由归并引擎现算
func buildShiftResponse(engine *metric.Engine, shift *model.Shift) *dto.ShiftResponse {
	reduced := engine.ReduceShift(buildShiftInput(shift))

	records := make([]dto.ActivityRecordResponse, 0, len(shift.Records))
	for i := range shift.Records {
		rec := &shift.Records[i]
		records = append(records, dto.ActivityRecordResponse{
			ID:           rec.RecordID,
			ActivityType: rec.ActivityType,
			SubType:      rec.SubType,
			Location:     rec.Location,
			Equipment:    rec.Equipment,
			Fields:       map[string]string(rec.Fields),
			SortOrder:    rec.SortOrder,
		})
	}

	return &dto.ShiftResponse{
		ID:                shift.ShiftID,
		UserID:            shift.UserID,
		Date:              shift.DateKey(),
		ShiftType:         shift.ShiftType,
		Source:            shift.Source,
		Notes:             shift.Notes,
		Records:           records,
		Metrics:           metricsToMap(reduced.Metrics),
		HasActivityDetail: reduced.HasActivityDetail,
		Version:           shift.Version,
		CreatedAt:         shift.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:         shift.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// buildShiftInput 将班次模型转换为归并引擎输入
func buildShiftInput(shift *model.Shift) metric.ShiftInput {
	in := metric.ShiftInput{
		ID:        shift.ShiftID,
		Date:      shift.DateKey(),
		ShiftType: shift.ShiftType,
		Totals:    map[string]string(shift.Totals),
	}
	for i := range shift.Records {
		rec := &shift.Records[i]
		in.Records = append(in.Records, metric.Record{
			ActivityType: rec.ActivityType,
			SubType:      rec.SubType,
			Location:     rec.Location,
			Equipment:    rec.Equipment,
			Fields:       map[string]string(rec.Fields),
		})
	}
	return in
}

// buildActivityRecords 将请求体转换为活动记录模型，SortOrder 按输入顺序
func buildActivityRecords(shiftID string, reqs []dto.ActivityRecordRequest, callerID string) []model.ActivityRecord {
	records := make([]model.ActivityRecord, 0, len(reqs))
	for i := range reqs {
		rec := model.ActivityRecord{
			ShiftID:      shiftID,
			ActivityType: reqs[i].ActivityType,
			SubType:      reqs[i].SubType,
			Location:     reqs[i].Location,
			Equipment:    reqs[i].Equipment,
			Fields:       model.JSONMap(reqs[i].Fields),
			SortOrder:    i,
		}
		rec.CreatedBy = &callerID
		rec.UpdatedBy = &callerID
		records = append(records, rec)
	}
	return records
}

// metricsToMap 将指标表转换为 JSON 友好的 string 键
func metricsToMap(m map[metric.Metric]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// parseShiftRange 解析日期范围；单边缺省时以极值补齐
func parseShiftRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2999, 12, 31, 0, 0, 0, 0, time.UTC)
	var err error
	if fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return time.Time{}, time.Time{}, ErrShiftDateInvalid
		}
	}
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return time.Time{}, time.Time{}, ErrShiftDateInvalid
		}
	}
	return from, to, nil
}
