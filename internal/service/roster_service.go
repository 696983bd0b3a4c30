package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/model"
	"minelog/backend/internal/repository"
)

// ── 排班导入模块业务错误 ──

var (
	ErrRosterEmpty       = errors.New("排班日历中没有可导入的班次")
	ErrRosterParseFailed = errors.New("排班日历解析失败")
	ErrRosterFetchFailed = errors.New("排班日历拉取失败")
)

// RosterService 排班日历导入业务接口
//
// 设计说明：
//   - 为矿工预建后续班次骨架（日期+班别），活动明细由矿工下班后补录
//   - 今天之前的条目一律跳过，同日同班别已有班次跳过
//   - 单条写入失败不中断整体导入，失败原因逐条返回
type RosterService interface {
	// ImportRoster 解析 ICS 数据流并为目标用户预建班次
	ImportRoster(ctx context.Context, reader io.Reader, targetUserID, callerID, callerRole, callerSiteID string) (*dto.RosterImportResponse, error)
	// FetchAndImport 按 URL 拉取排班日历后导入
	FetchAndImport(ctx context.Context, url, targetUserID, callerID, callerRole, callerSiteID string) (*dto.RosterImportResponse, error)
}

type rosterService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(repo *repository.Repository, logger *zap.Logger) RosterService {
	return &rosterService{repo: repo, logger: logger}
}

// ────────────────────── ImportRoster ──────────────────────

func (s *rosterService) ImportRoster(ctx context.Context, reader io.Reader, targetUserID, callerID, callerRole, callerSiteID string) (*dto.RosterImportResponse, error) {
	// 1. 确定导入目标
	if targetUserID == "" {
		targetUserID = callerID
	}
	target, err := s.repo.User.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 替他人导入：admin 不限，supervisor 限本矿区
	if targetUserID != callerID {
		switch callerRole {
		case "admin":
		case "supervisor":
			if target.SiteID != callerSiteID {
				return nil, ErrNoPermission
			}
		default:
			return nil, ErrNoPermission
		}
	}

	// 2. 解析日历
	entries, err := ParseRosterICS(reader)
	if err != nil {
		s.logger.Warn("排班日历解析失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRosterParseFailed, err)
	}
	if len(entries) == 0 {
		return nil, ErrRosterEmpty
	}

	// 3. 逐条预建班次
	loc, _ := time.LoadLocation(rosterTimezone)
	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	resp := &dto.RosterImportResponse{Total: len(entries)}
	for _, entry := range entries {
		// 过去的班次不补建
		if entry.Date.Before(today) {
			resp.Skipped++
			continue
		}

		// 同日同班别已有班次（手工或先前导入）跳过
		if _, err := s.repo.Shift.GetByUserDateType(ctx, target.UserID, entry.Date, entry.ShiftType); err == nil {
			resp.Skipped++
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询既有班次失败", zap.String("date", entry.Date.Format("2006-01-02")), zap.Error(err))
			resp.Errors = append(resp.Errors, dto.RosterImportError{
				Event:  describeRosterEntry(entry),
				Reason: "查询既有班次失败",
			})
			continue
		}

		notes := entry.Summary
		if r := []rune(notes); len(r) > 500 {
			notes = string(r[:500])
		}

		shift := &model.Shift{
			UserID:    target.UserID,
			SiteID:    target.SiteID,
			Date:      entry.Date,
			ShiftType: entry.ShiftType,
			Source:    model.ShiftSourceRoster,
			Notes:     notes,
		}
		shift.CreatedBy = &callerID
		shift.UpdatedBy = &callerID

		if err := s.repo.Shift.Create(ctx, shift); err != nil {
			s.logger.Error("预建班次失败", zap.String("date", entry.Date.Format("2006-01-02")), zap.Error(err))
			resp.Errors = append(resp.Errors, dto.RosterImportError{
				Event:  describeRosterEntry(entry),
				Reason: "写入班次失败",
			})
			continue
		}

		resp.Imported++
		resp.Shifts = append(resp.Shifts, dto.RosterShiftItem{
			Date:      entry.Date.Format("2006-01-02"),
			ShiftType: entry.ShiftType,
			Summary:   entry.Summary,
		})
	}

	return resp, nil
}

// ────────────────────── FetchAndImport ──────────────────────

func (s *rosterService) FetchAndImport(ctx context.Context, url, targetUserID, callerID, callerRole, callerSiteID string) (*dto.RosterImportResponse, error) {
	body, err := FetchRosterContent(url)
	if err != nil {
		s.logger.Warn("排班日历拉取失败", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRosterFetchFailed, err)
	}
	defer body.Close()

	return s.ImportRoster(ctx, body, targetUserID, callerID, callerRole, callerSiteID)
}

// ── 内部辅助方法 ──

func describeRosterEntry(e rosterEntry) string {
	if e.Summary != "" {
		return fmt.Sprintf("%s %s", e.Date.Format("2006-01-02"), e.Summary)
	}
	return fmt.Sprintf("%s %s", e.Date.Format("2006-01-02"), e.ShiftType)
}
