package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/metric"
	"minelog/backend/internal/model"
	"minelog/backend/internal/repository"
	"minelog/backend/pkg/metrics"
)

// ── 统计模块业务错误 ──

var (
	// ErrMetricUnknown 的消息携带完整合法指标名清单，便于客户端自纠
	ErrMetricUnknown     = errors.New("未知指标，允许的指标为: " + strings.Join(metric.VocabularyNames(), ", "))
	ErrStatsNotMate      = errors.New("仅可查看已互认工友的数据")
	ErrStatsRangeInvalid = errors.New("日期范围无效，应为 yyyy-MM-dd 且起始不晚于结束")
)

// StatsService 统计业务接口
type StatsService interface {
	Summary(ctx context.Context, req *dto.SummaryRequest, callerID, callerRole string) (*dto.SummaryResponse, error)
	Series(ctx context.Context, req *dto.SeriesRequest, callerID string) (*dto.SeriesResponse, error)
	Network(ctx context.Context, req *dto.NetworkRequest, callerID string) (*dto.NetworkResponse, error)
	ListMetrics() []dto.MetricInfoResponse
}

type statsService struct {
	repo   *repository.Repository
	engine *metric.Engine
	mtr    *metrics.Metrics
	logger *zap.Logger
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(repo *repository.Repository, engine *metric.Engine, mtr *metrics.Metrics, logger *zap.Logger) StatsService {
	return &statsService{repo: repo, engine: engine, mtr: mtr, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Summary — 指标汇总（逐班次分解 + 活动分项 + 全指标里程碑）
// ═══════════════════════════════════════════════════════════
//
// 设计说明：
//   - user_id 缺省为本人；查看他人需为 admin 或已互认工友
//   - from/to 缺省时覆盖全部历史，缺失边界由观测数据推导
//   - 每个词表指标都输出里程碑，区间内无数据的指标为零值

func (s *statsService) Summary(ctx context.Context, req *dto.SummaryRequest, callerID, callerRole string) (*dto.SummaryResponse, error) {
	// 1. 确定统计主体
	subjectID := callerID
	if req.UserID != "" && req.UserID != callerID {
		subjectID = req.UserID

		if _, err := s.repo.User.GetByID(ctx, subjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			s.logger.Error("查询用户失败", zap.Error(err))
			return nil, err
		}
		if err := s.ensureViewable(ctx, callerID, callerRole, subjectID); err != nil {
			return nil, err
		}
	}

	// 2. 加载区间班次
	shifts, from, to, err := loadShiftsForRange(ctx, s.repo.Shift, s.logger, subjectID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	// 3. 逐班次归并
	inputs := make([]metric.ShiftInput, 0, len(shifts))
	for i := range shifts {
		inputs = append(inputs, buildShiftInput(&shifts[i]))
	}
	reduced := s.engine.ReduceShifts(inputs)

	shiftsOut := make([]dto.ShiftMetricsResponse, 0, len(reduced))
	for i := range reduced {
		s.mtr.ShiftReduced(len(shifts[i].Records), !reduced[i].HasActivityDetail)
		shiftsOut = append(shiftsOut, dto.ShiftMetricsResponse{
			ID:                reduced[i].ID,
			Date:              reduced[i].Date,
			ShiftType:         reduced[i].ShiftType,
			HasActivityDetail: reduced[i].HasActivityDetail,
			Metrics:           metricsToMap(reduced[i].Metrics),
		})
	}

	// 4. 活动/子类型/字段三级分项
	var recs []metric.Record
	for i := range inputs {
		recs = append(recs, inputs[i].Records...)
	}
	rollup := toActivityRollupResponses(s.engine.BuildActivityRollup(recs))

	// 5. 全指标里程碑
	days := metric.BuildDailyRollup(reduced)
	vocab := metric.Vocabulary()
	metricsOut := make([]dto.MetricSummaryResponse, 0, len(vocab))
	for _, m := range vocab {
		ms := metric.ComputeMilestone(m, days, reduced, from)

		var periodTotal float64
		for _, p := range metric.SeriesFor(days, m) {
			periodTotal += p.Value
		}

		metricsOut = append(metricsOut, dto.MetricSummaryResponse{
			Name:        string(m),
			Label:       m.Label(),
			PeriodTotal: periodTotal,
			BestDay:     dto.BestDayResponse{Total: ms.BestDay.Total, Date: ms.BestDay.Date},
			BestWeek:    dto.BestWeekResponse{Total: ms.BestWeek.Total, Start: ms.BestWeek.Start, End: ms.BestWeek.End},
			BestMonth:   dto.BestMonthResponse{Total: ms.BestMonth.Total, Month: ms.BestMonth.Month},
			ShiftCompare: dto.ShiftCompareResponse{
				Winner:       ms.ShiftCompare.Winner,
				DayAverage:   ms.ShiftCompare.DayAverage,
				NightAverage: ms.ShiftCompare.NightAverage,
				DayCount:     ms.ShiftCompare.DayCount,
				NightCount:   ms.ShiftCompare.NightCount,
			},
		})
	}

	return &dto.SummaryResponse{
		UserID:         subjectID,
		From:           from,
		To:             to,
		Shifts:         shiftsOut,
		ActivityRollup: rollup,
		Metrics:        metricsOut,
	}, nil
}

// ────────────────────── Series ──────────────────────
//
// 返回本人区间内的原始班次与活动记录，不做指标筛选，
// 位置、设备等维度的细分交给客户端

func (s *statsService) Series(ctx context.Context, req *dto.SeriesRequest, callerID string) (*dto.SeriesResponse, error) {
	shifts, from, to, err := loadShiftsForRange(ctx, s.repo.Shift, s.logger, callerID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		out = append(out, *buildShiftResponse(s.engine, &shifts[i]))
	}

	return &dto.SeriesResponse{
		UserID: callerID,
		From:   from,
		To:     to,
		Shifts: out,
	}, nil
}

// ═══════════════════════════════════════════════════════════
// Network — 工友网络时间线与排行榜
// ═══════════════════════════════════════════════════════════
//
// 设计说明：
//   - 指标名先于任何数据读取校验，未知指标直接拒绝
//   - 参与者 = 本人 + 全部已互认工友；compare 必须在互认集合内
//   - 历史最佳不受区间限制，因此一次取回全部参与者的完整历史

func (s *statsService) Network(ctx context.Context, req *dto.NetworkRequest, callerID string) (*dto.NetworkResponse, error) {
	// 1. 指标校验
	if !metric.IsCanonical(req.Metric) {
		return nil, ErrMetricUnknown
	}
	m := metric.Metric(req.Metric)

	// 2. 区间格式校验（边界可缺省）
	if req.From != "" {
		if _, err := time.Parse("2006-01-02", req.From); err != nil {
			return nil, ErrStatsRangeInvalid
		}
	}
	if req.To != "" {
		if _, err := time.Parse("2006-01-02", req.To); err != nil {
			return nil, ErrStatsRangeInvalid
		}
	}
	if req.From != "" && req.To != "" && req.From > req.To {
		return nil, ErrStatsRangeInvalid
	}

	// 3. 互认工友集合
	peerIDs, err := s.repo.Connection.ListAcceptedPeerIDs(ctx, callerID)
	if err != nil {
		s.logger.Error("查询工友集合失败", zap.Error(err))
		return nil, err
	}

	if req.Compare != "" {
		found := false
		for _, id := range peerIDs {
			if id == req.Compare {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrStatsNotMate
		}
	}

	// 4. 一次取回全部参与者的完整历史
	ownerIDs := append([]string{callerID}, peerIDs...)
	allShifts, err := s.repo.Shift.ListAllByUsers(ctx, ownerIDs)
	if err != nil {
		s.logger.Error("查询参与者班次失败", zap.Error(err))
		return nil, err
	}

	// 5. 缺省边界由观测数据推导
	to := req.To
	if to == "" {
		to = time.Now().Format("2006-01-02")
	}
	from := req.From
	if from == "" {
		from = to
		for i := range allShifts {
			if key := allShifts[i].DateKey(); key < from {
				from = key
			}
		}
	}

	// 6. 归并并按参与者分桶（日值按日历日累加）
	dayValues := make(map[string]map[string]float64, len(ownerIDs))
	allValues := make(map[string]map[string]float64, len(ownerIDs))
	for i := range allShifts {
		r := s.engine.ReduceShift(buildShiftInput(&allShifts[i]))
		uid := allShifts[i].UserID
		key := allShifts[i].DateKey()
		v := r.Metrics[m]

		if allValues[uid] == nil {
			allValues[uid] = make(map[string]float64)
		}
		allValues[uid][key] += v

		if key >= from && key <= to {
			if dayValues[uid] == nil {
				dayValues[uid] = make(map[string]float64)
			}
			dayValues[uid][key] += v
		}
	}

	owners := make([]metric.NetworkOwner, 0, len(ownerIDs))
	for _, uid := range ownerIDs {
		owners = append(owners, metric.NetworkOwner{
			UserID:  uid,
			Days:    dayValues[uid],
			AllTime: allValues[uid],
		})
	}

	// 7. 构建时间线与排行榜
	result := metric.BuildNetworkTimeline(metric.NetworkInput{
		SubjectID: callerID,
		Start:     from,
		End:       to,
		CompareID: req.Compare,
		Owners:    owners,
	})

	// 8. 补充参与者姓名
	nameMap := make(map[string]string, len(ownerIDs))
	if users, err := s.repo.User.ListByIDs(ctx, ownerIDs); err != nil {
		s.logger.Warn("查询参与者信息失败", zap.Error(err))
	} else {
		for i := range users {
			nameMap[users[i].UserID] = users[i].Name
		}
	}

	timeline := make([]dto.TimelinePointResponse, 0, len(result.Timeline))
	for _, p := range result.Timeline {
		timeline = append(timeline, dto.TimelinePointResponse{
			Date:        p.Date,
			Subject:     p.Subject,
			PeerAverage: p.PeerAverage,
			PeerBest:    p.PeerBest,
			Compare:     p.Compare,
		})
	}

	var subject dto.SubjectStatsResponse
	standings := make([]dto.StandingResponse, 0, len(result.Standings))
	for _, st := range result.Standings {
		standings = append(standings, dto.StandingResponse{
			Rank:          st.Rank,
			UserID:        st.UserID,
			Name:          nameMap[st.UserID],
			IsSubject:     st.IsSubject,
			PeriodTotal:   st.PeriodTotal,
			ActiveAverage: st.ActiveAverage,
			AllTimeBest:   st.AllTimeBest,
		})
		if st.IsSubject {
			subject = dto.SubjectStatsResponse{
				AllTimeBest:   st.AllTimeBest,
				PeriodTotal:   st.PeriodTotal,
				ActiveAverage: st.ActiveAverage,
			}
		}
	}

	return &dto.NetworkResponse{
		Metric:    req.Metric,
		Label:     m.Label(),
		From:      from,
		To:        to,
		Subject:   subject,
		Timeline:  timeline,
		Standings: standings,
	}, nil
}

// ────────────────────── ListMetrics ──────────────────────

func (s *statsService) ListMetrics() []dto.MetricInfoResponse {
	vocab := metric.Vocabulary()
	out := make([]dto.MetricInfoResponse, 0, len(vocab))
	for _, m := range vocab {
		out = append(out, dto.MetricInfoResponse{Name: string(m), Label: m.Label()})
	}
	return out
}

// ── 内部辅助方法 ──

// ensureViewable 校验查看他人数据的资格：admin 或已互认工友
func (s *statsService) ensureViewable(ctx context.Context, callerID, callerRole, subjectID string) error {
	if callerRole == "admin" {
		return nil
	}
	conn, err := s.repo.Connection.GetBetween(ctx, callerID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStatsNotMate
		}
		s.logger.Error("查询工友关系失败", zap.Error(err))
		return err
	}
	if conn.Status != model.ConnectionAccepted {
		return ErrStatsNotMate
	}
	return nil
}

// loadShiftsForRange 加载统计区间内的班次并返回解析后的边界。
// 双边齐全时走闭区间查询；任一边缺省时取全部历史后在内存内截取，
// 缺失的 to 取今天，缺失的 from 取最早观测日（无数据时与 to 重合）
func loadShiftsForRange(ctx context.Context, shiftRepo repository.ShiftRepository, logger *zap.Logger, userID, fromStr, toStr string) ([]model.Shift, string, string, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return nil, "", "", ErrStatsRangeInvalid
		}
	}
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return nil, "", "", ErrStatsRangeInvalid
		}
	}

	if fromStr != "" && toStr != "" {
		if from.After(to) {
			return nil, "", "", ErrStatsRangeInvalid
		}
		shifts, err := shiftRepo.ListByUserRange(ctx, userID, from, to)
		if err != nil {
			logger.Error("查询班次失败", zap.Error(err))
			return nil, "", "", err
		}
		return shifts, fromStr, toStr, nil
	}

	all, err := shiftRepo.ListAllByUser(ctx, userID)
	if err != nil {
		logger.Error("查询班次失败", zap.Error(err))
		return nil, "", "", err
	}

	resolvedTo := toStr
	if resolvedTo == "" {
		resolvedTo = time.Now().Format("2006-01-02")
	}
	resolvedFrom := fromStr
	if resolvedFrom == "" {
		resolvedFrom = resolvedTo
		for i := range all {
			if key := all[i].DateKey(); key < resolvedFrom {
				resolvedFrom = key
			}
		}
	}

	filtered := make([]model.Shift, 0, len(all))
	for i := range all {
		key := all[i].DateKey()
		if key >= resolvedFrom && key <= resolvedTo {
			filtered = append(filtered, all[i])
		}
	}
	return filtered, resolvedFrom, resolvedTo, nil
}

// toActivityRollupResponses 将引擎分项汇总转换为响应结构
func toActivityRollupResponses(rollup []metric.ActivityRollup) []dto.ActivityRollupResponse {
	out := make([]dto.ActivityRollupResponse, 0, len(rollup))
	for _, a := range rollup {
		item := dto.ActivityRollupResponse{ActivityType: a.ActivityType}
		for _, st := range a.SubTypes {
			sub := dto.SubTypeRollupResponse{SubType: st.SubType}
			for _, f := range st.Fields {
				sub.Fields = append(sub.Fields, dto.FieldTotalResponse{
					Field: f.Field,
					Total: f.Total,
					Count: f.Count,
				})
			}
			item.SubTypes = append(item.SubTypes, sub)
		}
		out = append(out, item)
	}
	return out
}
