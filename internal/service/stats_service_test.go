package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/metric"
	"minelog/backend/internal/model"
	"minelog/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestStatsService() (StatsService, *mockUserRepo, *mockShiftRepo, *mockActivityRecordRepo, *mockConnectionRepo) {
	userRepo := newMockUserRepo()
	recordRepo := newMockActivityRecordRepo()
	shiftRepo := newMockShiftRepo(recordRepo)
	connRepo := newMockConnectionRepo(userRepo)
	repo := &repository.Repository{
		User:           userRepo,
		Site:           newMockSiteRepo(),
		InviteCode:     newMockInviteCodeRepo(),
		Shift:          shiftRepo,
		ActivityRecord: recordRepo,
		Connection:     connRepo,
	}
	svc := NewStatsService(repo, metric.Default(), nil, zap.NewNop())
	return svc, userRepo, shiftRepo, recordRepo, connRepo
}

// seedStatsShift 直接向仓库写入一条班次及其活动记录
func seedStatsShift(t *testing.T, shiftRepo *mockShiftRepo, recordRepo *mockActivityRecordRepo, userID, date, shiftType string, totals map[string]string, records ...model.ActivityRecord) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("测试日期无效: %v", err)
	}
	shift := &model.Shift{
		UserID:    userID,
		SiteID:    "valid-site-id",
		Date:      day,
		ShiftType: shiftType,
		Source:    model.ShiftSourceManual,
		Totals:    model.JSONMap(totals),
	}
	if err := shiftRepo.Create(nil, shift); err != nil {
		t.Fatalf("写入班次失败: %v", err)
	}
	for i := range records {
		records[i].ShiftID = shift.ShiftID
		records[i].SortOrder = i
		if err := recordRepo.Create(nil, &records[i]); err != nil {
			t.Fatalf("写入活动记录失败: %v", err)
		}
	}
}

func haulingActivity(trucks, weight string) model.ActivityRecord {
	return model.ActivityRecord{
		ActivityType: "hauling",
		Fields:       model.JSONMap{"trucks": trucks, "weight": weight},
	}
}

func findMetricSummary(t *testing.T, metrics []dto.MetricSummaryResponse, name string) dto.MetricSummaryResponse {
	for _, m := range metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("汇总中未找到指标 %s", name)
	return dto.MetricSummaryResponse{}
}

// ── Summary 测试 ──

func TestStatsService_Summary_Success(t *testing.T) {
	svc, _, shiftRepo, recordRepo, _ := setupTestStatsService()
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-01", "day", nil, haulingActivity("4", "30"))
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-02", "day", nil, haulingActivity("6", "30"))
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-02", "night", nil, haulingActivity("2", "30"))

	result, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		From: "2026-03-01",
		To:   "2026-03-31",
	}, "uid-001", "miner")

	if err != nil {
		t.Fatalf("Summary 应成功: %v", err)
	}
	if result.UserID != "uid-001" {
		t.Errorf("期望 UserID=uid-001，实际=%s", result.UserID)
	}
	if result.From != "2026-03-01" || result.To != "2026-03-31" {
		t.Errorf("区间应原样返回，实际=%s..%s", result.From, result.To)
	}
	if len(result.Shifts) != 3 {
		t.Fatalf("期望3条班次分解，实际=%d", len(result.Shifts))
	}
	// 升序排列，首条为最早班次
	if result.Shifts[0].Date != "2026-03-01" {
		t.Errorf("期望首条班次为 2026-03-01，实际=%s", result.Shifts[0].Date)
	}
	if result.Shifts[0].Metrics["truck_loads"] != 4 {
		t.Errorf("期望首条 truck_loads=4，实际=%v", result.Shifts[0].Metrics["truck_loads"])
	}
	if !result.Shifts[0].HasActivityDetail {
		t.Error("有活动明细时 HasActivityDetail 应为 true")
	}

	if len(result.ActivityRollup) != 1 {
		t.Fatalf("期望1个活动分项，实际=%d", len(result.ActivityRollup))
	}
	if result.ActivityRollup[0].ActivityType != "hauling" {
		t.Errorf("期望活动分项为 hauling，实际=%s", result.ActivityRollup[0].ActivityType)
	}

	loads := findMetricSummary(t, result.Metrics, "truck_loads")
	if loads.PeriodTotal != 12 {
		t.Errorf("期望 truck_loads 区间合计=12，实际=%v", loads.PeriodTotal)
	}
	// 03-02 昼夜两班按日历日合并为 8
	if loads.BestDay.Total != 8 || loads.BestDay.Date != "2026-03-02" {
		t.Errorf("期望最佳单日 8@2026-03-02，实际 %v@%s", loads.BestDay.Total, loads.BestDay.Date)
	}
	if loads.BestWeek.Total != 12 {
		t.Errorf("期望最佳七日=12，实际=%v", loads.BestWeek.Total)
	}
	if loads.BestWeek.End != "2026-03-02" || loads.BestWeek.Start != "2026-02-24" {
		t.Errorf("期望最佳七日窗口 2026-02-24..2026-03-02，实际 %s..%s", loads.BestWeek.Start, loads.BestWeek.End)
	}
	if loads.BestMonth.Total != 12 || loads.BestMonth.Month != "2026-03" {
		t.Errorf("期望最佳月 12@2026-03，实际 %v@%s", loads.BestMonth.Total, loads.BestMonth.Month)
	}
	if loads.ShiftCompare.Winner != "day" {
		t.Errorf("期望昼班胜出，实际=%s", loads.ShiftCompare.Winner)
	}
	if loads.ShiftCompare.DayAverage != 5 || loads.ShiftCompare.NightAverage != 2 {
		t.Errorf("期望昼/夜均值 5/2，实际 %v/%v", loads.ShiftCompare.DayAverage, loads.ShiftCompare.NightAverage)
	}
	if loads.ShiftCompare.DayCount != 2 || loads.ShiftCompare.NightCount != 1 {
		t.Errorf("期望昼/夜班数 2/1，实际 %d/%d", loads.ShiftCompare.DayCount, loads.ShiftCompare.NightCount)
	}

	// 区间内无数据的指标输出零值里程碑
	fired := findMetricSummary(t, result.Metrics, "tonnes_fired")
	if fired.PeriodTotal != 0 {
		t.Errorf("期望 tonnes_fired 合计=0，实际=%v", fired.PeriodTotal)
	}
	if fired.BestDay.Date != "2026-03-01" {
		t.Errorf("零值里程碑日期应回落到区间起点，实际=%s", fired.BestDay.Date)
	}
	if fired.ShiftCompare.Winner != "tie" {
		t.Errorf("零值时期望 Winner=tie，实际=%s", fired.ShiftCompare.Winner)
	}
}

func TestStatsService_Summary_DefaultRange(t *testing.T) {
	svc, _, shiftRepo, recordRepo, _ := setupTestStatsService()
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-01", "day", nil, haulingActivity("4", "30"))
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-05", "day", nil, haulingActivity("6", "30"))

	result, err := svc.Summary(context.Background(), &dto.SummaryRequest{}, "uid-001", "miner")
	if err != nil {
		t.Fatalf("Summary 应成功: %v", err)
	}
	// 缺省边界：from 取最早观测日，to 取今天
	if result.From != "2026-03-01" {
		t.Errorf("期望 From=2026-03-01，实际=%s", result.From)
	}
	if result.To != time.Now().Format("2006-01-02") {
		t.Errorf("期望 To=今天，实际=%s", result.To)
	}
	if len(result.Shifts) != 2 {
		t.Errorf("期望2条班次，实际=%d", len(result.Shifts))
	}
}

func TestStatsService_Summary_TotalsFallback(t *testing.T) {
	svc, _, shiftRepo, recordRepo, _ := setupTestStatsService()
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-01", "day",
		map[string]string{"hauled tonnes": "250"})

	result, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		From: "2026-03-01",
		To:   "2026-03-01",
	}, "uid-001", "miner")

	if err != nil {
		t.Fatalf("Summary 应成功: %v", err)
	}
	if len(result.Shifts) != 1 {
		t.Fatalf("期望1条班次，实际=%d", len(result.Shifts))
	}
	if result.Shifts[0].HasActivityDetail {
		t.Error("仅有汇总时 HasActivityDetail 应为 false")
	}
	hauled := findMetricSummary(t, result.Metrics, "tonnes_hauled")
	if hauled.PeriodTotal != 250 {
		t.Errorf("期望汇总回退 tonnes_hauled=250，实际=%v", hauled.PeriodTotal)
	}
	if len(result.ActivityRollup) != 0 {
		t.Errorf("无活动记录时分项应为空，实际=%d", len(result.ActivityRollup))
	}
}

func TestStatsService_Summary_SubjectNotFound(t *testing.T) {
	svc, _, _, _, _ := setupTestStatsService()

	_, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		UserID: "ghost-user",
	}, "uid-001", "miner")

	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestStatsService_Summary_NotMate(t *testing.T) {
	svc, userRepo, _, _, _ := setupTestStatsService()
	createTestUserForUserSvc(userRepo, "uid-002", "M1002", "李四", "miner", "valid-site-id")

	_, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		UserID: "uid-002",
	}, "uid-001", "miner")

	if !errors.Is(err, ErrStatsNotMate) {
		t.Errorf("期望 ErrStatsNotMate，实际: %v", err)
	}
}

func TestStatsService_Summary_PendingNotEnough(t *testing.T) {
	svc, userRepo, _, _, connRepo := setupTestStatsService()
	createTestUserForUserSvc(userRepo, "uid-002", "M1002", "李四", "miner", "valid-site-id")
	_ = connRepo.Create(nil, &model.Connection{
		RequesterID: "uid-001", AddresseeID: "uid-002", Status: model.ConnectionPending,
	})

	_, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		UserID: "uid-002",
	}, "uid-001", "miner")

	if !errors.Is(err, ErrStatsNotMate) {
		t.Errorf("待处理的申请不应放行，期望 ErrStatsNotMate，实际: %v", err)
	}
}

func TestStatsService_Summary_MateAllowed(t *testing.T) {
	svc, userRepo, shiftRepo, recordRepo, connRepo := setupTestStatsService()
	createTestUserForUserSvc(userRepo, "uid-002", "M1002", "李四", "miner", "valid-site-id")
	_ = connRepo.Create(nil, &model.Connection{
		RequesterID: "uid-001", AddresseeID: "uid-002", Status: model.ConnectionAccepted,
	})
	seedStatsShift(t, shiftRepo, recordRepo, "uid-002", "2026-03-01", "day", nil, haulingActivity("3", "30"))

	result, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		UserID: "uid-002",
		From:   "2026-03-01",
		To:     "2026-03-01",
	}, "uid-001", "miner")

	if err != nil {
		t.Fatalf("互认工友应可查看: %v", err)
	}
	if result.UserID != "uid-002" {
		t.Errorf("期望 UserID=uid-002，实际=%s", result.UserID)
	}
	loads := findMetricSummary(t, result.Metrics, "truck_loads")
	if loads.PeriodTotal != 3 {
		t.Errorf("期望 truck_loads=3，实际=%v", loads.PeriodTotal)
	}
}

func TestStatsService_Summary_AdminBypass(t *testing.T) {
	svc, userRepo, _, _, _ := setupTestStatsService()
	createTestUserForUserSvc(userRepo, "uid-002", "M1002", "李四", "miner", "valid-site-id")

	// admin 无需互认关系
	if _, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		UserID: "uid-002",
	}, "admin-uid", "admin"); err != nil {
		t.Errorf("admin 查看任意用户应成功: %v", err)
	}
}

func TestStatsService_Summary_RangeInvalid(t *testing.T) {
	svc, _, _, _, _ := setupTestStatsService()

	if _, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		From: "2026-03-10", To: "2026-03-01",
	}, "uid-001", "miner"); !errors.Is(err, ErrStatsRangeInvalid) {
		t.Errorf("起始晚于结束期望 ErrStatsRangeInvalid，实际: %v", err)
	}

	if _, err := svc.Summary(context.Background(), &dto.SummaryRequest{
		From: "03/01/2026",
	}, "uid-001", "miner"); !errors.Is(err, ErrStatsRangeInvalid) {
		t.Errorf("格式错误期望 ErrStatsRangeInvalid，实际: %v", err)
	}
}

// ── Series 测试 ──

func TestStatsService_Series_Raw(t *testing.T) {
	svc, _, shiftRepo, recordRepo, _ := setupTestStatsService()
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-01", "day", nil, haulingActivity("4", "30"))
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-05", "day", nil, haulingActivity("6", "30"))

	result, err := svc.Series(context.Background(), &dto.SeriesRequest{
		From: "2026-03-01",
		To:   "2026-03-03",
	}, "uid-001")

	if err != nil {
		t.Fatalf("Series 应成功: %v", err)
	}
	if result.UserID != "uid-001" {
		t.Errorf("期望 UserID=uid-001，实际=%s", result.UserID)
	}
	if len(result.Shifts) != 1 {
		t.Fatalf("期望区间内1条班次，实际=%d", len(result.Shifts))
	}
	// 原始活动记录与推导指标一并返回
	if len(result.Shifts[0].Records) != 1 {
		t.Fatalf("期望1条活动记录，实际=%d", len(result.Shifts[0].Records))
	}
	if result.Shifts[0].Records[0].Fields["trucks"] != "4" {
		t.Errorf("期望原始字段 trucks=4，实际=%v", result.Shifts[0].Records[0].Fields["trucks"])
	}
	if result.Shifts[0].Metrics["truck_loads"] != 4 {
		t.Errorf("期望 truck_loads=4，实际=%v", result.Shifts[0].Metrics["truck_loads"])
	}
}

// ── ListMetrics 测试 ──

func TestStatsService_ListMetrics(t *testing.T) {
	svc, _, _, _, _ := setupTestStatsService()

	result := svc.ListMetrics()
	if len(result) != 20 {
		t.Fatalf("期望20个指标，实际=%d", len(result))
	}
	if result[0].Name != "ground_support_metres" {
		t.Errorf("期望首个指标为 ground_support_metres，实际=%s", result[0].Name)
	}
	found := false
	for _, m := range result {
		if m.Name == "truck_loads" {
			found = true
			if m.Label != "Truck loads" {
				t.Errorf("期望 truck_loads 展示名为 Truck loads，实际=%s", m.Label)
			}
		}
	}
	if !found {
		t.Error("指标清单应包含 truck_loads")
	}
}

// ── Network 测试 ──

// seedNetworkData 构建互认网络：主体 uid-001，互认工友 uid-002 / uid-003，
// uid-004 仅有待处理申请（不参与任何统计）
func seedNetworkData(t *testing.T, userRepo *mockUserRepo, shiftRepo *mockShiftRepo, recordRepo *mockActivityRecordRepo, connRepo *mockConnectionRepo) {
	createTestUserForUserSvc(userRepo, "uid-001", "M1001", "张三", "miner", "valid-site-id")
	createTestUserForUserSvc(userRepo, "uid-002", "M1002", "李四", "miner", "valid-site-id")
	createTestUserForUserSvc(userRepo, "uid-003", "M1003", "王五", "miner", "valid-site-id")
	createTestUserForUserSvc(userRepo, "uid-004", "M1004", "赵六", "miner", "valid-site-id")

	_ = connRepo.Create(nil, &model.Connection{RequesterID: "uid-001", AddresseeID: "uid-002", Status: model.ConnectionAccepted})
	_ = connRepo.Create(nil, &model.Connection{RequesterID: "uid-003", AddresseeID: "uid-001", Status: model.ConnectionAccepted})
	_ = connRepo.Create(nil, &model.Connection{RequesterID: "uid-001", AddresseeID: "uid-004", Status: model.ConnectionPending})

	// 主体：03-01 昼夜两班，03-02 一班
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-01", "day", nil, haulingActivity("4", "30"))
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-01", "night", nil, haulingActivity("3", "30"))
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-03-02", "day", nil, haulingActivity("6", "30"))
	// 工友
	seedStatsShift(t, shiftRepo, recordRepo, "uid-002", "2026-03-01", "day", nil, haulingActivity("2", "30"))
	seedStatsShift(t, shiftRepo, recordRepo, "uid-002", "2026-03-03", "day", nil, haulingActivity("8", "30"))
	seedStatsShift(t, shiftRepo, recordRepo, "uid-003", "2026-03-02", "day", nil, haulingActivity("10", "30"))
	// 未互认用户的班次不应出现在任何数字里
	seedStatsShift(t, shiftRepo, recordRepo, "uid-004", "2026-03-01", "day", nil, haulingActivity("100", "30"))
}

func TestStatsService_Network_UnknownMetric(t *testing.T) {
	svc, _, _, _, _ := setupTestStatsService()

	_, err := svc.Network(context.Background(), &dto.NetworkRequest{Metric: "bogus"}, "uid-001")
	if !errors.Is(err, ErrMetricUnknown) {
		t.Fatalf("期望 ErrMetricUnknown，实际: %v", err)
	}
	// 错误消息携带完整合法指标清单
	if !strings.Contains(err.Error(), "truck_loads") {
		t.Errorf("错误消息应包含合法指标名，实际: %s", err.Error())
	}
}

func TestStatsService_Network_MetricCheckedFirst(t *testing.T) {
	svc, _, _, _, _ := setupTestStatsService()

	// 指标与日期同时非法时，先报指标错误
	_, err := svc.Network(context.Background(), &dto.NetworkRequest{
		Metric: "bogus", From: "not-a-date",
	}, "uid-001")
	if !errors.Is(err, ErrMetricUnknown) {
		t.Errorf("期望 ErrMetricUnknown，实际: %v", err)
	}
}

func TestStatsService_Network_RangeInvalid(t *testing.T) {
	svc, _, _, _, _ := setupTestStatsService()

	if _, err := svc.Network(context.Background(), &dto.NetworkRequest{
		Metric: "truck_loads", From: "03/01/2026",
	}, "uid-001"); !errors.Is(err, ErrStatsRangeInvalid) {
		t.Errorf("格式错误期望 ErrStatsRangeInvalid，实际: %v", err)
	}

	if _, err := svc.Network(context.Background(), &dto.NetworkRequest{
		Metric: "truck_loads", From: "2026-03-10", To: "2026-03-01",
	}, "uid-001"); !errors.Is(err, ErrStatsRangeInvalid) {
		t.Errorf("起始晚于结束期望 ErrStatsRangeInvalid，实际: %v", err)
	}
}

func TestStatsService_Network_CompareNotMate(t *testing.T) {
	svc, userRepo, shiftRepo, recordRepo, connRepo := setupTestStatsService()
	seedNetworkData(t, userRepo, shiftRepo, recordRepo, connRepo)

	// uid-004 只有待处理申请，不在互认集合内
	_, err := svc.Network(context.Background(), &dto.NetworkRequest{
		Metric: "truck_loads", Compare: "uid-004",
	}, "uid-001")
	if !errors.Is(err, ErrStatsNotMate) {
		t.Errorf("期望 ErrStatsNotMate，实际: %v", err)
	}
}

func TestStatsService_Network_Timeline(t *testing.T) {
	svc, userRepo, shiftRepo, recordRepo, connRepo := setupTestStatsService()
	seedNetworkData(t, userRepo, shiftRepo, recordRepo, connRepo)

	result, err := svc.Network(context.Background(), &dto.NetworkRequest{
		Metric: "truck_loads", From: "2026-03-01", To: "2026-03-03",
	}, "uid-001")

	if err != nil {
		t.Fatalf("Network 应成功: %v", err)
	}
	if result.Metric != "truck_loads" || result.Label != "Truck loads" {
		t.Errorf("期望指标 truck_loads/Truck loads，实际 %s/%s", result.Metric, result.Label)
	}
	if result.From != "2026-03-01" || result.To != "2026-03-03" {
		t.Errorf("区间应原样返回，实际=%s..%s", result.From, result.To)
	}

	if len(result.Timeline) != 3 {
		t.Fatalf("期望3个时间线点，实际=%d", len(result.Timeline))
	}
	// 03-01：主体昼夜合并 7，在场工友仅 uid-002（2）
	p := result.Timeline[0]
	if p.Date != "2026-03-01" || p.Subject != 7 {
		t.Errorf("期望 03-01 主体=7，实际 %s 主体=%v", p.Date, p.Subject)
	}
	if p.PeerAverage != 2 || p.PeerBest != 2 {
		t.Errorf("期望 03-01 工友均值/最佳 2/2，实际 %v/%v", p.PeerAverage, p.PeerBest)
	}
	if p.Compare != nil {
		t.Error("未指定对比工友时 Compare 应为 nil")
	}
	// 03-02：主体 6，在场工友仅 uid-003（10）
	p = result.Timeline[1]
	if p.Subject != 6 || p.PeerAverage != 10 || p.PeerBest != 10 {
		t.Errorf("期望 03-02 主体/均值/最佳 6/10/10，实际 %v/%v/%v", p.Subject, p.PeerAverage, p.PeerBest)
	}
	// 03-03：主体缺席按 0，在场工友仅 uid-002（8）
	p = result.Timeline[2]
	if p.Subject != 0 || p.PeerAverage != 8 || p.PeerBest != 8 {
		t.Errorf("期望 03-03 主体/均值/最佳 0/8/8，实际 %v/%v/%v", p.Subject, p.PeerAverage, p.PeerBest)
	}

	// 排行榜：合计 13 > 10 = 10，同分靠活跃日均值分胜负
	if len(result.Standings) != 3 {
		t.Fatalf("期望3行排名，实际=%d", len(result.Standings))
	}
	first := result.Standings[0]
	if first.UserID != "uid-001" || first.Rank != 1 || !first.IsSubject {
		t.Errorf("期望第1名为主体 uid-001，实际 %s rank=%d", first.UserID, first.Rank)
	}
	if first.Name != "张三" {
		t.Errorf("期望第1名姓名为张三，实际=%s", first.Name)
	}
	if first.PeriodTotal != 13 || first.ActiveAverage != 6.5 || first.AllTimeBest != 7 {
		t.Errorf("期望主体 13/6.5/7，实际 %v/%v/%v", first.PeriodTotal, first.ActiveAverage, first.AllTimeBest)
	}
	if result.Standings[1].UserID != "uid-003" || result.Standings[2].UserID != "uid-002" {
		t.Errorf("期望同分时日均值高者在前（uid-003 > uid-002），实际 %s, %s",
			result.Standings[1].UserID, result.Standings[2].UserID)
	}
	for _, st := range result.Standings {
		if st.UserID == "uid-004" {
			t.Error("未互认用户不应出现在排行榜")
		}
	}

	if result.Subject.PeriodTotal != 13 || result.Subject.ActiveAverage != 6.5 || result.Subject.AllTimeBest != 7 {
		t.Errorf("期望主体概要 13/6.5/7，实际 %v/%v/%v",
			result.Subject.PeriodTotal, result.Subject.ActiveAverage, result.Subject.AllTimeBest)
	}
}

func TestStatsService_Network_CompareView(t *testing.T) {
	svc, userRepo, shiftRepo, recordRepo, connRepo := setupTestStatsService()
	seedNetworkData(t, userRepo, shiftRepo, recordRepo, connRepo)

	result, err := svc.Network(context.Background(), &dto.NetworkRequest{
		Metric: "truck_loads", From: "2026-03-01", To: "2026-03-03", Compare: "uid-002",
	}, "uid-001")

	if err != nil {
		t.Fatalf("Network 应成功: %v", err)
	}
	// 对比工友单列呈现，不再计入当日均值与最佳
	p := result.Timeline[0]
	if p.Compare == nil || *p.Compare != 2 {
		t.Fatalf("期望 03-01 对比值=2，实际=%v", p.Compare)
	}
	if p.PeerAverage != 0 || p.PeerBest != 0 {
		t.Errorf("对比工友移出后 03-01 应无在场工友，实际 %v/%v", p.PeerAverage, p.PeerBest)
	}
	if result.Timeline[1].Compare != nil {
		t.Error("对比工友 03-02 缺席，Compare 应为 nil")
	}
	if c := result.Timeline[2].Compare; c == nil || *c != 8 {
		t.Errorf("期望 03-03 对比值=8，实际=%v", c)
	}
	// 对比工友仍保留在排行榜中
	if len(result.Standings) != 3 {
		t.Errorf("期望3行排名，实际=%d", len(result.Standings))
	}
}

func TestStatsService_Network_AllTimeBestUnbounded(t *testing.T) {
	svc, userRepo, shiftRepo, recordRepo, connRepo := setupTestStatsService()
	seedNetworkData(t, userRepo, shiftRepo, recordRepo, connRepo)
	// 区间外的历史最佳
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-01-15", "day", nil, haulingActivity("50", "30"))

	result, err := svc.Network(context.Background(), &dto.NetworkRequest{
		Metric: "truck_loads", From: "2026-03-01", To: "2026-03-03",
	}, "uid-001")

	if err != nil {
		t.Fatalf("Network 应成功: %v", err)
	}
	if result.Subject.PeriodTotal != 13 {
		t.Errorf("区间合计不应包含区间外班次，期望 13，实际=%v", result.Subject.PeriodTotal)
	}
	if result.Subject.AllTimeBest != 50 {
		t.Errorf("历史最佳不受区间限制，期望 50，实际=%v", result.Subject.AllTimeBest)
	}
}

func TestStatsService_Network_DefaultRange(t *testing.T) {
	svc, userRepo, shiftRepo, recordRepo, connRepo := setupTestStatsService()
	seedNetworkData(t, userRepo, shiftRepo, recordRepo, connRepo)
	seedStatsShift(t, shiftRepo, recordRepo, "uid-001", "2026-01-15", "day", nil, haulingActivity("50", "30"))

	result, err := svc.Network(context.Background(), &dto.NetworkRequest{Metric: "truck_loads"}, "uid-001")
	if err != nil {
		t.Fatalf("Network 应成功: %v", err)
	}
	// 缺省边界：from 取全体参与者的最早观测日，to 取今天
	if result.From != "2026-01-15" {
		t.Errorf("期望 From=2026-01-15，实际=%s", result.From)
	}
	if result.To != time.Now().Format("2006-01-02") {
		t.Errorf("期望 To=今天，实际=%s", result.To)
	}
}
