package dto

// ── 统计模块 DTO ──

// SummaryRequest 指标汇总查询参数
// UserID 缺省为当前用户，查看他人需为已互认工友；
// From/To 缺省时按全部历史统计
type SummaryRequest struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	From   string `form:"from"    binding:"omitempty"` // "2026-03-01"
	To     string `form:"to"      binding:"omitempty"`
}

// ShiftMetricsResponse 单班次指标分解
type ShiftMetricsResponse struct {
	ID                string             `json:"id"`
	Date              string             `json:"date"`
	ShiftType         string             `json:"shift_type"`
	HasActivityDetail bool               `json:"has_activity_detail"`
	Metrics           map[string]float64 `json:"metrics"`
}

// FieldTotalResponse 字段汇总条目
type FieldTotalResponse struct {
	Field string  `json:"field"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// SubTypeRollupResponse 子类型分项汇总
type SubTypeRollupResponse struct {
	SubType string               `json:"sub_type"`
	Fields  []FieldTotalResponse `json:"fields"`
}

// ActivityRollupResponse 活动类型分项汇总
type ActivityRollupResponse struct {
	ActivityType string                  `json:"activity_type"`
	SubTypes     []SubTypeRollupResponse `json:"sub_types"`
}

// BestDayResponse 历史最佳单日
type BestDayResponse struct {
	Total float64 `json:"total"`
	Date  string  `json:"date"`
}

// BestWeekResponse 历史最佳连续七日
type BestWeekResponse struct {
	Total float64 `json:"total"`
	Start string  `json:"start"`
	End   string  `json:"end"`
}

// BestMonthResponse 历史最佳自然月
type BestMonthResponse struct {
	Total float64 `json:"total"`
	Month string  `json:"month"` // "2026-03"
}

// ShiftCompareResponse 昼夜班对比
type ShiftCompareResponse struct {
	Winner       string  `json:"winner"` // day / night / tie
	DayAverage   float64 `json:"day_average"`
	NightAverage float64 `json:"night_average"`
	DayCount     int     `json:"day_count"`
	NightCount   int     `json:"night_count"`
}

// MetricSummaryResponse 单指标里程碑汇总
type MetricSummaryResponse struct {
	Name         string               `json:"name"`
	Label        string               `json:"label"`
	PeriodTotal  float64              `json:"period_total"`
	BestDay      BestDayResponse      `json:"best_day"`
	BestWeek     BestWeekResponse     `json:"best_week"`
	BestMonth    BestMonthResponse    `json:"best_month"`
	ShiftCompare ShiftCompareResponse `json:"shift_compare"`
}

// SummaryResponse 指标汇总响应
type SummaryResponse struct {
	UserID         string                   `json:"user_id"`
	From           string                   `json:"from"`
	To             string                   `json:"to"`
	Shifts         []ShiftMetricsResponse   `json:"shifts"`
	ActivityRollup []ActivityRollupResponse `json:"activity_rollup"`
	Metrics        []MetricSummaryResponse  `json:"metrics"`
}

// SeriesRequest 原始班次序列查询参数（仅限本人）
type SeriesRequest struct {
	From string `form:"from" binding:"omitempty"`
	To   string `form:"to"   binding:"omitempty"`
}

// SeriesResponse 原始班次序列响应
// 返回区间内的完整班次与活动记录，供客户端按位置等维度自行细分
type SeriesResponse struct {
	UserID string          `json:"user_id"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Shifts []ShiftResponse `json:"shifts"`
}

// NetworkRequest 互联网络时间线查询参数
// Compare 指定一位已互认的工友单列对比
type NetworkRequest struct {
	Metric  string `form:"metric"  binding:"required"`
	From    string `form:"from"    binding:"omitempty"`
	To      string `form:"to"      binding:"omitempty"`
	Compare string `form:"compare" binding:"omitempty,uuid"`
}

// SubjectStatsResponse 主体本人概要
type SubjectStatsResponse struct {
	AllTimeBest   float64 `json:"all_time_best"`
	PeriodTotal   float64 `json:"period_total"`
	ActiveAverage float64 `json:"active_average"`
}

// TimelinePointResponse 网络时间线单点
type TimelinePointResponse struct {
	Date        string   `json:"date"`
	Subject     float64  `json:"subject"`
	PeerAverage float64  `json:"peer_average"`
	PeerBest    float64  `json:"peer_best"`
	Compare     *float64 `json:"compare,omitempty"`
}

// StandingResponse 排名条目
type StandingResponse struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	IsSubject     bool    `json:"is_subject"`
	PeriodTotal   float64 `json:"period_total"`
	ActiveAverage float64 `json:"active_average"`
	AllTimeBest   float64 `json:"all_time_best"`
}

// NetworkResponse 互联网络时间线响应
type NetworkResponse struct {
	Metric    string                  `json:"metric"`
	Label     string                  `json:"label"`
	From      string                  `json:"from"`
	To        string                  `json:"to"`
	Subject   SubjectStatsResponse    `json:"subject"`
	Timeline  []TimelinePointResponse `json:"timeline"`
	Standings []StandingResponse      `json:"standings"`
}

// MetricInfoResponse 指标元信息
type MetricInfoResponse struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}
