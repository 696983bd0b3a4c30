package service

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"minelog/backend/internal/model"
)

// ── 排班日历解析器 ──────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 排班日历解析为班次条目列表。
//
// 设计决策：
//   - SUMMARY 关键词优先判定班别，无关键词时按开工时刻推断
//   - RRULE 仅按 WEEKLY 展开，无界规则的展开上限为今日起 rosterHorizonDays 天
//   - EXDATE 剔除对应日期的展开结果
//   - 同日同班别的重复事件去重，仅保留首个
// ─────────────────────────────────────────────────────────────

const (
	rosterMaxFileSize  = 5 * 1024 * 1024 // 5MB
	rosterFetchTimeout = 30 * time.Second
	rosterTimezone     = "Asia/Shanghai"
	rosterHorizonDays  = 120
)

// rosterEntry ICS 解析中间结构
type rosterEntry struct {
	Date      time.Time // UTC 零点，仅日历日有意义
	ShiftType string    // day / night
	Summary   string
}

// FetchRosterContent 从 URL 获取排班日历内容
func FetchRosterContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: rosterFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取排班日历失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取排班日历失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, rosterMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseRosterICS 解析排班日历内容并转为班次条目列表（日期升序）
func ParseRosterICS(reader io.Reader) ([]rosterEntry, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	loc, _ := time.LoadLocation(rosterTimezone)
	horizon := time.Now().In(loc).AddDate(0, 0, rosterHorizonDays)

	var entries []rosterEntry
	for _, evt := range cal.Events() {
		entries = append(entries, parseRosterEvent(evt, horizon, loc)...)
	}

	// 同日同班别去重
	seen := make(map[string]bool)
	result := make([]rosterEntry, 0, len(entries))
	for _, e := range entries {
		key := e.Date.Format("2006-01-02") + ":" + e.ShiftType
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ShiftType < result[j].ShiftType
	})
	return result, nil
}

// parseRosterEvent 解析单个 VEVENT，RRULE 事件展开为多个条目
func parseRosterEvent(evt *ics.VEvent, horizon time.Time, loc *time.Location) []rosterEntry {
	summary := ""
	if prop := evt.GetProperty(ics.ComponentPropertySummary); prop != nil {
		summary = strings.TrimSpace(prop.Value)
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return nil
	}

	shiftType := classifyShiftType(summary, dtStart)

	// 无 RRULE → 单次事件
	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		return []rosterEntry{{Date: dayOf(dtStart), ShiftType: shiftType, Summary: summary}}
	}

	rule := parseRRule(rruleProp.Value)
	if rule.freq != "WEEKLY" {
		// 非周重复 → 视为单次
		return []rosterEntry{{Date: dayOf(dtStart), ShiftType: shiftType, Summary: summary}}
	}

	exDates := parseExDates(evt, loc)

	interval := rule.interval
	if interval < 1 {
		interval = 1
	}
	maxDate := horizon
	if !rule.until.IsZero() && rule.until.Before(maxDate) {
		maxDate = rule.until
	}

	var out []rosterEntry
	current := dtStart
	count := 0
	for {
		if !rule.until.IsZero() && current.After(rule.until) {
			break
		}
		if rule.count > 0 && count >= rule.count {
			break
		}
		if current.After(maxDate) {
			break
		}

		if !exDates[current.Format("20060102")] {
			out = append(out, rosterEntry{Date: dayOf(current), ShiftType: shiftType, Summary: summary})
		}

		count++
		current = current.AddDate(0, 0, 7*interval)
	}
	return out
}

// classifyShiftType 判定班别：SUMMARY 关键词优先，其次按开工时刻
func classifyShiftType(summary string, start time.Time) string {
	lower := strings.ToLower(summary)
	switch {
	case strings.Contains(lower, "night") || strings.Contains(summary, "夜"):
		return model.ShiftTypeNight
	case strings.Contains(lower, "day") || strings.Contains(summary, "白") || strings.Contains(summary, "早"):
		return model.ShiftTypeDay
	}
	// 17 点后或凌晨 6 点前开工的按夜班
	if h := start.Hour(); h >= 17 || h < 6 {
		return model.ShiftTypeNight
	}
	return model.ShiftTypeDay
}

// rruleParams RRULE 解析结果
type rruleParams struct {
	freq     string
	interval int
	count    int
	until    time.Time
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;COUNT=16;INTERVAL=1）
func parseRRule(value string) rruleParams {
	r := rruleParams{interval: 1}
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			r.freq = strings.ToUpper(kv[1])
		case "INTERVAL":
			fmt.Sscanf(kv[1], "%d", &r.interval)
		case "COUNT":
			fmt.Sscanf(kv[1], "%d", &r.count)
		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", kv[1])
			if err != nil {
				t, _ = time.Parse("20060102", kv[1])
			}
			r.until = t
		}
	}
	return r
}

// parseExDates 解析事件中所有 EXDATE
func parseExDates(evt *ics.VEvent, loc *time.Location) map[string]bool {
	exDates := make(map[string]bool)
	for _, prop := range evt.Properties {
		if prop.IANAToken == string(ics.ComponentPropertyExdate) {
			t, err := time.Parse("20060102T150405Z", prop.Value)
			if err != nil {
				t, err = time.Parse("20060102T150405", prop.Value)
				if err != nil {
					t, err = time.Parse("20060102", prop.Value)
				}
			}
			if err == nil {
				exDates[t.In(loc).Format("20060102")] = true
			}
		}
	}
	return exDates
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性，支持 TZID 参数
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	layouts := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

// dayOf 截取日历日，落库统一为 UTC 零点
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
