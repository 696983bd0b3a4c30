package service

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ── 测试数据 ──

const icsSingleEvents = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-1@minelog
DTSTART:20260302T070000
DTEND:20260302T190000
SUMMARY:Day Shift
END:VEVENT
BEGIN:VEVENT
UID:evt-2@minelog
DTSTART:20260302T190000
DTEND:20260303T070000
SUMMARY:Night Shift
END:VEVENT
END:VCALENDAR
`

const icsWeeklyCount = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-weekly@minelog
DTSTART:20260302T070000
DTEND:20260302T190000
RRULE:FREQ=WEEKLY;COUNT=4
SUMMARY:Day Shift
END:VEVENT
END:VCALENDAR
`

const icsWeeklyExDate = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-exdate@minelog
DTSTART:20260302T070000
DTEND:20260302T190000
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20260309T070000
SUMMARY:Day Shift
END:VEVENT
END:VCALENDAR
`

// ── ParseRosterICS 测试 ──

func TestParseRosterICS_SingleEvents(t *testing.T) {
	entries, err := ParseRosterICS(strings.NewReader(icsSingleEvents))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("期望2个条目，实际=%d", len(entries))
	}
	// 同日条目按班别排序，白班在前
	if entries[0].Date.Format("2006-01-02") != "2026-03-02" || entries[0].ShiftType != "day" {
		t.Errorf("期望 2026-03-02 day，实际 %s %s", entries[0].Date.Format("2006-01-02"), entries[0].ShiftType)
	}
	if entries[1].ShiftType != "night" {
		t.Errorf("期望第二条为 night，实际=%s", entries[1].ShiftType)
	}
	if entries[0].Summary != "Day Shift" {
		t.Errorf("期望 Summary=Day Shift，实际=%s", entries[0].Summary)
	}
}

func TestParseRosterICS_SummaryKeywordPriority(t *testing.T) {
	// SUMMARY 带 Day 关键词但 19 点开工，关键词优先
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-kw@minelog
DTSTART:20260302T190000
SUMMARY:Day Shift Crew B
END:VEVENT
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 1 || entries[0].ShiftType != "day" {
		t.Errorf("期望关键词优先判定为 day，实际: %+v", entries)
	}
}

func TestParseRosterICS_WeeklyCount(t *testing.T) {
	entries, err := ParseRosterICS(strings.NewReader(icsWeeklyCount))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("期望展开4个条目，实际=%d", len(entries))
	}
	expected := []string{"2026-03-02", "2026-03-09", "2026-03-16", "2026-03-23"}
	for i, want := range expected {
		if got := entries[i].Date.Format("2006-01-02"); got != want {
			t.Errorf("期望第%d个条目为 %s，实际=%s", i+1, want, got)
		}
		if entries[i].ShiftType != "day" {
			t.Errorf("期望班别为 day，实际=%s", entries[i].ShiftType)
		}
	}
}

func TestParseRosterICS_WeeklyInterval(t *testing.T) {
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-interval@minelog
DTSTART:20260302T070000
RRULE:FREQ=WEEKLY;INTERVAL=2;COUNT=3
SUMMARY:Day Shift
END:VEVENT
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("期望3个条目，实际=%d", len(entries))
	}
	expected := []string{"2026-03-02", "2026-03-16", "2026-03-30"}
	for i, want := range expected {
		if got := entries[i].Date.Format("2006-01-02"); got != want {
			t.Errorf("期望第%d个条目为 %s，实际=%s", i+1, want, got)
		}
	}
}

func TestParseRosterICS_WeeklyUntil(t *testing.T) {
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-until@minelog
DTSTART:20260302T070000
RRULE:FREQ=WEEKLY;UNTIL=20260316T235959Z
SUMMARY:Day Shift
END:VEVENT
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("期望截止到 UNTIL 共3个条目，实际=%d", len(entries))
	}
	if last := entries[2].Date.Format("2006-01-02"); last != "2026-03-16" {
		t.Errorf("期望最后条目为 2026-03-16，实际=%s", last)
	}
}

func TestParseRosterICS_ExDate(t *testing.T) {
	entries, err := ParseRosterICS(strings.NewReader(icsWeeklyExDate))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("期望剔除 EXDATE 后3个条目，实际=%d", len(entries))
	}
	for _, e := range entries {
		if e.Date.Format("2006-01-02") == "2026-03-09" {
			t.Error("EXDATE 指定的 2026-03-09 不应出现")
		}
	}
}

func TestParseRosterICS_Dedupe(t *testing.T) {
	// 同日同班别的重复事件仅保留首个
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-dup-1@minelog
DTSTART:20260302T070000
SUMMARY:Day Shift
END:VEVENT
BEGIN:VEVENT
UID:evt-dup-2@minelog
DTSTART:20260302T080000
SUMMARY:Day Shift Crew B
END:VEVENT
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("期望去重后1个条目，实际=%d", len(entries))
	}
	if entries[0].Summary != "Day Shift" {
		t.Errorf("期望保留首个事件，实际 Summary=%s", entries[0].Summary)
	}
}

func TestParseRosterICS_NonWeeklyAsSingle(t *testing.T) {
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-daily@minelog
DTSTART:20260302T070000
RRULE:FREQ=DAILY;COUNT=5
SUMMARY:Day Shift
END:VEVENT
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	// 仅支持周重复，其他频率按单次处理
	if len(entries) != 1 {
		t.Errorf("期望1个条目，实际=%d", len(entries))
	}
}

func TestParseRosterICS_UnboundedHorizon(t *testing.T) {
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-unbounded@minelog
DTSTART:20260302T070000
RRULE:FREQ=WEEKLY
SUMMARY:Day Shift
END:VEVENT
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) < 20 {
		t.Errorf("无界规则应展开到展开上限，实际仅=%d", len(entries))
	}
	// 展开不得越过今日起的上限窗口
	horizon := time.Now().AddDate(0, 0, rosterHorizonDays+1)
	if last := entries[len(entries)-1].Date; last.After(horizon) {
		t.Errorf("最后条目 %s 越过展开上限", last.Format("2006-01-02"))
	}
}

func TestParseRosterICS_UTCDatetime(t *testing.T) {
	// UTC 23 点换算到 Asia/Shanghai 为次日 7 点，应归入次日白班
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-utc@minelog
DTSTART:20260302T230000Z
SUMMARY:Crew A
END:VEVENT
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("期望1个条目，实际=%d", len(entries))
	}
	if got := entries[0].Date.Format("2006-01-02"); got != "2026-03-03" {
		t.Errorf("期望换算后日期 2026-03-03，实际=%s", got)
	}
	if entries[0].ShiftType != "day" {
		t.Errorf("期望按当地 7 点判定为 day，实际=%s", entries[0].ShiftType)
	}
}

func TestParseRosterICS_TZIDParam(t *testing.T) {
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
BEGIN:VEVENT
UID:evt-tzid@minelog
DTSTART;TZID=Australia/Perth:20260302T190000
SUMMARY:Crew A
END:VEVENT
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("期望1个条目，实际=%d", len(entries))
	}
	if entries[0].Date.Format("2006-01-02") != "2026-03-02" || entries[0].ShiftType != "night" {
		t.Errorf("期望 2026-03-02 night，实际 %s %s",
			entries[0].Date.Format("2006-01-02"), entries[0].ShiftType)
	}
}

func TestParseRosterICS_Empty(t *testing.T) {
	content := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//MineLog//Roster//EN
END:VCALENDAR
`
	entries, err := ParseRosterICS(strings.NewReader(content))
	if err != nil {
		t.Fatalf("空日历应解析成功: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("期望0个条目，实际=%d", len(entries))
	}
}

func TestParseRosterICS_Invalid(t *testing.T) {
	_, err := ParseRosterICS(strings.NewReader("这不是一个日历文件"))
	if err == nil {
		t.Error("非法内容应返回错误")
	}
}

// ── classifyShiftType 测试 ──

func TestClassifyShiftType(t *testing.T) {
	cases := []struct {
		name     string
		summary  string
		hour     int
		expected string
	}{
		{"英文夜班关键词", "Night Shift", 7, "night"},
		{"中文夜班关键词", "夜班 A组", 7, "night"},
		{"英文白班关键词", "Day Shift", 19, "day"},
		{"中文白班关键词", "白班", 19, "day"},
		{"中文早班关键词", "早班", 19, "day"},
		{"无关键词早晨开工", "Crew A", 7, "day"},
		{"无关键词晚间开工", "Crew A", 19, "night"},
		{"无关键词凌晨开工", "Crew A", 5, "night"},
		{"边界17点", "Crew A", 17, "night"},
		{"边界16点", "Crew A", 16, "day"},
		{"边界6点", "Crew A", 6, "day"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Date(2026, 3, 2, tc.hour, 0, 0, 0, time.UTC)
			if got := classifyShiftType(tc.summary, start); got != tc.expected {
				t.Errorf("期望 %s，实际: %s", tc.expected, got)
			}
		})
	}
}

// ── parseRRule 测试 ──

func TestParseRRule(t *testing.T) {
	r := parseRRule("FREQ=WEEKLY;INTERVAL=2;COUNT=16")
	if r.freq != "WEEKLY" || r.interval != 2 || r.count != 16 {
		t.Errorf("期望 WEEKLY/2/16，实际 %s/%d/%d", r.freq, r.interval, r.count)
	}
	if !r.until.IsZero() {
		t.Errorf("未指定 UNTIL 时应为零值，实际=%v", r.until)
	}

	r = parseRRule("FREQ=WEEKLY;UNTIL=20260316T235959Z")
	if r.until.Year() != 2026 || r.until.Month() != 3 || r.until.Day() != 16 {
		t.Errorf("期望 UNTIL=2026-03-16，实际=%v", r.until)
	}

	// INTERVAL 缺省为 1
	r = parseRRule("FREQ=WEEKLY")
	if r.interval != 1 || r.count != 0 {
		t.Errorf("期望缺省 interval=1 count=0，实际 %d/%d", r.interval, r.count)
	}
}

// ── FetchRosterContent 测试 ──

func TestFetchRosterContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/roster.ics" {
			fmt.Fprint(w, icsSingleEvents)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rc, err := FetchRosterContent(srv.URL + "/roster.ics")
	if err != nil {
		t.Fatalf("获取应成功: %v", err)
	}
	defer rc.Close()

	entries, err := ParseRosterICS(rc)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("期望2个条目，实际=%d", len(entries))
	}

	if _, err := FetchRosterContent(srv.URL + "/missing.ics"); err == nil {
		t.Error("HTTP 404 应返回错误")
	}
}
