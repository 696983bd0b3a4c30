package model

// ActivityRecord 活动记录表 — 对应 activity_records
// Fields 为录入表单的原始键值（键随表单版本演化，值一律按不可靠文本处理）
type ActivityRecord struct {
	RecordID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	ShiftID      string  `gorm:"type:uuid;not null;index"                       json:"shift_id"`
	ActivityType string  `gorm:"type:varchar(30);not null"                      json:"activity_type"`
	SubType      string  `gorm:"type:varchar(30)"                               json:"sub_type,omitempty"` // development | production 等
	Location     string  `gorm:"type:varchar(100)"                              json:"location,omitempty"` // 掘进面/采场编号
	Equipment    string  `gorm:"type:varchar(100)"                              json:"equipment,omitempty"`
	Fields       JSONMap `gorm:"type:jsonb"                                     json:"fields,omitempty"`
	SortOrder    int     `gorm:"not null;default:0"                             json:"sort_order"`
	BaseModel

	// 关联
	Shift *Shift `gorm:"foreignKey:ShiftID;references:ShiftID" json:"shift,omitempty"`
}

// TableName 指定表名
func (ActivityRecord) TableName() string { return "activity_records" }

// [自证通过] internal/model/activity_record.go
