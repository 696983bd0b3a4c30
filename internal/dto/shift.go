package dto

// ── 班次模块 DTO ──

// ActivityRecordRequest 活动记录录入
// ActivityType 可留空，由设备关键词推断；Fields 键值随表单版本演化，原样透传
type ActivityRecordRequest struct {
	ActivityType string            `json:"activity_type" binding:"omitempty,max=30"`
	SubType      string            `json:"sub_type"      binding:"omitempty,max=30"`
	Location     string            `json:"location"      binding:"omitempty,max=100"`
	Equipment    string            `json:"equipment"     binding:"omitempty,max=100"`
	Fields       map[string]string `json:"fields"`
}

// CreateShiftRequest 创建班次请求
// Totals 仅供旧版客户端批量迁移预聚合数据使用
type CreateShiftRequest struct {
	Date      string                  `json:"date"       binding:"required"` // "2026-03-02"
	ShiftType string                  `json:"shift_type" binding:"required,oneof=day night"`
	Notes     string                  `json:"notes"      binding:"omitempty,max=500"`
	Totals    map[string]string       `json:"totals"`
	Records   []ActivityRecordRequest `json:"records" binding:"omitempty,dive"`
}

// UpdateShiftRequest 更新班次请求
// Records 非 nil 时整组替换原有活动记录
type UpdateShiftRequest struct {
	Date      *string                  `json:"date"`
	ShiftType *string                  `json:"shift_type" binding:"omitempty,oneof=day night"`
	Notes     *string                  `json:"notes"      binding:"omitempty,max=500"`
	Totals    *map[string]string       `json:"totals"`
	Records   *[]ActivityRecordRequest `json:"records"    binding:"omitempty,dive"`
	Version   int                      `json:"version"    binding:"required,min=1"`
}

// ShiftListRequest 班次列表查询参数
type ShiftListRequest struct {
	PaginationRequest
	From string `form:"from"` // "2026-03-01"
	To   string `form:"to"`
}

// ActivityRecordResponse 活动记录响应
type ActivityRecordResponse struct {
	ID           string            `json:"id"`
	ActivityType string            `json:"activity_type"`
	SubType      string            `json:"sub_type,omitempty"`
	Location     string            `json:"location,omitempty"`
	Equipment    string            `json:"equipment,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	SortOrder    int               `json:"sort_order"`
}

// ShiftResponse 班次响应
// Metrics 为本班次归并后的全量指标；HasActivityDetail 标记取值路径
type ShiftResponse struct {
	ID                string                   `json:"id"`
	UserID            string                   `json:"user_id"`
	Date              string                   `json:"date"`
	ShiftType         string                   `json:"shift_type"`
	Source            string                   `json:"source"`
	Notes             string                   `json:"notes,omitempty"`
	Records           []ActivityRecordResponse `json:"records"`
	Metrics           map[string]float64       `json:"metrics"`
	HasActivityDetail bool                     `json:"has_activity_detail"`
	Version           int                      `json:"version"`
	CreatedAt         string                   `json:"created_at"`
	UpdatedAt         string                   `json:"updated_at"`
}
