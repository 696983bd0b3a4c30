package dto

// ── 排班模块 DTO ──

// ImportRosterRequest 排班表导入请求（URL 方式）
// UserID 缺省为当前用户；替他人导入需要管理权限
type ImportRosterRequest struct {
	URL    string `json:"url"     binding:"omitempty,url"`
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// RosterImportResponse 排班表导入响应
type RosterImportResponse struct {
	Total    int                 `json:"total"`
	Imported int                 `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Shifts   []RosterShiftItem   `json:"shifts"`
	Errors   []RosterImportError `json:"errors,omitempty"`
}

// RosterShiftItem 导入生成的计划班次
type RosterShiftItem struct {
	Date      string `json:"date"`
	ShiftType string `json:"shift_type"`
	Summary   string `json:"summary,omitempty"`
}

// RosterImportError 导入错误详情
type RosterImportError struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}
