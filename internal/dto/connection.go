package dto

// ── 工友关系模块 DTO ──

// CreateConnectionRequest 发起工友请求
// 支持按用户 ID 或工号二选一指定对方
type CreateConnectionRequest struct {
	AddresseeID string `json:"addressee_id" binding:"omitempty,uuid"`
	EmployeeNo  string `json:"employee_no"  binding:"omitempty,max=20"`
}

// RespondConnectionRequest 处理工友请求
type RespondConnectionRequest struct {
	Action string `json:"action" binding:"required,oneof=accept decline"`
}

// ConnectionListRequest 关系列表查询参数
type ConnectionListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending accepted declined"`
}

// ConnectionResponse 工友关系响应
type ConnectionResponse struct {
	ID          string        `json:"id"`
	Requester   *PeerResponse `json:"requester,omitempty"`
	Addressee   *PeerResponse `json:"addressee,omitempty"`
	Status      string        `json:"status"`
	CreatedAt   string        `json:"created_at"`
	RespondedAt string        `json:"responded_at,omitempty"`
}

// PeerResponse 工友简要信息
type PeerResponse struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	EmployeeNo string `json:"employee_no"`
	SiteName   string `json:"site_name,omitempty"`
}
