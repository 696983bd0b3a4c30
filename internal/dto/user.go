package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	SiteID  string `form:"site_id" binding:"omitempty,uuid"`
	Role    string `form:"role"    binding:"omitempty,oneof=admin supervisor miner"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Name   *string `json:"name"    binding:"omitempty,min=2,max=50"`
	Email  *string `json:"email"   binding:"omitempty,email"`
	SiteID *string `json:"site_id" binding:"omitempty,uuid"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin supervisor miner"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}
