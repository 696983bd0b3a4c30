package dto

// ── 矿区模块 DTO ──

// CreateSiteRequest 创建矿区请求
type CreateSiteRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Code        string `json:"code"        binding:"required,min=2,max=20"`
	Description string `json:"description" binding:"omitempty,max=200"`
}

// UpdateSiteRequest 更新矿区请求
type UpdateSiteRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active"`
}

// SiteListRequest 矿区列表查询参数
type SiteListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// SiteDetailResponse 矿区详细信息响应
type SiteDetailResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	MemberCount int64  `json:"member_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// SiteMemberResponse 矿区成员响应
type SiteMemberResponse struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	EmployeeNo string `json:"employee_no"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}
