package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/service"
	"minelog/backend/pkg/response"
)

// SiteHandler 矿区模块 HTTP 处理器
type SiteHandler struct {
	siteSvc service.SiteService
}

// NewSiteHandler 创建 SiteHandler
func NewSiteHandler(siteSvc service.SiteService) *SiteHandler {
	return &SiteHandler{siteSvc: siteSvc}
}

// ListSites 获取矿区列表
// GET /api/v1/sites
func (h *SiteHandler) ListSites(c *gin.Context) {
	var req dto.SiteListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sites, err := h.siteSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sites})
}

// GetSite 获取矿区详情
// GET /api/v1/sites/:id
func (h *SiteHandler) GetSite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "矿区ID不能为空")
		return
	}

	site, err := h.siteSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleSiteError(c, err)
		return
	}

	response.OK(c, site)
}

// CreateSite 创建矿区
// POST /api/v1/sites
func (h *SiteHandler) CreateSite(c *gin.Context) {
	var req dto.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	site, err := h.siteSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleSiteError(c, err)
		return
	}

	response.Created(c, site)
}

// UpdateSite 更新矿区
// PUT /api/v1/sites/:id
func (h *SiteHandler) UpdateSite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "矿区ID不能为空")
		return
	}

	var req dto.UpdateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	site, err := h.siteSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleSiteError(c, err)
		return
	}

	response.OK(c, site)
}

// DeleteSite 删除矿区
// DELETE /api/v1/sites/:id
func (h *SiteHandler) DeleteSite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "矿区ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.siteSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleSiteError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetMembers 获取矿区成员列表
// GET /api/v1/sites/:id/members
func (h *SiteHandler) GetMembers(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "矿区ID不能为空")
		return
	}

	members, err := h.siteSvc.GetMembers(c.Request.Context(), id)
	if err != nil {
		handleSiteError(c, err)
		return
	}

	response.OK(c, gin.H{"list": members})
}

// handleSiteError 统一处理矿区模块业务错误
func handleSiteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSiteNotFound):
		response.NotFound(c, 13001, "矿区不存在")
	case errors.Is(err, service.ErrSiteNameExists):
		response.BadRequest(c, 13002, "矿区名称已存在")
	case errors.Is(err, service.ErrSiteHasMembers):
		response.BadRequest(c, 13003, "矿区下存在成员，无法删除")
	case errors.Is(err, service.ErrSiteInactive):
		response.BadRequest(c, 13004, "矿区已停用")
	default:
		response.InternalError(c)
	}
}
