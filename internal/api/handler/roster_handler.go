package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/service"
	"minelog/backend/pkg/response"
)

// RosterHandler 排班日历导入 HTTP 处理器
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// ImportRoster 导入排班日历，为目标用户预建班次
// POST /api/v1/roster/import
//
// 支持两种方式：
//   - 文件上传: multipart/form-data, field="file"，可选 form 字段 user_id
//   - URL 导入: application/json, body={"url": "...", "user_id": "..."}
//
// user_id 缺省为本人；替他人导入要求 admin 或同矿区 supervisor
func (h *RosterHandler) ImportRoster(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}
	callerSiteID, ok := MustGetSiteID(c)
	if !ok {
		return
	}

	// 尝试文件上传方式
	file, _, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		targetUserID := c.PostForm("user_id")

		result, err := h.rosterSvc.ImportRoster(c.Request.Context(), file, targetUserID, callerID, callerRole, callerSiteID)
		if err != nil {
			handleRosterError(c, err)
			return
		}
		response.Created(c, result)
		return
	}

	// 尝试 URL 方式
	var req dto.ImportRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		response.BadRequest(c, 10001, "请上传 ICS 文件或提供日历 URL")
		return
	}

	result, err := h.rosterSvc.FetchAndImport(c.Request.Context(), req.URL, req.UserID, callerID, callerRole, callerSiteID)
	if err != nil {
		handleRosterError(c, err)
		return
	}
	response.Created(c, result)
}

// handleRosterError 统一处理排班导入模块业务错误
func handleRosterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRosterEmpty):
		response.BadRequest(c, 18001, "排班日历中没有可导入的班次")
	case errors.Is(err, service.ErrRosterParseFailed):
		response.ErrorWithDetails(c, http.StatusBadRequest, 18002, "排班日历解析失败", err.Error())
	case errors.Is(err, service.ErrRosterFetchFailed):
		response.ErrorWithDetails(c, http.StatusBadRequest, 18003, "排班日历拉取失败", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 18004, "目标用户不存在")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 18005, "无权为该用户导入排班")
	default:
		response.InternalError(c)
	}
}
