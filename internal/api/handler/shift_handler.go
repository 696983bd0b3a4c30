package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/service"
	"minelog/backend/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// CreateShift 创建班次
// POST /api/v1/shifts
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	siteID, ok := MustGetSiteID(c)
	if !ok {
		return
	}

	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.Create(c.Request.Context(), &req, callerID, siteID)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.Created(c, shift)
}

// ListShifts 获取本人班次列表
// GET /api/v1/shifts?from=2026-03-01&to=2026-03-31&page=1&page_size=20
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shifts, total, err := h.shiftSvc.List(c.Request.Context(), &req, callerID)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OKPage(c, shifts, total, req.GetPage(), req.GetPageSize())
}

// GetShift 获取班次详情
// GET /api/v1/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "班次ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), id, callerID, callerRole)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// UpdateShift 更新班次（带乐观锁版本校验）
// PUT /api/v1/shifts/:id
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "班次ID不能为空")
		return
	}

	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.Update(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// DeleteShift 删除班次
// DELETE /api/v1/shifts/:id
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "班次ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.Delete(c.Request.Context(), id, callerID, callerRole); err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, nil)
}

// AddRecord 追加活动记录，返回重算后的完整班次
// POST /api/v1/shifts/:id/records
func (h *ShiftHandler) AddRecord(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "班次ID不能为空")
		return
	}

	var req dto.ActivityRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.AddRecord(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.Created(c, shift)
}

// UpdateRecord 更新活动记录，返回重算后的完整班次
// PUT /api/v1/shifts/:id/records/:recordId
func (h *ShiftHandler) UpdateRecord(c *gin.Context) {
	id := c.Param("id")
	recordID := c.Param("recordId")
	if id == "" || recordID == "" {
		response.BadRequest(c, 10001, "班次ID与记录ID不能为空")
		return
	}

	var req dto.ActivityRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.UpdateRecord(c.Request.Context(), id, recordID, &req, callerID, callerRole)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// DeleteRecord 删除活动记录，返回重算后的完整班次
// DELETE /api/v1/shifts/:id/records/:recordId
func (h *ShiftHandler) DeleteRecord(c *gin.Context) {
	id := c.Param("id")
	recordID := c.Param("recordId")
	if id == "" || recordID == "" {
		response.BadRequest(c, 10001, "班次ID与记录ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.DeleteRecord(c.Request.Context(), id, recordID, callerID, callerRole)
	if err != nil {
		handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// handleShiftError 统一处理班次模块业务错误
func handleShiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 14001, "班次不存在")
	case errors.Is(err, service.ErrShiftDuplicate):
		response.Error(c, http.StatusConflict, 14002, "该日期该班别已有班次记录")
	case errors.Is(err, service.ErrShiftDateInvalid):
		response.BadRequest(c, 14003, "日期格式无效，应为 yyyy-MM-dd")
	case errors.Is(err, service.ErrShiftConflict):
		response.Error(c, http.StatusConflict, 14004, "班次已被其他请求修改，请刷新后重试")
	case errors.Is(err, service.ErrActivityRecordNotFound):
		response.NotFound(c, 14005, "活动记录不存在")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 14006, "无权操作该班次")
	default:
		response.InternalError(c)
	}
}
