package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/service"
	"minelog/backend/pkg/response"
)

// ConnectionHandler 工友关系模块 HTTP 处理器
type ConnectionHandler struct {
	connSvc service.ConnectionService
}

// NewConnectionHandler 创建 ConnectionHandler
func NewConnectionHandler(connSvc service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connSvc: connSvc}
}

// RequestConnection 发起工友请求
// POST /api/v1/connections
func (h *ConnectionHandler) RequestConnection(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	conn, err := h.connSvc.Request(c.Request.Context(), &req, callerID)
	if err != nil {
		handleConnectionError(c, err)
		return
	}

	response.Created(c, conn)
}

// RespondConnection 处理工友请求（接受/拒绝）
// PUT /api/v1/connections/:id
func (h *ConnectionHandler) RespondConnection(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "请求ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RespondConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	conn, err := h.connSvc.Respond(c.Request.Context(), id, req.Action == "accept", callerID)
	if err != nil {
		handleConnectionError(c, err)
		return
	}

	response.OK(c, conn)
}

// ListConnections 获取工友关系列表
// GET /api/v1/connections?status=accepted
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ConnectionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	conns, err := h.connSvc.List(c.Request.Context(), callerID, req.Status)
	if err != nil {
		handleConnectionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": conns})
}

// ListPendingConnections 获取待我处理的工友请求
// GET /api/v1/connections/pending
func (h *ConnectionHandler) ListPendingConnections(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	conns, err := h.connSvc.ListPending(c.Request.Context(), callerID)
	if err != nil {
		handleConnectionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": conns})
}

// RemoveConnection 解除工友关系或撤回请求
// DELETE /api/v1/connections/:id
func (h *ConnectionHandler) RemoveConnection(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "请求ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.connSvc.Remove(c.Request.Context(), id, callerID); err != nil {
		handleConnectionError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleConnectionError 统一处理工友关系模块业务错误
func handleConnectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConnectionNotFound):
		response.NotFound(c, 16001, "工友请求不存在")
	case errors.Is(err, service.ErrConnectionExists):
		response.Error(c, http.StatusConflict, 16002, "与该用户已存在工友关系或待处理请求")
	case errors.Is(err, service.ErrConnectionSelf):
		response.BadRequest(c, 16003, "不能添加自己为工友")
	case errors.Is(err, service.ErrConnectionTargetRequired):
		response.BadRequest(c, 16004, "需提供对方用户ID或工号")
	case errors.Is(err, service.ErrConnectionNotAddressee):
		response.Forbidden(c, 16005, "仅被邀方可处理该请求")
	case errors.Is(err, service.ErrConnectionNotPending):
		response.Error(c, http.StatusConflict, 16006, "该请求已被处理")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 16007, "对方用户不存在")
	default:
		response.InternalError(c)
	}
}
