package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"minelog/backend/internal/dto"
	"minelog/backend/internal/service"
	"minelog/backend/pkg/response"
)

// StatsHandler 统计模块 HTTP 处理器
type StatsHandler struct {
	statsSvc service.StatsService
}

// NewStatsHandler 创建 StatsHandler
func NewStatsHandler(statsSvc service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// GetSummary 获取指标汇总（含逐班次分解、活动分项、里程碑）
// GET /api/v1/stats/summary?user_id=xxx&from=2026-03-01&to=2026-03-31
//
// user_id 缺省为本人；查他人需为已互认工友（admin 不受限）
func (h *StatsHandler) GetSummary(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.statsSvc.Summary(c.Request.Context(), &req, callerID, callerRole)
	if err != nil {
		handleStatsError(c, err)
		return
	}

	response.OK(c, result)
}

// GetSeries 获取本人原始班次序列
// GET /api/v1/stats/series?from=2026-03-01&to=2026-03-31
func (h *StatsHandler) GetSeries(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SeriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.statsSvc.Series(c.Request.Context(), &req, callerID)
	if err != nil {
		handleStatsError(c, err)
		return
	}

	response.OK(c, result)
}

// GetNetwork 获取工友网络时间线与排行
// GET /api/v1/stats/network?metric=tonnes_hauled&from=&to=&compare=
func (h *StatsHandler) GetNetwork(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.NetworkRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.statsSvc.Network(c.Request.Context(), &req, callerID)
	if err != nil {
		handleStatsError(c, err)
		return
	}

	response.OK(c, result)
}

// ListMetrics 获取指标词表
// GET /api/v1/stats/metrics
func (h *StatsHandler) ListMetrics(c *gin.Context) {
	response.OK(c, gin.H{"list": h.statsSvc.ListMetrics()})
}

// handleStatsError 统一处理统计模块业务错误
func handleStatsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMetricUnknown):
		response.BadRequest(c, 15001, err.Error())
	case errors.Is(err, service.ErrStatsNotMate):
		response.Forbidden(c, 15002, "仅可查看已互认工友的数据")
	case errors.Is(err, service.ErrStatsRangeInvalid):
		response.BadRequest(c, 15003, "日期范围无效，应为 yyyy-MM-dd 且起始不晚于结束")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 15004, "目标用户不存在")
	default:
		response.InternalError(c)
	}
}
