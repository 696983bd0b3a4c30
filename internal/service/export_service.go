package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"minelog/backend/internal/metric"
	"minelog/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoShifts     = errors.New("该区间暂无班次记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出本人区间内的班次与全量指标为 Excel (.xlsx)
//   - 指标列按词表固定顺序排布，与接口返回一致
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportShifts 导出班次指标为 Excel
	ExportShifts(ctx context.Context, userID, from, to string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	engine *metric.Engine
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, engine *metric.Engine, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, engine: engine, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportShifts — 导出班次指标为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "班次记录"，按日期升序一行一班次
//   - 固定列：日期 / 班别 / 来源 / 活动数
//   - 指标列：词表 20 项按固定顺序展开，表尾追加合计行
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportShifts(ctx context.Context, userID, from, to string) (*bytes.Buffer, string, error) {
	// 1. 加载区间班次（边界缺省语义与统计接口一致）
	shifts, resolvedFrom, resolvedTo, err := loadShiftsForRange(ctx, s.repo.Shift, s.logger, userID, from, to)
	if err != nil {
		return nil, "", err
	}
	if len(shifts) == 0 {
		return nil, "", ErrExportNoShifts
	}

	// 2. 逐班次归并
	inputs := make([]metric.ShiftInput, 0, len(shifts))
	for i := range shifts {
		inputs = append(inputs, buildShiftInput(&shifts[i]))
	}
	reduced := s.engine.ReduceShifts(inputs)

	vocab := metric.Vocabulary()

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "班次记录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 8)
	for i := range vocab {
		col := colName(4 + i)
		f.SetColWidth(sheetName, col, col, 14)
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	lastCol := colName(3 + len(vocab))
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("班次记录 %s ~ %s", resolvedFrom, resolvedTo))
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "日期")
	f.SetCellValue(sheetName, cell("B", row), "班别")
	f.SetCellValue(sheetName, cell("C", row), "来源")
	f.SetCellValue(sheetName, cell("D", row), "活动数")
	for i, m := range vocab {
		f.SetCellValue(sheetName, cell(colName(4+i), row), m.Label())
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), headerStyle)

	// 数据行
	shiftTypeNames := map[string]string{"day": "白班", "night": "夜班"}
	sourceNames := map[string]string{"manual": "手工录入", "roster": "排班导入"}

	totals := metric.NewMetricMap()
	recordCount := 0

	row = 3
	for i := range reduced {
		f.SetCellValue(sheetName, cell("A", row), reduced[i].Date)
		f.SetCellValue(sheetName, cell("B", row), shiftTypeNames[reduced[i].ShiftType])
		f.SetCellValue(sheetName, cell("C", row), sourceNames[shifts[i].Source])
		f.SetCellValue(sheetName, cell("D", row), len(shifts[i].Records))
		for j, m := range vocab {
			v := reduced[i].Metrics[m]
			f.SetCellValue(sheetName, cell(colName(4+j), row), v)
			totals[m] += v
		}
		recordCount += len(shifts[i].Records)
		row++
	}

	// 合计行
	f.SetCellValue(sheetName, cell("A", row), "合计")
	f.SetCellValue(sheetName, cell("D", row), recordCount)
	for j, m := range vocab {
		f.SetCellValue(sheetName, cell(colName(4+j), row), totals[m])
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("班次记录_%s_%s.xlsx", resolvedFrom, resolvedTo)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
