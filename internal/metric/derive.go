package metric

import "strings"

// Contribution 单条活动记录对规范指标的部分贡献
// Deltas 为数值增量；Headings 为距离计数信号（指标 → 记录所在位置），
// 由归并层按位置去重后转为计数
type Contribution struct {
	Deltas   map[Metric]float64
	Headings map[Metric]string
}

func (c *Contribution) add(m Metric, v float64) {
	v = clampDelta(v)
	if v == 0 {
		return
	}
	if c.Deltas == nil {
		c.Deltas = make(map[Metric]float64)
	}
	c.Deltas[m] += v
}

func (c *Contribution) mark(m Metric, location string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return
	}
	if c.Headings == nil {
		c.Headings = make(map[Metric]string)
	}
	c.Headings[m] = location
}

// 推导调度表：活动类型 → 推导函数
// 封闭集合，运行期只读；未登记的活动类型贡献为空
var deriveTable = map[string]func(*Engine, Record) Contribution{
	ActivityGroundSupport:      deriveGroundSupport,
	ActivityFaceDrilling:       deriveFaceDrilling,
	ActivityHauling:            deriveHauling,
	ActivityProductionDrilling: deriveProductionDrilling,
	ActivityLoading:            deriveLoading,
	ActivityCharging:           deriveCharging,
	ActivityFiring:             deriveFiring,
	ActivityHoisting:           deriveHoisting,
	ActivityShotcrete:          deriveShotcrete,
	ActivityBackfill:           deriveBackfill,
}

// Derive 推导单条记录的指标贡献
// 纯函数：相同输入恒产生相同贡献；字段缺失或脏值按 0 处理，从不报错
func (e *Engine) Derive(rec Record) Contribution {
	fn, ok := deriveTable[e.ResolveActivityType(rec)]
	if !ok {
		return Contribution{}
	}
	return fn(e, rec)
}

// ── 各活动类型推导规则 ──

// 支护/返修：支护米数 = 锚杆数 × 杆长；位置计入 headings_supported
func deriveGroundSupport(e *Engine, rec Record) Contribution {
	f := e.decodeGroundSupport(rec)
	var c Contribution
	c.add(MetricGroundSupportMetres, f.bolts*f.boltLength)
	c.mark(MetricHeadingsSupported, rec.Location)
	return c
}

// 掘进凿岩：掘进米数 = 炮孔数 × 进尺；位置计入 headings_bored
func deriveFaceDrilling(e *Engine, rec Record) Contribution {
	f := e.decodeFaceDrilling(rec)
	var c Contribution
	c.add(MetricDevelopmentMetres, f.holes*f.cutLength)
	c.mark(MetricHeadingsBored, rec.Location)
	return c
}

// 运输：车次 / 运量 / 吨公里为三个独立累加器，各自校验所需因子；
// 某因子缺失仅使该累加器本条记录贡献为 0，不影响其余两项。
// 新版表单携带逐车明细时以明细为准，忽略汇总字段，避免重复累加
func deriveHauling(e *Engine, rec Record) Contribution {
	f := e.decodeHauling(rec)
	var c Contribution

	if len(f.loads) > 0 {
		for _, l := range f.loads {
			c.add(MetricTruckLoads, 1)
			if l.hasWeight {
				c.add(MetricTonnesHauled, l.weight)
			}
			if l.hasWeight && l.hasDistance {
				c.add(MetricTonneKilometres, l.weight*l.distance)
			}
		}
		return c
	}

	if f.hasTrucks {
		c.add(MetricTruckLoads, f.trucks)
	}
	if f.hasTrucks && f.hasWeight {
		c.add(MetricTonnesHauled, f.trucks*f.weight)
	}
	if f.hasTrucks && f.hasWeight && f.hasDistance {
		c.add(MetricTonneKilometres, f.trucks*f.weight*f.distance)
	}
	return c
}

// 生产凿岩：主孔 + 清孔 + 重钻三个子项之和（上游已逐孔汇总）
func deriveProductionDrilling(e *Engine, rec Record) Contribution {
	f := e.decodeProductionDrilling(rec)
	var c Contribution
	c.add(MetricProductionMetres, f.primary+f.cleanout+f.redrill)
	return c
}

// 铲装：铲斗数按子类型分流到掘进斗或生产斗；子类型无法判定按掘进处理
func deriveLoading(e *Engine, rec Record) Contribution {
	f := e.decodeLoading(rec)
	var c Contribution
	if f.production {
		c.add(MetricProductionBuckets, f.buckets)
	} else {
		c.add(MetricDevelopmentBuckets, f.buckets)
	}
	return c
}

// 装药：按千克累加，归并层统一换算为吨
func deriveCharging(e *Engine, rec Record) Contribution {
	f := e.decodeCharging(rec)
	var c Contribution
	c.add(MetricTonnesCharged, f.kilograms)
	return c
}

// 爆破：掘进爆破计位置（headings_fired），生产爆破计爆破吨量
func deriveFiring(e *Engine, rec Record) Contribution {
	f := e.decodeFiring(rec)
	var c Contribution
	if f.production {
		c.add(MetricTonnesFired, f.tonnes)
	} else {
		c.mark(MetricHeadingsFired, rec.Location)
	}
	return c
}

// 提升：矿石与废石独立累加；合计在归并层一次性计算，避免两条累加路径叠加舍入噪声
func deriveHoisting(e *Engine, rec Record) Contribution {
	f := e.decodeHoisting(rec)
	var c Contribution
	c.add(MetricOreTonnesHoisted, f.ore)
	c.add(MetricWasteTonnesHoisted, f.waste)
	return c
}

// 喷浆：喷射方量与搅拌车运送方量各自累加
func deriveShotcrete(e *Engine, rec Record) Contribution {
	f := e.decodeShotcrete(rec)
	var c Contribution
	c.add(MetricShotcreteVolume, f.sprayed)
	c.add(MetricAgiVolume, f.agi)
	return c
}

// 充填：方量与铲斗数各自累加
func deriveBackfill(e *Engine, rec Record) Contribution {
	f := e.decodeBackfill(rec)
	var c Contribution
	c.add(MetricBackfillVolume, f.volume)
	c.add(MetricBackfillBuckets, f.buckets)
	return c
}

// [自证通过] internal/metric/derive.go
