package metric

import "testing"

// ── 运输 ──

func TestDerive_Hauling_SummaryFields(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityHauling,
		Fields: map[string]string{
			"No of trucks": "4",
			"Weight":       "50",
			"Distance":     "2",
		},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricTruckLoads] != 4 {
		t.Errorf("truck_loads 期望 4, 实际 %v", c.Deltas[MetricTruckLoads])
	}
	if c.Deltas[MetricTonnesHauled] != 200 {
		t.Errorf("tonnes_hauled 期望 200, 实际 %v", c.Deltas[MetricTonnesHauled])
	}
	if c.Deltas[MetricTonneKilometres] != 400 {
		t.Errorf("tonne_kilometres 期望 400, 实际 %v", c.Deltas[MetricTonneKilometres])
	}
}

func TestDerive_Hauling_MissingDistance(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityHauling,
		Fields:       map[string]string{"trucks": "4", "weight": "50"},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricTruckLoads] != 4 {
		t.Errorf("truck_loads 期望 4, 实际 %v", c.Deltas[MetricTruckLoads])
	}
	if c.Deltas[MetricTonnesHauled] != 200 {
		t.Errorf("tonnes_hauled 期望 200, 实际 %v", c.Deltas[MetricTonnesHauled])
	}
	if _, ok := c.Deltas[MetricTonneKilometres]; ok {
		t.Error("缺少距离时 tonne_kilometres 不应有贡献")
	}
}

func TestDerive_Hauling_MissingTrucks(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityHauling,
		Fields:       map[string]string{"weight": "50", "distance": "2"},
	}
	c := e.Derive(rec)
	if len(c.Deltas) != 0 {
		t.Errorf("缺少车次时三个累加器都不应有贡献, 实际 %v", c.Deltas)
	}
}

func TestDerive_Hauling_LoadsDetail(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityHauling,
		Fields: map[string]string{
			"loads detail": `[{"weight":"50","distance":"2"},{"weight":"45 t"},{}]`,
			// 明细在场时汇总字段忽略，避免重复累加
			"trucks": "99",
			"weight": "99",
		},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricTruckLoads] != 3 {
		t.Errorf("truck_loads 期望 3, 实际 %v", c.Deltas[MetricTruckLoads])
	}
	if c.Deltas[MetricTonnesHauled] != 95 {
		t.Errorf("tonnes_hauled 期望 95, 实际 %v", c.Deltas[MetricTonnesHauled])
	}
	if c.Deltas[MetricTonneKilometres] != 100 {
		t.Errorf("tonne_kilometres 期望 100, 实际 %v", c.Deltas[MetricTonneKilometres])
	}
}

func TestDerive_Hauling_MalformedLoadsDetail(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityHauling,
		Fields: map[string]string{
			"loads detail": "not json at all",
			"trucks":       "2",
			"weight":       "30",
		},
	}
	c := e.Derive(rec)
	// 明细不可解析时回退到汇总字段
	if c.Deltas[MetricTruckLoads] != 2 {
		t.Errorf("truck_loads 期望 2, 实际 %v", c.Deltas[MetricTruckLoads])
	}
	if c.Deltas[MetricTonnesHauled] != 60 {
		t.Errorf("tonnes_hauled 期望 60, 实际 %v", c.Deltas[MetricTonnesHauled])
	}
}

// ── 支护 ──

func TestDerive_GroundSupport(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityGroundSupport,
		Location:     "N1520",
		Fields:       map[string]string{"bolts": "10", "bolt length": "2.4m"},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricGroundSupportMetres] != 24 {
		t.Errorf("ground_support_metres 期望 24, 实际 %v", c.Deltas[MetricGroundSupportMetres])
	}
	if c.Headings[MetricHeadingsSupported] != "N1520" {
		t.Errorf("headings_supported 位置信号期望 N1520, 实际 %q", c.Headings[MetricHeadingsSupported])
	}
}

func TestDerive_GroundSupport_NoLocation(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityGroundSupport,
		Fields:       map[string]string{"bolts": "10", "bolt length": "2.4"},
	}
	c := e.Derive(rec)
	if len(c.Headings) != 0 {
		t.Errorf("无位置的记录不应产生距离计数信号, 实际 %v", c.Headings)
	}
}

func TestDerive_GroundSupport_NegativeClamped(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityGroundSupport,
		Fields:       map[string]string{"bolts": "-10", "bolt length": "2.4"},
	}
	c := e.Derive(rec)
	if v := c.Deltas[MetricGroundSupportMetres]; v != 0 {
		t.Errorf("负值乘积应钳位为 0, 实际 %v", v)
	}
}

// ── 掘进凿岩 ──

func TestDerive_FaceDrilling(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityFaceDrilling,
		Location:     "Decline 5",
		Fields:       map[string]string{"No of holes": "60", "Cut length": "3.2"},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricDevelopmentMetres] != 192 {
		t.Errorf("development_metres 期望 192, 实际 %v", c.Deltas[MetricDevelopmentMetres])
	}
	if c.Headings[MetricHeadingsBored] != "Decline 5" {
		t.Errorf("headings_bored 位置信号期望 Decline 5, 实际 %q", c.Headings[MetricHeadingsBored])
	}
}

// ── 生产凿岩 ──

func TestDerive_ProductionDrilling(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityProductionDrilling,
		Fields: map[string]string{
			"primary metres":  "120",
			"cleanout metres": "15",
			"redrill metres":  "8.5",
		},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricProductionMetres] != 143.5 {
		t.Errorf("production_metres 期望 143.5, 实际 %v", c.Deltas[MetricProductionMetres])
	}
}

// ── 铲装 ──

func TestDerive_Loading_SubTypeSplit(t *testing.T) {
	e := Default()
	tests := []struct {
		subType  string
		expected Metric
	}{
		{"development", MetricDevelopmentBuckets},
		{"stope", MetricProductionBuckets},
		{"", MetricDevelopmentBuckets},
		{"whatever", MetricDevelopmentBuckets},
	}
	for _, tt := range tests {
		rec := Record{
			ActivityType: ActivityLoading,
			SubType:      tt.subType,
			Fields:       map[string]string{"buckets": "18"},
		}
		c := e.Derive(rec)
		if c.Deltas[tt.expected] != 18 {
			t.Errorf("子类型 %q 期望计入 %s=18, 实际 %v", tt.subType, tt.expected, c.Deltas)
		}
	}
}

// ── 装药 ──

func TestDerive_Charging_RawKilograms(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityCharging,
		Fields:       map[string]string{"kg charged": "500"},
	}
	c := e.Derive(rec)
	// 推导层按千克累加，换算由归并层统一完成
	if c.Deltas[MetricTonnesCharged] != 500 {
		t.Errorf("tonnes_charged 推导层期望 500(kg), 实际 %v", c.Deltas[MetricTonnesCharged])
	}
}

// ── 爆破 ──

func TestDerive_Firing_Development(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityFiring,
		SubType:      "development",
		Location:     "XC12",
		Fields:       map[string]string{"tonnes": "800"},
	}
	c := e.Derive(rec)
	if c.Headings[MetricHeadingsFired] != "XC12" {
		t.Errorf("掘进爆破应产生 headings_fired 位置信号, 实际 %v", c.Headings)
	}
	if _, ok := c.Deltas[MetricTonnesFired]; ok {
		t.Error("掘进爆破不应计入 tonnes_fired")
	}
}

func TestDerive_Firing_Production(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityFiring,
		SubType:      "production",
		Location:     "Stope 7",
		Fields:       map[string]string{"tonnes fired": "1200"},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricTonnesFired] != 1200 {
		t.Errorf("tonnes_fired 期望 1200, 实际 %v", c.Deltas[MetricTonnesFired])
	}
	if len(c.Headings) != 0 {
		t.Errorf("生产爆破不应产生距离计数信号, 实际 %v", c.Headings)
	}
}

// ── 提升 ──

func TestDerive_Hoisting_SeparateStreams(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityHoisting,
		Fields:       map[string]string{"ore tonnes": "3000", "waste tonnes": "450"},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricOreTonnesHoisted] != 3000 {
		t.Errorf("ore_tonnes_hoisted 期望 3000, 实际 %v", c.Deltas[MetricOreTonnesHoisted])
	}
	if c.Deltas[MetricWasteTonnesHoisted] != 450 {
		t.Errorf("waste_tonnes_hoisted 期望 450, 实际 %v", c.Deltas[MetricWasteTonnesHoisted])
	}
	if _, ok := c.Deltas[MetricTotalTonnesHoisted]; ok {
		t.Error("提升合计应由归并层派生, 推导层不应累加")
	}
}

// ── 喷浆与充填 ──

func TestDerive_Shotcrete(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityShotcrete,
		Fields:       map[string]string{"sprayed m3": "12.5", "agi m3": "14"},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricShotcreteVolume] != 12.5 {
		t.Errorf("shotcrete_volume 期望 12.5, 实际 %v", c.Deltas[MetricShotcreteVolume])
	}
	if c.Deltas[MetricAgiVolume] != 14 {
		t.Errorf("agi_volume 期望 14, 实际 %v", c.Deltas[MetricAgiVolume])
	}
}

func TestDerive_Backfill(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityBackfill,
		Fields:       map[string]string{"backfill m3": "220", "no of buckets": "40"},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricBackfillVolume] != 220 {
		t.Errorf("backfill_volume 期望 220, 实际 %v", c.Deltas[MetricBackfillVolume])
	}
	if c.Deltas[MetricBackfillBuckets] != 40 {
		t.Errorf("backfill_buckets 期望 40, 实际 %v", c.Deltas[MetricBackfillBuckets])
	}
}

// ── 兜底 ──

func TestDerive_UnknownActivity_Empty(t *testing.T) {
	e := Default()
	c := e.Derive(Record{ActivityType: "alchemy", Fields: map[string]string{"gold": "5"}})
	if len(c.Deltas) != 0 || len(c.Headings) != 0 {
		t.Errorf("未知活动类型应产生空贡献, 实际 %+v", c)
	}
}

func TestDerive_EquipmentFallback(t *testing.T) {
	e := Default()
	rec := Record{
		Equipment: "Bolter 3",
		Location:  "N1520",
		Fields:    map[string]string{"bolts": "5", "bolt length": "1.8"},
	}
	c := e.Derive(rec)
	if c.Deltas[MetricGroundSupportMetres] != 9 {
		t.Errorf("设备兜底推断后 ground_support_metres 期望 9, 实际 %v", c.Deltas[MetricGroundSupportMetres])
	}
}

func TestDerive_Deterministic(t *testing.T) {
	e := Default()
	rec := Record{
		ActivityType: ActivityHauling,
		Fields:       map[string]string{"trucks": "4", "weight": "50", "distance": "2"},
	}
	first := e.Derive(rec)
	for i := 0; i < 10; i++ {
		again := e.Derive(rec)
		for m, v := range first.Deltas {
			if again.Deltas[m] != v {
				t.Fatalf("第 %d 次推导 %s 结果不一致: %v != %v", i, m, again.Deltas[m], v)
			}
		}
	}
}
