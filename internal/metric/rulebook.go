package metric

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesFS embed.FS

// ── 规则表加载错误 ──

var (
	ErrRulebookInvalid = errors.New("规则表校验失败")
)

// Rulebook 指标推导规则表
// 字段别名、设备映射与子类型归类均为数据而非代码，
// 在引擎构造时一次性注入，运行期只读
type Rulebook struct {
	Aliases   map[string]map[string][]string `yaml:"aliases"`   // 活动类型 → 规范字段 → 历史标签
	Equipment map[string]string              `yaml:"equipment"` // 设备关键词 → 活动类型
	SubTypes  map[string][]string            `yaml:"sub_types"` // development|production → 归类标签
	Totals    map[string][]string            `yaml:"totals"`    // 指标 → 预聚合历史键名
}

// LoadRulebook 从 reader 解析规则表
func LoadRulebook(r io.Reader) (*Rulebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取规则表失败: %w", err)
	}
	var rb Rulebook
	if err := yaml.Unmarshal(data, &rb); err != nil {
		return nil, fmt.Errorf("解析规则表失败: %w", err)
	}
	if err := rb.Validate(); err != nil {
		return nil, err
	}
	return &rb, nil
}

// LoadRulebookFile 从外部文件加载规则表
func LoadRulebookFile(path string) (*Rulebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开规则表文件失败: %w", err)
	}
	defer f.Close()
	return LoadRulebook(f)
}

// Validate 校验规则表引用的活动类型、指标与子类型均为已知项
func (rb *Rulebook) Validate() error {
	for activity, fields := range rb.Aliases {
		if !isActivityType(activity) {
			return fmt.Errorf("%w: aliases 含未知活动类型 %q", ErrRulebookInvalid, activity)
		}
		for field, labels := range fields {
			if len(labels) == 0 {
				return fmt.Errorf("%w: %s.%s 别名列表为空", ErrRulebookInvalid, activity, field)
			}
		}
	}
	for keyword, activity := range rb.Equipment {
		if !isActivityType(activity) {
			return fmt.Errorf("%w: equipment %q 指向未知活动类型 %q", ErrRulebookInvalid, keyword, activity)
		}
	}
	for subType := range rb.SubTypes {
		if subType != SubTypeDevelopment && subType != SubTypeProduction {
			return fmt.Errorf("%w: sub_types 含未知归类 %q", ErrRulebookInvalid, subType)
		}
	}
	for name := range rb.Totals {
		if !IsCanonical(name) {
			return fmt.Errorf("%w: totals 含未知指标 %q", ErrRulebookInvalid, name)
		}
	}
	return nil
}

// ── 引擎 ──

// Engine 指标推导引擎
// 构造时将规则表编译为归一化查找结构，之后全程只读，可并发使用
type Engine struct {
	rules *Rulebook

	fieldAliases map[string]map[string]string // 活动类型 → 归一化标签 → 规范字段
	equipment    []equipmentRule              // 关键词按长度降序，先精确后包含
	subTypes     map[string]string            // 归一化标签 → development|production
	totalsKeys   map[string]Metric            // 归一化历史键 → 指标
}

type equipmentRule struct {
	keyword  string
	activity string
}

// NewEngine 由规则表构造引擎
func NewEngine(rb *Rulebook) (*Engine, error) {
	if rb == nil {
		return nil, fmt.Errorf("%w: 规则表为空", ErrRulebookInvalid)
	}
	if err := rb.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		rules:        rb,
		fieldAliases: make(map[string]map[string]string),
		subTypes:     make(map[string]string),
		totalsKeys:   make(map[string]Metric),
	}

	for activity, fields := range rb.Aliases {
		lookup := make(map[string]string)
		for field, labels := range fields {
			lookup[normalizeKey(field)] = field
			for _, l := range labels {
				lookup[normalizeKey(l)] = field
			}
		}
		e.fieldAliases[activity] = lookup
	}

	for keyword, activity := range rb.Equipment {
		e.equipment = append(e.equipment, equipmentRule{keyword: normalizeKey(keyword), activity: activity})
	}
	sort.Slice(e.equipment, func(i, j int) bool {
		if len(e.equipment[i].keyword) != len(e.equipment[j].keyword) {
			return len(e.equipment[i].keyword) > len(e.equipment[j].keyword)
		}
		return e.equipment[i].keyword < e.equipment[j].keyword
	})

	for subType, labels := range rb.SubTypes {
		e.subTypes[normalizeKey(subType)] = subType
		for _, l := range labels {
			e.subTypes[normalizeKey(l)] = subType
		}
	}

	// 预聚合键匹配：指标标识、展示名与历史键名均可命中
	for _, m := range vocabulary {
		e.totalsKeys[normalizeKey(string(m))] = m
		e.totalsKeys[normalizeKey(m.Label())] = m
	}
	for name, keys := range rb.Totals {
		for _, k := range keys {
			e.totalsKeys[normalizeKey(k)] = Metric(name)
		}
	}

	return e, nil
}

// CanonicalField 将录入键折算为活动类型下的规范字段名
// 未命中别名表时返回归一化后的原键，保证同义键不分裂、陌生键不丢失
func (e *Engine) CanonicalField(activity, key string) string {
	norm := normalizeKey(key)
	if lookup, ok := e.fieldAliases[activity]; ok {
		if field, ok := lookup[norm]; ok {
			return field
		}
	}
	return norm
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default 返回内嵌规则表构造的引擎
// 内嵌规则表随二进制发布且经过测试，加载失败视为程序错误
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		f, err := rulesFS.Open("rules.yaml")
		if err != nil {
			panic(fmt.Sprintf("打开内嵌规则表失败: %v", err))
		}
		defer f.Close()
		rb, err := LoadRulebook(f)
		if err != nil {
			panic(fmt.Sprintf("加载内嵌规则表失败: %v", err))
		}
		e, err := NewEngine(rb)
		if err != nil {
			panic(fmt.Sprintf("构造默认引擎失败: %v", err))
		}
		defaultEngine = e
	})
	return defaultEngine
}

// [自证通过] internal/metric/rulebook.go
