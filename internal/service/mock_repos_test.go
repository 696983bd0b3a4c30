package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"minelog/backend/internal/model"
	pkgerrors "minelog/backend/pkg/errors"
)

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts  map[string]*model.Shift
	records *mockActivityRecordRepo // 非 nil 时 Get/List 模拟 Preload Records
	seq     int
}

func newMockShiftRepo(records *mockActivityRecordRepo) *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift), records: records}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		m.seq++
		shift.ShiftID = fmt.Sprintf("shift-%03d", m.seq)
	}
	// 模拟列默认值 version=1
	if shift.Version == 0 {
		shift.Version = 1
	}
	cp := *shift
	m.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	s, ok := m.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withRecords(s), nil
}

func (m *mockShiftRepo) GetByUserDateType(_ context.Context, userID string, date time.Time, shiftType string) (*model.Shift, error) {
	key := date.Format("2006-01-02")
	for _, s := range m.shifts {
		if s.UserID == userID && s.DateKey() == key && s.ShiftType == shiftType {
			return m.withRecords(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	// 与真实实现一致：按 ID+version 条件更新，不命中即判定并发冲突
	existing, ok := m.shifts[shift.ShiftID]
	if !ok || existing.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *shift
	cp.Version++
	cp.Records = nil
	m.shifts[shift.ShiftID] = &cp
	shift.Version = cp.Version
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.shifts, id)
	return nil
}

func (m *mockShiftRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Shift, int64, error) {
	all := m.collect(func(s *model.Shift) bool { return s.UserID == userID })
	// date DESC, shift_type ASC
	sort.Slice(all, func(i, j int) bool {
		if all[i].DateKey() != all[j].DateKey() {
			return all[i].DateKey() > all[j].DateKey()
		}
		return all[i].ShiftType < all[j].ShiftType
	})
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockShiftRepo) ListByUserRange(_ context.Context, userID string, from, to time.Time) ([]model.Shift, error) {
	fromKey, toKey := from.Format("2006-01-02"), to.Format("2006-01-02")
	all := m.collect(func(s *model.Shift) bool {
		return s.UserID == userID && s.DateKey() >= fromKey && s.DateKey() <= toKey
	})
	sortShiftsAsc(all)
	return all, nil
}

func (m *mockShiftRepo) ListByUsersRange(_ context.Context, userIDs []string, from, to time.Time) ([]model.Shift, error) {
	fromKey, toKey := from.Format("2006-01-02"), to.Format("2006-01-02")
	idSet := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		idSet[id] = true
	}
	all := m.collect(func(s *model.Shift) bool {
		return idSet[s.UserID] && s.DateKey() >= fromKey && s.DateKey() <= toKey
	})
	sortShiftsAsc(all)
	return all, nil
}

func (m *mockShiftRepo) ListAllByUser(_ context.Context, userID string) ([]model.Shift, error) {
	all := m.collect(func(s *model.Shift) bool { return s.UserID == userID })
	sortShiftsAsc(all)
	return all, nil
}

func (m *mockShiftRepo) ListAllByUsers(_ context.Context, userIDs []string) ([]model.Shift, error) {
	idSet := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		idSet[id] = true
	}
	all := m.collect(func(s *model.Shift) bool { return idSet[s.UserID] })
	sortShiftsAsc(all)
	return all, nil
}

func (m *mockShiftRepo) collect(match func(*model.Shift) bool) []model.Shift {
	var result []model.Shift
	for _, s := range m.shifts {
		if match(s) {
			result = append(result, *m.withRecords(s))
		}
	}
	return result
}

func (m *mockShiftRepo) withRecords(s *model.Shift) *model.Shift {
	cp := *s
	if m.records != nil {
		cp.Records, _ = m.records.ListByShift(nil, s.ShiftID)
	}
	return &cp
}

func sortShiftsAsc(shifts []model.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].DateKey() != shifts[j].DateKey() {
			return shifts[i].DateKey() < shifts[j].DateKey()
		}
		return shifts[i].ShiftType < shifts[j].ShiftType
	})
}

// ── Mock ActivityRecordRepository ──

type mockActivityRecordRepo struct {
	records map[string]*model.ActivityRecord
	seq     int
}

func newMockActivityRecordRepo() *mockActivityRecordRepo {
	return &mockActivityRecordRepo{records: make(map[string]*model.ActivityRecord)}
}

func (m *mockActivityRecordRepo) Create(_ context.Context, record *model.ActivityRecord) error {
	if record.RecordID == "" {
		m.seq++
		record.RecordID = fmt.Sprintf("rec-%03d", m.seq)
	}
	cp := *record
	m.records[record.RecordID] = &cp
	return nil
}

func (m *mockActivityRecordRepo) BatchCreate(_ context.Context, records []model.ActivityRecord) error {
	for i := range records {
		_ = m.Create(nil, &records[i])
	}
	return nil
}

func (m *mockActivityRecordRepo) GetByID(_ context.Context, id string) (*model.ActivityRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockActivityRecordRepo) Update(_ context.Context, record *model.ActivityRecord) error {
	if _, ok := m.records[record.RecordID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *record
	m.records[record.RecordID] = &cp
	return nil
}

func (m *mockActivityRecordRepo) Delete(_ context.Context, id string) error {
	delete(m.records, id)
	return nil
}

func (m *mockActivityRecordRepo) ListByShift(_ context.Context, shiftID string) ([]model.ActivityRecord, error) {
	var result []model.ActivityRecord
	for _, r := range m.records {
		if r.ShiftID == shiftID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockActivityRecordRepo) DeleteByShift(_ context.Context, shiftID string) error {
	for id, r := range m.records {
		if r.ShiftID == shiftID {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *mockActivityRecordRepo) CountByShift(_ context.Context, shiftID string) (int64, error) {
	var count int64
	for _, r := range m.records {
		if r.ShiftID == shiftID {
			count++
		}
	}
	return count, nil
}

// ── Mock ConnectionRepository ──

type mockConnectionRepo struct {
	conns map[string]*model.Connection
	users *mockUserRepo // 非 nil 时 Get/List 模拟 Preload 双方用户
	seq   int
}

func newMockConnectionRepo(users *mockUserRepo) *mockConnectionRepo {
	return &mockConnectionRepo{conns: make(map[string]*model.Connection), users: users}
}

func (m *mockConnectionRepo) Create(_ context.Context, conn *model.Connection) error {
	if conn.ConnectionID == "" {
		m.seq++
		conn.ConnectionID = fmt.Sprintf("conn-%03d", m.seq)
	}
	cp := *conn
	m.conns[conn.ConnectionID] = &cp
	return nil
}

func (m *mockConnectionRepo) GetByID(_ context.Context, id string) (*model.Connection, error) {
	c, ok := m.conns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withUsers(c), nil
}

func (m *mockConnectionRepo) GetBetween(_ context.Context, userA, userB string) (*model.Connection, error) {
	for _, c := range m.conns {
		if c.Status == model.ConnectionDeclined {
			continue
		}
		if (c.RequesterID == userA && c.AddresseeID == userB) ||
			(c.RequesterID == userB && c.AddresseeID == userA) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockConnectionRepo) UpdateStatus(_ context.Context, id, status, updatedBy string) error {
	c, ok := m.conns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	c.Status = status
	c.RespondedAt = &now
	c.UpdatedBy = &updatedBy
	return nil
}

func (m *mockConnectionRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.conns, id)
	return nil
}

func (m *mockConnectionRepo) ListForUser(_ context.Context, userID, status string) ([]model.Connection, error) {
	var result []model.Connection
	for _, c := range m.conns {
		if c.RequesterID != userID && c.AddresseeID != userID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		result = append(result, *m.withUsers(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ConnectionID < result[j].ConnectionID })
	return result, nil
}

func (m *mockConnectionRepo) ListPendingForUser(_ context.Context, userID string) ([]model.Connection, error) {
	var result []model.Connection
	for _, c := range m.conns {
		if c.AddresseeID == userID && c.Status == model.ConnectionPending {
			result = append(result, *m.withUsers(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ConnectionID < result[j].ConnectionID })
	return result, nil
}

func (m *mockConnectionRepo) ListAcceptedPeerIDs(_ context.Context, userID string) ([]string, error) {
	var result []string
	for _, c := range m.conns {
		if c.Status != model.ConnectionAccepted {
			continue
		}
		switch userID {
		case c.RequesterID:
			result = append(result, c.AddresseeID)
		case c.AddresseeID:
			result = append(result, c.RequesterID)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (m *mockConnectionRepo) withUsers(c *model.Connection) *model.Connection {
	cp := *c
	if m.users != nil {
		if u, ok := m.users.users[c.RequesterID]; ok {
			cp.Requester = u
		}
		if u, ok := m.users.users[c.AddresseeID]; ok {
			cp.Addressee = u
		}
	}
	return &cp
}
