package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DailyWorkRecord - рабочий день пользователя: назначенные и выполненные задачи,
// отметки прихода/ухода и признак отсутствия.
// На пару (user_id, date) существует не более одной записи.
type DailyWorkRecord struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_daily_work_records_user_date,priority:1" json:"user_id"`
	Date   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_work_records_user_date,priority:2" json:"date"` // ГГГГ-ММ-ДД в опорном поясе

	AssignedTasks  datatypes.JSONSlice[string] `gorm:"not null" json:"assigned_tasks"`
	CompletedTasks datatypes.JSONSlice[string] `gorm:"not null" json:"completed_tasks"`

	// Время прихода/ухода
	CheckInTime  *time.Time `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`

	IsAbsent bool `gorm:"not null;default:false" json:"is_absent"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyWorkRecord) TableName() string {
	return "daily_work_records"
}

// NewDailyWorkRecord создает пустую запись дня
func NewDailyWorkRecord(userID uint, date string) *DailyWorkRecord {
	return &DailyWorkRecord{
		UserID:         userID,
		Date:           date,
		AssignedTasks:  datatypes.JSONSlice[string]{},
		CompletedTasks: datatypes.JSONSlice[string]{},
	}
}

// Unfinished - назначенные в этот день задачи, которые в этот же день не выполнены
func (r *DailyWorkRecord) Unfinished() []string {
	return RemoveTasks(r.AssignedTasks, r.CompletedTasks...)
}

// Apply применяет изменения к записи и сообщает, изменилось ли что-нибудь
func (r *DailyWorkRecord) Apply(p RecordPatch) bool {
	changed := false

	if p.Assigned != nil {
		next := p.Assigned.apply(r.AssignedTasks)
		if !SameTasks(next, r.AssignedTasks) {
			r.AssignedTasks = datatypes.NewJSONSlice(next)
			changed = true
		}
	}

	if p.Completed != nil {
		next := p.Completed.apply(r.CompletedTasks)
		if !SameTasks(next, r.CompletedTasks) {
			r.CompletedTasks = datatypes.NewJSONSlice(next)
			changed = true
		}
	}

	if p.CheckInTime != nil && (r.CheckInTime == nil || !r.CheckInTime.Equal(*p.CheckInTime)) {
		t := *p.CheckInTime
		r.CheckInTime = &t
		changed = true
	}

	if p.CheckOutTime != nil && (r.CheckOutTime == nil || !r.CheckOutTime.Equal(*p.CheckOutTime)) {
		t := *p.CheckOutTime
		r.CheckOutTime = &t
		changed = true
	}

	if p.IsAbsent != nil && r.IsAbsent != *p.IsAbsent {
		r.IsAbsent = *p.IsAbsent
		changed = true
	}

	r.normalize()
	return changed
}

func (r *DailyWorkRecord) normalize() {
	if r.AssignedTasks == nil {
		r.AssignedTasks = datatypes.JSONSlice[string]{}
	}
	if r.CompletedTasks == nil {
		r.CompletedTasks = datatypes.JSONSlice[string]{}
	}
}

// IsValid проверяет валидность данных
func (r *DailyWorkRecord) IsValid() bool {
	if r.UserID == 0 {
		return false
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return false
	}
	if r.CheckInTime != nil && r.CheckOutTime != nil && r.CheckOutTime.Before(*r.CheckInTime) {
		return false
	}
	return true
}

func (r *DailyWorkRecord) String() string {
	return fmt.Sprintf("record(user=%d, date=%s, assigned=%v, completed=%v, absent=%t)",
		r.UserID, r.Date, []string(r.AssignedTasks), []string(r.CompletedTasks), r.IsAbsent)
}

type MergeMode int

const (
	// MergeUnion добавляет задачи к набору (повторы схлопываются)
	MergeUnion MergeMode = iota
	// MergeReplace заменяет набор целиком
	MergeReplace
	// MergeRemove убирает задачи из набора
	MergeRemove
)

// TaskSetPatch - изменение одного набора задач
type TaskSetPatch struct {
	Mode  MergeMode
	Tasks []string
}

func (p *TaskSetPatch) apply(current []string) []string {
	switch p.Mode {
	case MergeReplace:
		return NormalizeTasks(p.Tasks)
	case MergeRemove:
		return RemoveTasks(current, p.Tasks...)
	default:
		return UnionTasks(current, p.Tasks...)
	}
}

// RecordPatch - частичное изменение записи дня. nil-поля не трогаются.
type RecordPatch struct {
	Assigned     *TaskSetPatch
	Completed    *TaskSetPatch
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	IsAbsent     *bool
}

func UnionPatch(tasks ...string) *TaskSetPatch {
	return &TaskSetPatch{Mode: MergeUnion, Tasks: tasks}
}

func RemovePatch(tasks ...string) *TaskSetPatch {
	return &TaskSetPatch{Mode: MergeRemove, Tasks: tasks}
}

func ReplacePatch(tasks ...string) *TaskSetPatch {
	return &TaskSetPatch{Mode: MergeReplace, Tasks: tasks}
}
