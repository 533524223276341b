// Package paraplan implements the Paraplan CRM API client.
package paraplan

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/attendance"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/group"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/shared"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/student"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS IDENTIFIERS
// ══════════════════════════════════════════════════════════════════════════════

// Attendance status identifiers as issued by the CRM. They are tenant-wide
// constants, not per-account values.
const (
	StatusIDAttendedTrial     = "78e0eab0-b4d4-9cd2-3c9a-bc862db3bbbc"
	StatusIDAttendedFreeTrial = "fea4db4a-b812-a27f-1d02-998fc23f76b3"
	StatusIDWorkedOut         = "57b3be44-8863-4a04-18e3-492314751701"
	StatusIDSkip              = "0376516a-2bfc-dbbc-8fe7-9c35e7b18365"
	StatusIDAttend            = "a9ff5b2c-f5f9-cb83-a512-9ba807f74fd2"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER
// ══════════════════════════════════════════════════════════════════════════════

// Mapper converts Paraplan DTOs into domain entities. It owns the status
// identifier table, which can be refreshed from the dictionary endpoint.
type Mapper struct {
	statusByID map[string]attendance.Status
	logger     *slog.Logger
}

// NewMapper creates a Mapper preloaded with the known status identifiers.
func NewMapper() *Mapper {
	m := &Mapper{
		statusByID: make(map[string]attendance.Status),
		logger:     slog.Default(),
	}
	m.LoadStatuses(StatusesDTO{
		AttendedTrial:     StatusIDAttendedTrial,
		AttendedFreeTrial: StatusIDAttendedFreeTrial,
		WorkedOut:         StatusIDWorkedOut,
		Skip:              StatusIDSkip,
		Attend:            StatusIDAttend,
	})
	return m
}

// LoadStatuses replaces the status table with identifiers fetched from the
// CRM dictionary. Empty entries keep their previous value.
func (m *Mapper) LoadStatuses(dto StatusesDTO) {
	set := func(id string, status attendance.Status) {
		if id != "" {
			m.statusByID[strings.ToLower(id)] = status
		}
	}
	set(dto.AttendedTrial, attendance.StatusAttendedTrial)
	set(dto.AttendedFreeTrial, attendance.StatusAttendedFreeTrial)
	set(dto.WorkedOut, attendance.StatusWorkedOut)
	set(dto.Skip, attendance.StatusSkip)
	set(dto.Attend, attendance.StatusAttend)
}

// Status resolves a CRM status identifier to the domain status.
// Unknown identifiers map to StatusUnknown rather than failing the event.
func (m *Mapper) Status(statusID string) attendance.Status {
	if statusID == "" {
		return attendance.StatusUnknown
	}
	if status, ok := m.statusByID[strings.ToLower(statusID)]; ok {
		return status
	}
	return attendance.StatusUnknown
}

// StudentFromDTO converts a min-info student entry.
func (m *Mapper) StudentFromDTO(dto StudentMinInfoDTO) (student.Student, error) {
	if _, err := uuid.Parse(dto.ID); err != nil {
		return student.Student{}, shared.NewDomainError("paraplan", "StudentFromDTO", shared.ErrInvalidFormat,
			fmt.Sprintf("student id %q is not a valid identifier", dto.ID))
	}
	return student.Student{ID: dto.ID, Name: dto.Name}, nil
}

// StudentsFromDTO converts the min-info student listing. A malformed entry
// is logged and skipped so one bad record cannot fail the whole roster.
func (m *Mapper) StudentsFromDTO(dtos []StudentMinInfoDTO) []student.Student {
	students := make([]student.Student, 0, len(dtos))
	for _, dto := range dtos {
		s, err := m.StudentFromDTO(dto)
		if err != nil {
			m.logger.Warn("skipping malformed student entry",
				"id", dto.ID, "name", dto.Name, "error", err)
			continue
		}
		students = append(students, s)
	}
	return students
}

// SubscriptionFromDTO converts a subscription entry.
func (m *Mapper) SubscriptionFromDTO(studentID string, dto SubscriptionDTO) subscription.Record {
	record := subscription.Record{
		ID:             dto.ID,
		StudentID:      studentID,
		LessonQuantity: dto.LessonQuantity,
		TotalPrice:     dto.TotalPrice,
	}
	if dto.EndDate != nil && !dto.EndDate.IsZero() {
		endDate := dto.EndDate.Time()
		record.EndDate = &endDate
	}
	for _, g := range dto.GroupList {
		if g.ID != "" {
			record.GroupIDs = append(record.GroupIDs, g.ID)
		}
	}
	return record
}

// SubscriptionsFromDTO converts a subscription page.
func (m *Mapper) SubscriptionsFromDTO(studentID string, page SubscriptionPageDTO) []subscription.Record {
	records := make([]subscription.Record, 0, len(page.ItemList))
	for _, dto := range page.ItemList {
		records = append(records, m.SubscriptionFromDTO(studentID, dto))
	}
	return records
}

// EventFromDTO converts an attendance screen into a domain event.
func (m *Mapper) EventFromDTO(dto AttendanceDTO) attendance.Event {
	event := attendance.Event{
		ID:       dto.ID,
		DateTime: dto.DateTime.Time(),
	}
	for _, t := range dto.TeacherList {
		if t.TeacherInfo.Name != "" {
			event.Teachers = append(event.Teachers, t.TeacherInfo.Name)
		}
	}
	for _, a := range dto.AttendeeList {
		event.Attendees = append(event.Attendees, attendance.Attendee{
			StudentID:   a.StudentInfo.ID,
			StudentName: a.StudentInfo.Name,
			Status:      m.Status(a.StatusID),
		})
	}
	return event
}

// GroupFromDTO converts a group details response.
func (m *Mapper) GroupFromDTO(dto GroupInfoDTO) group.Info {
	info := group.Info{ID: dto.ID, Type: dto.Type}
	for _, t := range dto.TeacherList {
		if t.TeacherInfo.Name != "" {
			info.Teachers = append(info.Teachers, t.TeacherInfo.Name)
		}
	}
	return info
}
