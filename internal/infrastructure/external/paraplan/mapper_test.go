package paraplan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/attendance"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/shared"
	"github.com/paraplan-hub/paraplan-report-hub/pkg/timeutil"
)

func TestStatusResolution(t *testing.T) {
	m := NewMapper()

	assert.Equal(t, attendance.StatusAttendedTrial, m.Status(StatusIDAttendedTrial))
	assert.Equal(t, attendance.StatusAttendedFreeTrial, m.Status(StatusIDAttendedFreeTrial))
	assert.Equal(t, attendance.StatusWorkedOut, m.Status(StatusIDWorkedOut))
	assert.Equal(t, attendance.StatusSkip, m.Status(StatusIDSkip))
	assert.Equal(t, attendance.StatusAttend, m.Status(StatusIDAttend))

	// Resolution is case-insensitive and tolerant of unknown identifiers.
	assert.Equal(t, attendance.StatusAttend, m.Status("A9FF5B2C-F5F9-CB83-A512-9BA807F74FD2"))
	assert.Equal(t, attendance.StatusUnknown, m.Status("deadbeef-0000-0000-0000-000000000000"))
	assert.Equal(t, attendance.StatusUnknown, m.Status(""))
}

func TestLoadStatusesKeepsPreviousOnEmpty(t *testing.T) {
	m := NewMapper()
	m.LoadStatuses(StatusesDTO{Attend: "11111111-1111-1111-1111-111111111111"})

	// Refreshed entry resolves under the new identifier.
	assert.Equal(t, attendance.StatusAttend, m.Status("11111111-1111-1111-1111-111111111111"))
	// Entries the dictionary left blank keep working.
	assert.Equal(t, attendance.StatusSkip, m.Status(StatusIDSkip))
}

func TestStudentFromDTO(t *testing.T) {
	m := NewMapper()

	s, err := m.StudentFromDTO(StudentMinInfoDTO{
		ID:   "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b",
		Name: "Анна Иванова",
	})
	require.NoError(t, err)
	assert.Equal(t, "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b", s.ID)
	assert.Equal(t, "Анна Иванова", s.Name)

	_, err = m.StudentFromDTO(StudentMinInfoDTO{ID: "not-a-uuid", Name: "X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestStudentsFromDTOSkipsMalformedEntries(t *testing.T) {
	m := NewMapper()

	students := m.StudentsFromDTO([]StudentMinInfoDTO{
		{ID: "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b", Name: "Анна Иванова"},
		{ID: "not-a-uuid", Name: "X"},
		{ID: "3f2b8a1c-64d7-49e1-9c20-8f14c1a6b2d5", Name: "Борис Петров"},
	})

	require.Len(t, students, 2)
	assert.Equal(t, "Анна Иванова", students[0].Name)
	assert.Equal(t, "Борис Петров", students[1].Name)
}

func TestSubscriptionFromDTO(t *testing.T) {
	jsonData := `{
		"id": "sub-1",
		"lessonQuantity": 8,
		"endDate": {"day": 20, "month": 1, "year": 2024},
		"totalPrice": 5600.50,
		"groupList": [{"id": "g1"}, {"id": ""}]
	}`

	var dto SubscriptionDTO
	require.NoError(t, json.Unmarshal([]byte(jsonData), &dto))

	m := NewMapper()
	rec := m.SubscriptionFromDTO("student-1", dto)

	assert.Equal(t, "sub-1", rec.ID)
	assert.Equal(t, "student-1", rec.StudentID)
	assert.Equal(t, 8, rec.LessonQuantity)
	assert.Equal(t, 5600.50, rec.TotalPrice)
	require.NotNil(t, rec.EndDate)
	assert.Equal(t, timeutil.Date(2024, 1, 20), *rec.EndDate)
	assert.Equal(t, []string{"g1"}, rec.GroupIDs)
}

func TestSubscriptionFromDTOWithoutEndDate(t *testing.T) {
	m := NewMapper()

	rec := m.SubscriptionFromDTO("student-1", SubscriptionDTO{ID: "open", LessonQuantity: 4})
	assert.Nil(t, rec.EndDate)

	// A present but zero-valued date object also means "no end".
	rec = m.SubscriptionFromDTO("student-1", SubscriptionDTO{ID: "zero", EndDate: &APIDate{}})
	assert.Nil(t, rec.EndDate)
}

func TestEventFromDTO(t *testing.T) {
	jsonData := `{
		"attendance": {
			"id": "att-1",
			"dateTime": {"day": 10, "month": 1, "year": 2024, "hour": 10, "minute": 30},
			"teacherList": [
				{"teacherInfo": {"name": "Иванова А."}},
				{"teacherInfo": {"name": ""}}
			],
			"attendeeList": [
				{"studentInfo": {"id": "s1", "name": "Анна"}, "statusId": "78e0eab0-b4d4-9cd2-3c9a-bc862db3bbbc"},
				{"studentInfo": {"id": "s2", "name": "Борис"}, "statusId": "a9ff5b2c-f5f9-cb83-a512-9ba807f74fd2"}
			]
		}
	}`

	var resp AttendanceScreenResponseDTO
	require.NoError(t, json.Unmarshal([]byte(jsonData), &resp))

	m := NewMapper()
	ev := m.EventFromDTO(resp.Attendance)

	assert.Equal(t, "att-1", ev.ID)
	assert.Equal(t, "2024-01-10", timeutil.FormatDateStr(ev.DateTime))
	assert.Equal(t, "10:30", timeutil.FormatTimeStr(ev.DateTime))
	assert.Equal(t, []string{"Иванова А."}, ev.Teachers)

	require.Len(t, ev.Attendees, 2)
	assert.Equal(t, "s1", ev.Attendees[0].StudentID)
	assert.Equal(t, attendance.StatusAttendedTrial, ev.Attendees[0].Status)
	assert.Equal(t, attendance.StatusAttend, ev.Attendees[1].Status)
}

func TestGroupFromDTO(t *testing.T) {
	m := NewMapper()

	info := m.GroupFromDTO(GroupInfoDTO{
		ID:   "g1",
		Type: "Вокал",
		TeacherList: []AttendanceTeacherDTO{
			{TeacherInfo: TeacherInfoDTO{Name: "Иванова А."}},
		},
	})
	assert.Equal(t, "g1", info.ID)
	assert.Equal(t, "Вокал", info.Type)
	assert.Equal(t, "Иванова А.", info.PrimaryTeacher())

	empty := m.GroupFromDTO(GroupInfoDTO{ID: "g2"})
	assert.Equal(t, "-", empty.PrimaryTeacher())
}

func TestAPIDateRoundTrip(t *testing.T) {
	d := NewAPIDate(timeutil.Date(2024, 2, 29))
	assert.Equal(t, APIDate{Day: 29, Month: 2, Year: 2024}, d)
	assert.Equal(t, "2024-02-29", d.String())
	assert.Equal(t, timeutil.Date(2024, 2, 29), d.Time())
	assert.False(t, d.IsZero())
	assert.True(t, APIDate{}.IsZero())
}
