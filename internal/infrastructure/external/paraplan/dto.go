// Package paraplan implements the Paraplan CRM API client.
package paraplan

import (
	"fmt"
	"time"

	"github.com/paraplan-hub/paraplan-report-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATE TYPES
// ══════════════════════════════════════════════════════════════════════════════

// APIDate is the day/month/year object Paraplan uses in request and
// response bodies instead of a formatted date string.
type APIDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewAPIDate builds an APIDate from a time.Time.
func NewAPIDate(t time.Time) APIDate {
	return APIDate{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// Time converts the APIDate to a time.Time in the CRM timezone.
func (d APIDate) Time() time.Time {
	return timeutil.Date(d.Year, d.Month, d.Day)
}

// IsZero reports whether the date carries no value.
func (d APIDate) IsZero() bool {
	return d.Day == 0 && d.Month == 0 && d.Year == 0
}

func (d APIDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// APIDateTime extends APIDate with the time of day.
type APIDateTime struct {
	Day    int `json:"day"`
	Month  int `json:"month"`
	Year   int `json:"year"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Time converts the APIDateTime to a time.Time in the CRM timezone.
func (d APIDateTime) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, 0, 0, timeutil.MoscowTZ)
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// LoginRequestDTO is the body of POST /api/public/login.
// LoginType and Locale are fixed values the CRM expects from this client.
type LoginRequestDTO struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Locale     string `json:"locale"`
	LoginType  string `json:"loginType"`
	RememberMe bool   `json:"rememberMe"`
	Captcha    string `json:"captcha"`
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// StudentListRequestDTO is the body of the min-info student listing call.
type StudentListRequestDTO struct {
	CurrentOnly bool `json:"currentOnly"`
}

// StudentMinInfoDTO is a single entry of the min-info student listing.
type StudentMinInfoDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StudentListResponseDTO wraps the min-info student listing.
type StudentListResponseDTO struct {
	StudentList []StudentMinInfoDTO `json:"studentList"`
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// SubscriptionGroupDTO is a group reference inside a subscription.
type SubscriptionGroupDTO struct {
	ID string `json:"id"`
}

// SubscriptionDTO is a single subscription of a student.
type SubscriptionDTO struct {
	ID             string                 `json:"id"`
	LessonQuantity int                    `json:"lessonQuantity"`
	EndDate        *APIDate               `json:"endDate"`
	TotalPrice     float64                `json:"totalPrice"`
	GroupList      []SubscriptionGroupDTO `json:"groupList"`
}

// SubscriptionPageDTO is a page of the student subscriptions listing.
type SubscriptionPageDTO struct {
	ItemList []SubscriptionDTO `json:"itemList"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE
// ══════════════════════════════════════════════════════════════════════════════

// BreakdownAttendanceDTO is an attendance reference in the daily breakdown.
type BreakdownAttendanceDTO struct {
	ID string `json:"id"`
}

// BreakdownDTO lists the attendances scheduled for one day.
type BreakdownDTO struct {
	AttendanceList []BreakdownAttendanceDTO `json:"attendanceList"`
}

// BreakdownResponseDTO wraps the daily attendance breakdown.
type BreakdownResponseDTO struct {
	Breakdown BreakdownDTO `json:"breakdown"`
}

// TeacherInfoDTO carries the teacher display name.
type TeacherInfoDTO struct {
	Name string `json:"name"`
}

// AttendanceTeacherDTO is a teacher entry of an attendance screen.
type AttendanceTeacherDTO struct {
	TeacherInfo TeacherInfoDTO `json:"teacherInfo"`
}

// AttendeeStudentDTO identifies the student of an attendee entry.
type AttendeeStudentDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AttendeeDTO is a single attendee of an attendance screen.
type AttendeeDTO struct {
	StudentInfo AttendeeStudentDTO `json:"studentInfo"`
	StatusID    string             `json:"statusId"`
}

// AttendanceDTO is the attendance object of the attendance screen response.
type AttendanceDTO struct {
	ID           string                 `json:"id"`
	DateTime     APIDateTime            `json:"dateTime"`
	TeacherList  []AttendanceTeacherDTO `json:"teacherList"`
	AttendeeList []AttendeeDTO          `json:"attendeeList"`
}

// AttendanceScreenResponseDTO wraps a single attendance screen.
type AttendanceScreenResponseDTO struct {
	Attendance AttendanceDTO `json:"attendance"`
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUPS AND DICTIONARIES
// ══════════════════════════════════════════════════════════════════════════════

// GroupInfoDTO is the group details response.
type GroupInfoDTO struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	TeacherList []AttendanceTeacherDTO `json:"teacherList"`
}

// StatusesDTO maps attendance status names to their CRM identifiers. The
// dictionary endpoint returns these, but the identifiers have been stable
// for years so the mapper also ships them as constants.
type StatusesDTO struct {
	AttendedTrial     string `json:"ATTENDED_TRIAL"`
	AttendedFreeTrial string `json:"ATTENDED_FREE_TRIAL"`
	WorkedOut         string `json:"WORKED_OUT"`
	Skip              string `json:"SKIP"`
	Attend            string `json:"ATTEND"`
}
