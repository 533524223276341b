// Package timeutil provides calendar utilities for Moscow time (UTC+3).
// Paraplan CRM reports wall-clock Moscow dates, so all period arithmetic
// and report formatting is done against the Moscow calendar.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// MoscowTZ is the Moscow timezone (UTC+3, no DST).
// Russia abolished seasonal clock changes in 2014, so this is constant year-round.
var MoscowTZ = time.FixedZone("MSK", 3*60*60)

// Now returns the current time in Moscow timezone.
func Now() time.Time {
	return time.Now().In(MoscowTZ)
}

// ToMoscow converts a time to Moscow timezone.
func ToMoscow(t time.Time) time.Time {
	return t.In(MoscowTZ)
}

// Date creates a midnight time in Moscow timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, MoscowTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Moscow timezone.
func StartOfDay(t time.Time) time.Time {
	m := ToMoscow(t)
	return time.Date(m.Year(), m.Month(), m.Day(), 0, 0, 0, 0, MoscowTZ)
}

// IsSameDay checks if two times fall on the same Moscow calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	m1, m2 := ToMoscow(t1), ToMoscow(t2)
	return m1.Year() == m2.Year() && m1.YearDay() == m2.YearDay()
}

// IsLeapYear reports whether the given year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// daysInMonth is the standard days-in-month table for non-leap years.
var daysInMonth = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysIn returns the number of calendar days in the given month,
// accounting for February in leap years.
func DaysIn(year int, month time.Month) int {
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return daysInMonth[month]
}

// LastDayOfMonth returns the last calendar day of the month containing t.
func LastDayOfMonth(t time.Time) time.Time {
	m := ToMoscow(t)
	return Date(m.Year(), int(m.Month()), DaysIn(m.Year(), m.Month()))
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Moscow timezone.
func FormatDateStr(t time.Time) string {
	return ToMoscow(t).Format(FormatDate)
}

// FormatTimeStr formats a time as a time string (HH:MM) in Moscow timezone.
func FormatTimeStr(t time.Time) string {
	return ToMoscow(t).Format(FormatTime)
}

// FormatDateTimeStr formats a time as a datetime string in Moscow timezone.
func FormatDateTimeStr(t time.Time) string {
	return ToMoscow(t).Format(FormatDateTime)
}

// monthNamesRuGenitive holds Russian month names in the genitive case,
// as they appear after a day number ("20 Января 2024").
var monthNamesRuGenitive = [13]string{
	"", "Января", "Февраля", "Марта", "Апреля", "Мая", "Июня",
	"Июля", "Августа", "Сентября", "Октября", "Ноября", "Декабря",
}

// MonthNameRuGenitive returns the Russian genitive name for a month.
func MonthNameRuGenitive(m time.Month) string {
	if int(m) >= 1 && int(m) <= 12 {
		return monthNamesRuGenitive[m]
	}
	return ""
}

// FormatRuLongDate formats a date the way Paraplan report columns expect it,
// e.g. "20 Января 2024".
func FormatRuLongDate(t time.Time) string {
	m := ToMoscow(t)
	return fmt.Sprintf("%d %s %d", m.Day(), MonthNameRuGenitive(m.Month()), m.Year())
}

// EachDay calls fn for every calendar day from start through end inclusive.
// It stops early and returns fn's error if fn fails.
func EachDay(start, end time.Time, fn func(day time.Time) error) error {
	for day := StartOfDay(start); !day.After(StartOfDay(end)); day = day.AddDate(0, 0, 1) {
		if err := fn(day); err != nil {
			return err
		}
	}
	return nil
}
