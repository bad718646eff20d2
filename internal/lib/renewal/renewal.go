// Package renewal содержит таблицу периодов продления подписки.
//
// Периоды фиксированы в днях: month = 30, year = 365. Календарные
// месяцы и високосные годы намеренно не учитываются, чтобы даты
// совпадали с уже сохранёнными записями.
package renewal

import "time"

// Допустимые значения частоты списаний.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
	Yearly  = "yearly"
)

var periodDays = map[string]int{
	Daily:   1,
	Weekly:  7,
	Monthly: 30,
	Yearly:  365,
}

// Days возвращает длину периода в днях и false для неизвестной частоты.
func Days(frequency string) (int, bool) {
	d, ok := periodDays[frequency]
	return d, ok
}

// Next возвращает дату следующего продления: start + период частоты.
// Для неизвестной частоты возвращает false.
func Next(start time.Time, frequency string) (time.Time, bool) {
	days, ok := Days(frequency)
	if !ok {
		return time.Time{}, false
	}
	return start.Add(time.Duration(days) * 24 * time.Hour), true
}

// Lapsed сообщает, прошла ли дата продления относительно now.
func Lapsed(renewalDate, now time.Time) bool {
	return renewalDate.Before(now)
}
