package contact

import "time"

// birthdayWindowDays is the length of the upcoming-birthday window, today included.
const birthdayWindowDays = 7

const monthDayLayout = "01-02"

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// birthdayKeys lists the MM-DD keys celebrated in [today, today+days).
// In non-leap years Feb 29 birthdays are celebrated on Feb 28.
func birthdayKeys(today time.Time, days int) []string {
	today = dateOf(today)
	keys := make([]string, 0, days+1)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i)
		keys = append(keys, day.Format(monthDayLayout))
		if day.Month() == time.February && day.Day() == 28 && !isLeap(day.Year()) {
			keys = append(keys, "02-29")
		}
	}
	return keys
}

// anniversary is the date the birthday is celebrated in year.
func anniversary(birthday time.Time, year int) time.Time {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysUntilBirthday returns 0 when the birthday is celebrated today.
func daysUntilBirthday(birthday, today time.Time) int {
	today = dateOf(today)
	next := anniversary(birthday, today.Year())
	if next.Before(today) {
		next = anniversary(birthday, today.Year()+1)
	}
	return int(next.Sub(today).Hours() / 24)
}
