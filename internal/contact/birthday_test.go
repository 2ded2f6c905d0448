package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBirthdayKeys(t *testing.T) {
	cases := []struct {
		name  string
		today time.Time
		want  []string
	}{
		{
			name:  "mid year",
			today: date(2026, time.June, 10),
			want:  []string{"06-10", "06-11", "06-12", "06-13", "06-14", "06-15", "06-16"},
		},
		{
			name:  "year end wrap",
			today: date(2026, time.December, 28),
			want:  []string{"12-28", "12-29", "12-30", "12-31", "01-01", "01-02", "01-03"},
		},
		{
			name:  "non-leap february",
			today: date(2026, time.February, 25),
			want:  []string{"02-25", "02-26", "02-27", "02-28", "02-29", "03-01", "03-02", "03-03"},
		},
		{
			name:  "leap february",
			today: date(2028, time.February, 25),
			want:  []string{"02-25", "02-26", "02-27", "02-28", "02-29", "03-01", "03-02"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, birthdayKeys(tc.today, birthdayWindowDays))
		})
	}
}

func TestDaysUntilBirthday(t *testing.T) {
	cases := []struct {
		name     string
		birthday time.Time
		today    time.Time
		want     int
	}{
		{"today", date(1990, time.March, 5), date(2026, time.March, 5), 0},
		{"tomorrow", date(1990, time.March, 6), date(2026, time.March, 5), 1},
		{"yesterday wraps a year", date(1990, time.March, 4), date(2026, time.March, 5), 364},
		{"across new year", date(1985, time.January, 2), date(2026, time.December, 30), 3},
		{"leap day in non-leap year", date(2000, time.February, 29), date(2026, time.February, 27), 1},
		{"leap day in leap year", date(2000, time.February, 29), date(2028, time.February, 27), 2},
		{"time of day ignored", date(1990, time.March, 6), time.Date(2026, time.March, 5, 23, 59, 0, 0, time.UTC), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, daysUntilBirthday(tc.birthday, tc.today))
		})
	}
}
