package queue

import (
	"fmt"
	"time"
)

// Schedule yields the run times of a periodic task.
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

// EveryInterval runs a task every d after the previous run.
func EveryInterval(d time.Duration) Schedule {
	return interval(d)
}

// DailyAt runs a task once a day at hour:minute in the location of the
// time it is asked about.
func DailyAt(hour, minute int) Schedule {
	return daily{hour: hour, minute: minute}
}

type interval time.Duration

func (s interval) Next(from time.Time) time.Time { return from.Add(time.Duration(s)) }
func (s interval) String() string                { return "every " + time.Duration(s).String() }

type daily struct {
	hour, minute int
}

func (s daily) Next(from time.Time) time.Time {
	y, m, d := from.Date()
	next := time.Date(y, m, d, s.hour, s.minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s daily) String() string {
	return fmt.Sprintf("daily at %02d:%02d", s.hour, s.minute)
}
