package risk

import "time"

// DailyTradeCounter counts positions opened on the current calendar day of loc.
// The zero day means nothing has been opened yet; a new day replaces the old count.
type DailyTradeCounter struct {
	loc   *time.Location
	day   string
	count int
}

func NewDailyTradeCounter(loc *time.Location) *DailyTradeCounter {
	if loc == nil {
		loc = time.UTC
	}

	return &DailyTradeCounter{loc: loc}
}

func (c *DailyTradeCounter) key(at time.Time) string {
	return at.In(c.loc).Format(time.DateOnly)
}

// Count returns the number of opens on the day containing at.
func (c *DailyTradeCounter) Count(at time.Time) int {
	if c.day != c.key(at) {
		return 0
	}

	return c.count
}

// Increment records an open at at and returns the new count for that day.
func (c *DailyTradeCounter) Increment(at time.Time) int {
	k := c.key(at)
	if c.day != k {
		c.day = k
		c.count = 0
	}

	c.count++

	return c.count
}
