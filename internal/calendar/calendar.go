// Package calendar builds Google Calendar prefill links for scheduling
// topic review sessions.
package calendar

import (
	"fmt"
	"net/url"
	"time"
)

const renderBase = "https://www.google.com/calendar/render"

// timeLayout is the basic ISO form the render endpoint expects.
const timeLayout = "20060102T150405Z"

// ReviewEventLink returns a calendar-event prefill URL for a one-hour
// review of the topic starting at the given time.
func ReviewEventLink(topic string, start time.Time) string {
	startUTC := start.UTC()
	end := startUTC.Add(time.Hour)

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", fmt.Sprintf("Review: %s", topic))
	q.Set("dates", startUTC.Format(timeLayout)+"/"+end.Format(timeLayout))
	q.Set("details", fmt.Sprintf("Review session for %q scheduled from cotes.", topic))

	return renderBase + "?" + q.Encode()
}
