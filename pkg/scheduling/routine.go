package scheduling

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/robfig/cron/v3"
)

// starBit is set by the cron parser on fields written as "*" or "?".
const starBit = 1 << 63

var routineParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseRoutineSpec turns a five-field cron expression such as "30 7 * * MON-FRI" into a RoutineRequest.
//
// The day-of-week field selects the allowed weekdays. A single minute and hour become the preferred
// time of day; ranges or lists there leave it unset. Day-of-month and month must be "*" and interval
// descriptors like "@every 1h" are rejected.
func ParseRoutineSpec(expr string, duration time.Duration) (RoutineRequest, error) {
	if duration <= 0 {
		return RoutineRequest{}, fmt.Errorf("%w: routine duration must be positive, got %s", ErrInvalidRequest, duration)
	}
	schedule, err := routineParser.Parse(expr)
	if err != nil {
		return RoutineRequest{}, fmt.Errorf("%w: routine %q: %v", ErrInvalidRequest, expr, err)
	}
	spec, ok := schedule.(*cron.SpecSchedule)
	if !ok {
		return RoutineRequest{}, fmt.Errorf("%w: routine %q is not a calendar expression", ErrInvalidRequest, expr)
	}
	if spec.Dom&starBit == 0 || spec.Month&starBit == 0 {
		return RoutineRequest{}, fmt.Errorf("%w: routine %q restricts day of month or month", ErrInvalidRequest, expr)
	}

	request := RoutineRequest{Duration: duration}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if spec.Dow&(1<<uint(d)) != 0 {
			request.AllowedWeekdays = append(request.AllowedWeekdays, d)
		}
	}
	minutes := spec.Minute &^ starBit
	hours := spec.Hour &^ starBit
	if bits.OnesCount64(minutes) == 1 && bits.OnesCount64(hours) == 1 {
		tod := time.Duration(bits.TrailingZeros64(hours))*time.Hour +
			time.Duration(bits.TrailingZeros64(minutes))*time.Minute
		request.PreferredTimeOfDay = &tod
	}
	return request, nil
}
