package render

import (
	"strconv"
	"time"
)

// RelativeTime formats the distance from t to now in Dutch: seconds below a
// minute, minutes below an hour, hours ("u") below a day, days otherwise.
// Times in the future read as "0s geleden".
func RelativeTime(t, now time.Time) string {
	diff := int64(now.Sub(t) / time.Second)
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < 60:
		return strconv.FormatInt(diff, 10) + "s geleden"
	case diff < 3600:
		return strconv.FormatInt(diff/60, 10) + "m geleden"
	case diff < 86400:
		return strconv.FormatInt(diff/3600, 10) + "u geleden"
	default:
		return strconv.FormatInt(diff/86400, 10) + "d geleden"
	}
}
