package builtin

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

func newCurrentTimeTool() *tool {
	return newTool(
		"get_current_time",
		"Return the current UTC date and time.",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(_ json.RawMessage) (string, error) {
			return fmt.Sprintf("current time (UTC): %s", time.Now().UTC().Format("2006-01-02 15:04:05")), nil
		},
	)
}

func newCalculateDateTool() *tool {
	return newTool(
		"calculate_date",
		"Compute the date a given number of days before or after a base date (default: today).",
		json.RawMessage(`{"type":"object","properties":{"days":{"type":"integer","description":"Positive for the future, negative for the past"},"from_date":{"type":"string","description":"Base date as YYYY-MM-DD; defaults to today"}},"required":["days"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Days     int    `json:"days"`
				FromDate string `json:"from_date"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			base := time.Now().UTC()
			if args.FromDate != "" {
				parsed, err := time.Parse(dateLayout, args.FromDate)
				if err != nil {
					return "", fmt.Errorf("from_date must be in YYYY-MM-DD format")
				}
				base = parsed
			}
			result := base.AddDate(0, 0, args.Days)
			direction := "after"
			days := args.Days
			if days < 0 {
				direction = "before"
				days = -days
			}
			return fmt.Sprintf("%d day(s) %s %s: %s (%s)", days, direction, base.Format(dateLayout), result.Format(dateLayout), result.Weekday()), nil
		},
	)
}

func newDaysBetweenTool() *tool {
	return newTool(
		"days_between",
		"Compute the number of days between two dates.",
		json.RawMessage(`{"type":"object","properties":{"date1":{"type":"string","description":"Start date, YYYY-MM-DD"},"date2":{"type":"string","description":"End date, YYYY-MM-DD"}},"required":["date1","date2"]}`),
		func(params json.RawMessage) (string, error) {
			var args struct {
				Date1 string `json:"date1"`
				Date2 string `json:"date2"`
			}
			if err := decodeArgs(params, &args); err != nil {
				return "", err
			}
			d1, err := time.Parse(dateLayout, args.Date1)
			if err != nil {
				return "", fmt.Errorf("date1 must be in YYYY-MM-DD format")
			}
			d2, err := time.Parse(dateLayout, args.Date2)
			if err != nil {
				return "", fmt.Errorf("date2 must be in YYYY-MM-DD format")
			}
			diff := int(d2.Sub(d1).Hours() / 24)
			abs := diff
			if abs < 0 {
				abs = -abs
			}
			return fmt.Sprintf("%s to %s: %d day(s) (signed: %d)", args.Date1, args.Date2, abs, diff), nil
		},
	)
}
