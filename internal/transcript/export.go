// Package transcript reads a day's chat messages from a WhatsApp chat export.
package transcript

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fitleague/internal/store"
)

// Header shapes seen in the wild. Dates are day-first.
var (
	// [18:23, 04/10/2025] Ana: text (WhatsApp Web copy)
	webRe = regexp.MustCompile(`^\[(\d{1,2}:\d{2}), (\d{1,2}/\d{1,2}/\d{2,4})\] ([^:]+): ?(.*)$`)
	// [04/10/2025, 18:23:11] Ana: text (iOS export)
	iosRe = regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}),? (\d{1,2}:\d{2}(?::\d{2})?)\] ([^:]+): ?(.*)$`)
	// 04/10/2025 18:23 - Ana: text (Android export)
	androidRe = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}),? (\d{1,2}:\d{2}) - ([^:]+): ?(.*)$`)
	// Any other line starting with a timestamp is a system notice
	systemRe = regexp.MustCompile(`^(?:\[\d{1,2}:\d{2}, )?\[?\d{1,2}/\d{1,2}/\d{2,4}[,\] ]`)
)

// ExportSource serves transcripts from an exported chat file
type ExportSource struct {
	path string
	loc  *time.Location
}

// NewExportSource creates a source reading path, interpreting timestamps in loc
func NewExportSource(path string, loc *time.Location) *ExportSource {
	return &ExportSource{path: path, loc: loc}
}

// FetchDay returns every message sent on day, in file order
func (s *ExportSource) FetchDay(ctx context.Context, day time.Time) ([]store.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening chat export: %w", err)
	}
	defer f.Close()

	all, err := Parse(f, s.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing chat export %s: %w", s.path, err)
	}
	return FilterDay(all, day), nil
}

// FilterDay keeps the messages whose local date equals day's date
func FilterDay(msgs []store.Message, day time.Time) []store.Message {
	key := store.DayKey(day)
	var out []store.Message
	for _, m := range msgs {
		if store.DayKey(m.At.In(day.Location())) == key {
			out = append(out, m)
		}
	}
	return out
}

// Parse reads an exported chat. Lines that don't start a new message are
// appended to the previous one; system notices are dropped.
func Parse(r io.Reader, loc *time.Location) ([]store.Message, error) {
	var msgs []store.Message
	var current *store.Message

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimLeft(scanner.Text(), "\u200e\ufeff")

		msg, ok, err := parseHeader(line, loc)
		if err != nil {
			return nil, err
		}
		if ok {
			msgs = append(msgs, msg)
			current = &msgs[len(msgs)-1]
			continue
		}

		if systemRe.MatchString(line) {
			current = nil
			continue
		}
		if current != nil {
			current.Text += "\n" + line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

func parseHeader(line string, loc *time.Location) (store.Message, bool, error) {
	var date, clock, sender, text string
	if m := webRe.FindStringSubmatch(line); m != nil {
		clock, date, sender, text = m[1], m[2], m[3], m[4]
	} else if m := iosRe.FindStringSubmatch(line); m != nil {
		date, clock, sender, text = m[1], m[2], m[3], m[4]
	} else if m := androidRe.FindStringSubmatch(line); m != nil {
		date, clock, sender, text = m[1], m[2], m[3], m[4]
	} else {
		return store.Message{}, false, nil
	}

	at, err := parseTimestamp(date, clock, loc)
	if err != nil {
		return store.Message{}, false, err
	}
	return store.Message{
		Sender: strings.TrimSpace(strings.TrimLeft(sender, "~ \u202f")),
		Text:   text,
		At:     at,
	}, true, nil
}

// parseTimestamp builds a time from dd/mm/yy[yy] and hh:mm[:ss]
func parseTimestamp(date, clock string, loc *time.Location) (time.Time, error) {
	d := strings.Split(date, "/")
	c := strings.Split(clock, ":")
	nums := make([]int, 0, 6)
	for _, s := range append(d, c...) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q %q: %w", date, clock, err)
		}
		nums = append(nums, n)
	}

	day, month, year := nums[0], nums[1], nums[2]
	if year < 100 {
		year += 2000
	}
	sec := 0
	if len(c) == 3 {
		sec = nums[5]
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	return time.Date(year, time.Month(month), day, nums[3], nums[4], sec, 0, loc), nil
}
