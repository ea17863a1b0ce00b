// Package cronspec holds the cron dialect shared by the scheduler and config:
// six fields with a leading seconds field, plus @descriptors.
package cronspec

import "github.com/robfig/cron/v3"

// Parser accepts "sec min hour dom month dow" and descriptors like @daily.
var Parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Parse parses spec with Parser.
func Parse(spec string) (cron.Schedule, error) {
	return Parser.Parse(spec)
}
