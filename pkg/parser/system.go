package parser

import (
	"regexp"
	"strings"

	"secdash/pkg/models"
)

// uptimePattern matches `up <duration>, <N> user(s), load average(s): <a>, <b>, <c>`.
var uptimePattern = regexp.MustCompile(`up\s+(.+?),\s+\d+ users?,\s+load averages?:\s+(.+)`)

// ParseSystemMetrics builds a snapshot from the outputs of `uptime`, `free -h`
// and `df -h /`. Each section is parsed independently; fields that cannot be
// read are reported as models.Unavailable.
func ParseSystemMetrics(uptimeText, memoryText, diskText string) models.SystemSnapshot {
	uptime, loadAverage := ParseUptime(uptimeText)

	return models.SystemSnapshot{
		Uptime:      uptime,
		LoadAverage: loadAverage,
		Memory:      ParseMemory(memoryText),
		Disk:        ParseDisk(diskText),
	}
}

// ParseUptime splits `uptime` output into the uptime duration and the load
// average triple.
func ParseUptime(text string) (string, string) {
	match := uptimePattern.FindStringSubmatch(text)
	if match == nil {
		return models.Unavailable, models.Unavailable
	}
	return strings.TrimSpace(match[1]), strings.TrimSpace(match[2])
}

// ParseMemory reads columns 1-3 (total, used, free) of the second line of `free -h`.
func ParseMemory(text string) models.MemoryInfo {
	fields := dataLineFields(text)

	return models.MemoryInfo{
		Total: field(fields, 1),
		Used:  field(fields, 2),
		Free:  field(fields, 3),
	}
}

// ParseDisk reads columns 1-4 (size, used, available, use%) of the second line of `df -h /`.
func ParseDisk(text string) models.DiskInfo {
	fields := dataLineFields(text)

	return models.DiskInfo{
		Total:         field(fields, 1),
		Used:          field(fields, 2),
		Available:     field(fields, 3),
		UsePercentage: field(fields, 4),
	}
}

// dataLineFields returns the whitespace separated fields of the line after
// the header. df wraps long device names onto their own line, in which case
// the values continue on the following line.
func dataLineFields(text string) []string {
	lines := strings.Split(text, "\n")
	const dataLine = 1
	if len(lines) <= dataLine {
		return nil
	}

	fields := strings.Fields(lines[dataLine])
	if len(fields) == 1 && len(lines) > dataLine+1 {
		fields = append(fields, strings.Fields(lines[dataLine+1])...)
	}
	return fields
}

func field(fields []string, pos int) string {
	if pos >= len(fields) || fields[pos] == "" {
		return models.Unavailable
	}
	return fields[pos]
}
