package logstore

import (
	"regexp"
	"strconv"

	"github.com/xhad/tier0/internal/models"
)

// Apache-style access line:
// IP - - [timestamp] "METHOD /path HTTP/1.0" STATUS SIZE "REFERER" "USER_AGENT" RESPONSE_TIME
var lineRe = regexp.MustCompile(`^(\S+) - - \[([^\]]+)\] "(\S+) (\S+) \S+" (\d+) (\d+) "([^"]*)" "([^"]*)" (\d+)`)

// ParseLine parses one access-log line, returning nil for lines that do
// not match the expected shape.
func ParseLine(line string) *models.LogEntry {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	status, _ := strconv.Atoi(m[5])
	size, _ := strconv.Atoi(m[6])
	responseTime, _ := strconv.Atoi(m[9])

	referer := m[7]
	if referer == "-" {
		referer = ""
	}

	return &models.LogEntry{
		IPAddress:    m[1],
		Timestamp:    m[2],
		Method:       m[3],
		Endpoint:     m[4],
		StatusCode:   status,
		ResponseSize: size,
		Referer:      referer,
		UserAgent:    m[8],
		ResponseTime: responseTime,
	}
}
