// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/taiga/lib/taiga"
)

const ellipsis = "..."

// TruncateTitle shortens title to at most width characters. A title
// longer than width keeps its first width-3 characters followed by
// "...". Widths count runes, not bytes.
func TruncateTitle(title string, width int) string {
	runes := []rune(title)
	if len(runes) <= width {
		return title
	}
	keep := width - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + ellipsis
}

func referenceTitle(glyph string, ref int64, subject string) string {
	return glyph + " #" + strconv.FormatInt(ref, 10) + " " + subject
}

// assigneeName prefers the full display name.
func assigneeName(assignee *taiga.AssigneeExtraInfo) string {
	if assignee == nil {
		return ""
	}
	if assignee.FullNameDisplay != "" {
		return assignee.FullNameDisplay
	}
	return assignee.Username
}

// statusLine renders "*(Status)* - Assignee" with either half omitted
// when absent.
func statusLine(status *taiga.StatusExtraInfo, assignee *taiga.AssigneeExtraInfo, assigneeWidth int) string {
	var parts []string
	if status != nil && status.Name != "" {
		parts = append(parts, "*("+status.Name+")*")
	}
	if name := assigneeName(assignee); name != "" {
		parts = append(parts, TruncateTitle(name, assigneeWidth))
	}
	return strings.Join(parts, " - ")
}

func workTooltip(ref int64, subject string, status *taiga.StatusExtraInfo, assignee *taiga.AssigneeExtraInfo) string {
	statusName := "N/A"
	if status != nil && status.Name != "" {
		statusName = status.Name
	}
	assigned := assigneeName(assignee)
	if assigned == "" {
		assigned = "Unassigned"
	}
	return "#" + strconv.FormatInt(ref, 10) + ": " + subject +
		"\nStatus: " + statusName +
		"\nAssigned to: " + assigned
}

// sprintRange is "start → end", empty when both dates are missing.
func sprintRange(sprint taiga.Milestone) string {
	if sprint.EstimatedStart == "" && sprint.EstimatedFinish == "" {
		return ""
	}
	return formatDate(sprint.EstimatedStart) + " → " + formatDate(sprint.EstimatedFinish)
}

func sprintTooltip(sprint taiga.Milestone) string {
	state := "Active"
	if sprint.Closed {
		state = "Closed"
	}
	return "Sprint: " + sprint.Name +
		"\nStart: " + formatDate(sprint.EstimatedStart) +
		"\nEnd: " + formatDate(sprint.EstimatedFinish) +
		"\nStatus: " + state
}

// formatDate renders a Taiga calendar date as "2 Jan 2006". Unparseable
// values are shown as received; missing ones as N/A.
func formatDate(date string) string {
	if date == "" {
		return "N/A"
	}
	parsed, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return parsed.Format("2 Jan 2006")
}
