// Package parser turns short natural-language operator requests into
// typed commands. Matching is regex-based and deliberately narrow: the
// assistant falls back to asking for clarification when nothing
// matches, which is better than guessing at a deployment target.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Action identifies what the operator asked for.
type Action string

const (
	ActionDeploy           Action = "deploy"
	ActionDeploymentStatus Action = "deployment_status"
	ActionExportDatabase   Action = "export_database"
	ActionDownloadLogs     Action = "download_logs"
	ActionListEnvironments Action = "list_environments"
	ActionListApplications Action = "list_applications"
)

// Command is the structured form of a parsed request.
type Command struct {
	Action       Action
	Application  string
	Source       string
	Target       string
	Environment  string
	DeploymentID string
	// MinutesBack is set for log requests phrased as "the last N ...".
	MinutesBack int
}

// ErrNoMatch is returned when the text matches no known command shape.
var ErrNoMatch = errors.New("no command pattern matched")

var (
	deployPattern = regexp.MustCompile(
		`(?i)^\s*(?:please\s+)?deploy\s+(?:the\s+)?([\w.-]+)\s+(?:from\s+([\w.-]+)\s+)?(?:to|into)\s+(?:the\s+)?([\w.-]+)\s*$`)
	statusPattern = regexp.MustCompile(
		`(?i)(?:what(?:'s| is)\s+the\s+)?status\s+of\s+(?:deployment\s+)?([\w.-]+)`)
	exportPattern = regexp.MustCompile(
		`(?i)export\s+(?:the\s+)?(?:([\w.-]+)\s+)?(?:database|db)(?:\s+(?:from|of|in)\s+(?:the\s+)?([\w.-]+))?`)
	logsPattern = regexp.MustCompile(
		`(?i)(?:download|get|fetch|pull)\s+(?:the\s+)?logs?(?:\s+(?:from|for)\s+(?:the\s+)?last\s+(\d+)\s+(minute|hour|day)s?)?`)
	listEnvsPattern = regexp.MustCompile(
		`(?i)(?:list|show|what)\s+(?:are\s+)?(?:the\s+|my\s+)?environments`)
	listAppsPattern = regexp.MustCompile(
		`(?i)(?:list|show|what)\s+(?:are\s+)?(?:the\s+|my\s+)?app(?:lication)?s`)
)

// Parse maps text to a Command or returns ErrNoMatch. More specific
// shapes are tried before looser ones so that "list environments" is
// never swallowed by the status pattern.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, fmt.Errorf("empty request: %w", ErrNoMatch)
	}

	if m := deployPattern.FindStringSubmatch(text); m != nil {
		return Command{
			Action:      ActionDeploy,
			Application: m[1],
			Source:      m[2],
			Target:      m[3],
		}, nil
	}

	if listEnvsPattern.MatchString(text) {
		return Command{Action: ActionListEnvironments}, nil
	}
	if listAppsPattern.MatchString(text) {
		return Command{Action: ActionListApplications}, nil
	}

	if m := logsPattern.FindStringSubmatch(text); m != nil {
		cmd := Command{Action: ActionDownloadLogs}
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				return Command{}, fmt.Errorf("unusable log window %q: %w", m[1], ErrNoMatch)
			}
			cmd.MinutesBack = n * unitMinutes(m[2])
		}
		return cmd, nil
	}

	if m := exportPattern.FindStringSubmatch(text); m != nil {
		env := m[2]
		if env == "" {
			env = m[1]
		}
		if env != "" && !strings.EqualFold(env, "a") && !strings.EqualFold(env, "the") {
			return Command{Action: ActionExportDatabase, Environment: env}, nil
		}
		return Command{}, fmt.Errorf("export request names no environment: %w", ErrNoMatch)
	}

	if m := statusPattern.FindStringSubmatch(text); m != nil {
		return Command{Action: ActionDeploymentStatus, DeploymentID: m[1]}, nil
	}

	return Command{}, fmt.Errorf("request %q: %w", truncate(text, 80), ErrNoMatch)
}

func unitMinutes(unit string) int {
	switch strings.ToLower(unit) {
	case "hour":
		return 60
	case "day":
		return 24 * 60
	default:
		return 1
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
