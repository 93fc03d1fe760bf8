// Package validate implements the lead data validation node.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]+$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitPattern = regexp.MustCompile(`[0-9]`)
)

const minPhoneDigits = 7

// ValidateNode checks the lead snapshot before any generation or delivery is
// attempted. It never fails the run itself; it records its verdict on the
// state and lets routing short-circuit to finalize.
type ValidateNode struct {
	enforceWorkingHours bool
	startHour           int
	endHour             int
	location            *time.Location
	logger              *slog.Logger
	now                 func() time.Time
}

func NewValidateNode(config map[string]any) (*ValidateNode, error) {
	node := &ValidateNode{
		startHour: 9,
		endHour:   18,
		location:  time.UTC,
		logger:    slog.Default().With("module", "node", "node_type", "validate"),
		now:       time.Now,
	}

	if enforce, ok := config["enforce_working_hours"].(bool); ok {
		node.enforceWorkingHours = enforce
	}

	if start, ok := config["start_hour"].(float64); ok {
		node.startHour = int(start)
	}

	if end, ok := config["end_hour"].(float64); ok {
		node.endHour = int(end)
	}

	if tz, ok := config["timezone"].(string); ok && tz != "" {
		location, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}

		node.location = location
	}

	if node.startHour < 0 || node.endHour > 24 || node.startHour >= node.endHour {
		return nil, fmt.Errorf("invalid working hours window %d-%d", node.startHour, node.endHour)
	}

	return node, nil
}

func (n *ValidateNode) Type() string {
	return "validate"
}

func (n *ValidateNode) Run(ctx context.Context, state *models.ExecutionState) error {
	state.AppendLog(models.LogLevelInfo, n.Type(), "validation started", nil)

	var errs []string

	phone := strings.TrimSpace(state.Lead.Phone)

	switch {
	case phone == "":
		errs = append(errs, "phone required")
	case !wellFormedPhone(phone):
		errs = append(errs, "phone malformed")
	}

	if strings.TrimSpace(state.Lead.Name) == "" {
		errs = append(errs, "name required")
	}

	if email := strings.TrimSpace(state.Lead.Email); email != "" && !emailPattern.MatchString(email) {
		errs = append(errs, "email malformed")
	}

	if n.enforceWorkingHours && !n.withinWorkingHours() {
		errs = append(errs, "outside working hours")
	}

	passed := len(errs) == 0
	state.SetValidation(passed, errs)

	state.AppendLog(models.LogLevelInfo, n.Type(),
		fmt.Sprintf("validation finished: passed=%t", passed),
		map[string]any{"errors": errs},
	)
	n.logger.DebugContext(ctx, "lead validated", "lead_id", state.LeadID, "passed", passed)

	return nil
}

func wellFormedPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}

	return len(digitPattern.FindAllString(phone, -1)) >= minPhoneDigits
}

func (n *ValidateNode) withinWorkingHours() bool {
	hour := n.now().In(n.location).Hour()

	return hour >= n.startHour && hour < n.endHour
}
