package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/protodo/internal/clierr"
)

// ValidateTitle rejects blank titles.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return clierr.New(clierr.ValidationError, "Task title is required")
	}
	return nil
}

// ValidateBoardName rejects blank board names.
func ValidateBoardName(name string) error {
	if strings.TrimSpace(name) == "" {
		return clierr.New(clierr.ValidationError, "Please enter a valid board name")
	}
	return nil
}

// ValidateStatus checks that a status is in the allowed list.
func ValidateStatus(status string, allowed []string) error {
	for _, s := range allowed {
		if s == status {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidStatus, "invalid status %q", status).
		WithDetails(map[string]any{
			"status":  status,
			"allowed": allowed,
		})
}

// ValidateCustomStatus checks a new custom status against the statuses
// already present on the board.
func ValidateCustomStatus(cs CustomStatus, existing []string) error {
	name := strings.TrimSpace(cs.Name)
	if name == "" {
		return clierr.New(clierr.ValidationError, "status name is required")
	}
	for _, s := range existing {
		if s == name {
			return clierr.Newf(clierr.ValidationError, "status %q already exists", name).
				WithDetails(map[string]any{"status": name})
		}
	}
	return nil
}

// ValidateDate returns an error for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid %s date: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateTaskID returns an error for a task ID that is not on the board.
func ValidateTaskID(id string) *clierr.Error {
	return clierr.Newf(clierr.TaskNotFound, "task not found: %s", id).
		WithDetails(map[string]any{"id": id})
}
