package services

import (
	"context"
	"fmt"
	"log/slog"

	"bantayani/internal/models"
)

func requireCaller(caller models.Caller) error {
	if caller.IsZero() {
		return models.ErrUnauthenticated
	}
	return nil
}

func requireRole(caller models.Caller, role models.Role) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if caller.Role != role {
		return fmt.Errorf("%w: %s role required", models.ErrForbidden, role)
	}
	return nil
}

// announce publishes a change event. A failed publish is logged; the
// mutation it follows has already committed.
func announce(ctx context.Context, changes ChangePublisher, table string) {
	if changes == nil {
		return
	}
	if err := changes.Publish(ctx, table); err != nil {
		slog.Warn("failed to publish change event", "table", table, "error", err)
	}
}
