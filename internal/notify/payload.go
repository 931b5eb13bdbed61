package notify

import (
	"fmt"
	"time"

	"github.com/dandantas/laundromat/internal/model"
)

// BuildPayload creates the completion-warning notification for a machine
func BuildPayload(machineID string, lead time.Duration) model.AlertPayload {
	minutes := int(lead / time.Minute)
	return model.AlertPayload{
		Title:     "Laundry Almost Done!",
		Body:      fmt.Sprintf("Your laundry in %s will be done in %d minutes", machineID, minutes),
		MachineID: machineID,
	}
}
