package syncengine

import (
	"fmt"
	"time"

	"studysync/models"

	"gorm.io/gorm"
)

// CalendarEvent is one remote calendar event, reduced to the fields the
// tracker cares about.
type CalendarEvent struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Start *time.Time `json:"start"`
}

// CalendarClient is the remote calendar the bidirectional sync talks
// to. The engine never deletes remote events, linked or not.
type CalendarClient interface {
	ListEvents() ([]CalendarEvent, error)
	CreateEvent(ev CalendarEvent) (string, error)
	UpdateEvent(ev CalendarEvent) error
}

// ImportableEvents lists remote events not yet known locally, dedup by
// stored external event id. The UI decides which of them become
// assignments.
func ImportableEvents(db *gorm.DB, userID uint, client CalendarClient) ([]CalendarEvent, error) {
	events, err := client.ListEvents()
	if err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}

	var links []models.CalendarEventLink
	if err := db.Where("user_id = ?", userID).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("loading event links: %w", err)
	}
	known := make(map[string]bool, len(links))
	for _, l := range links {
		known[l.ExternalEventID] = true
	}

	var out []CalendarEvent
	for _, ev := range events {
		if !known[ev.ID] {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ImportEvent creates a local assignment from a remote event and links
// it so later imports skip it.
func ImportEvent(db *gorm.DB, userID uint, ev CalendarEvent) (*models.Assignment, error) {
	rec := models.Assignment{
		UserID:   userID,
		Title:    truncateTitle(ev.Title),
		Deadline: ev.Start,
		Status:   models.StatusNotStarted,
		Source:   models.SourceManual,
		Note:     "Imported from calendar",
	}
	if err := db.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("creating assignment from event %s: %w", ev.ID, err)
	}
	link := models.CalendarEventLink{
		UserID:          userID,
		AssignmentID:    rec.ID,
		ExternalEventID: ev.ID,
	}
	if err := db.Create(&link).Error; err != nil {
		return nil, fmt.Errorf("linking event %s: %w", ev.ID, err)
	}
	return &rec, nil
}

// ExportAssignments walks the user's dated assignments and mirrors them
// to the calendar: create a remote event when none is linked yet,
// update the linked one otherwise. Same create-or-update contract as
// the provider reconciliation, with the event link as the match key.
func ExportAssignments(db *gorm.DB, userID uint, client CalendarClient) (created, updated int, err error) {
	var assignments []models.Assignment
	if err := db.Where("user_id = ? AND is_deleted = ? AND deadline IS NOT NULL", userID, false).
		Order("id asc").Find(&assignments).Error; err != nil {
		return 0, 0, fmt.Errorf("loading assignments: %w", err)
	}

	var links []models.CalendarEventLink
	if err := db.Where("user_id = ?", userID).Find(&links).Error; err != nil {
		return 0, 0, fmt.Errorf("loading event links: %w", err)
	}
	linkByAssignment := make(map[uint]*models.CalendarEventLink, len(links))
	for i := range links {
		linkByAssignment[links[i].AssignmentID] = &links[i]
	}

	for _, a := range assignments {
		ev := CalendarEvent{Title: a.Title, Start: a.Deadline}

		if link, ok := linkByAssignment[a.ID]; ok {
			ev.ID = link.ExternalEventID
			if err := client.UpdateEvent(ev); err != nil {
				return created, updated, fmt.Errorf("updating event for assignment %d: %w", a.ID, err)
			}
			updated++
			continue
		}

		remoteID, err := client.CreateEvent(ev)
		if err != nil {
			return created, updated, fmt.Errorf("creating event for assignment %d: %w", a.ID, err)
		}
		link := models.CalendarEventLink{
			UserID:          userID,
			AssignmentID:    a.ID,
			ExternalEventID: remoteID,
		}
		if err := db.Create(&link).Error; err != nil {
			return created, updated, fmt.Errorf("linking assignment %d: %w", a.ID, err)
		}
		created++
	}
	return created, updated, nil
}
