package dispatch

import (
	"errors"
	"math/rand"
	"time"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sender"
)

// Draft is the compose state a send acts on: message text, attachments,
// which attachments are selected, and the turbo/schedule switches. It is
// preserved unchanged when a send fails so the user can retry.
type Draft struct {
	Message       string              `json:"message"`
	Attachments   []sender.Attachment `json:"attachments"`
	Selected      []float64           `json:"selectedAttachments"`
	TurboMode     bool                `json:"isTurboMode"`
	Scheduled     bool                `json:"isScheduled"`
	ScheduledTime string              `json:"scheduledTime,omitempty"`
}

var ErrAttachmentNotFound = errors.New("attachment not found")

// Draft returns a snapshot of the current compose state.
func (d *Dispatcher) Draft() Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Dispatcher) snapshotLocked() Draft {
	snap := d.draft
	snap.Attachments = append([]sender.Attachment{}, d.draft.Attachments...)
	snap.Selected = append([]float64{}, d.draft.Selected...)
	return snap
}

func (d *Dispatcher) SetMessage(message string) {
	d.mu.Lock()
	d.draft.Message = message
	d.mu.Unlock()
}

func (d *Dispatcher) SetTurboMode(on bool) {
	d.mu.Lock()
	d.draft.TurboMode = on
	d.mu.Unlock()
}

func (d *Dispatcher) SetSchedule(on bool, scheduledTime string) {
	d.mu.Lock()
	d.draft.Scheduled = on
	d.draft.ScheduledTime = scheduledTime
	d.mu.Unlock()
}

// AddAttachment appends a new attachment and auto-selects it, mirroring
// the upload flow where fresh files are selected for the next send.
func (d *Dispatcher) AddAttachment(name, kind, caption, url string) sender.Attachment {
	att := sender.Attachment{
		ID:      float64(time.Now().UnixMilli()) + rand.Float64(),
		Name:    name,
		Type:    kind,
		Caption: caption,
		URL:     url,
	}

	d.mu.Lock()
	d.draft.Attachments = append(d.draft.Attachments, att)
	d.draft.Selected = append(d.draft.Selected, att.ID)
	d.mu.Unlock()
	return att
}

func (d *Dispatcher) UpdateAttachment(id float64, name, caption string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.draft.Attachments {
		if d.draft.Attachments[i].ID == id {
			d.draft.Attachments[i].Name = name
			d.draft.Attachments[i].Caption = caption
			return nil
		}
	}
	return ErrAttachmentNotFound
}

// RemoveAttachments deletes the given attachments and drops them from the
// selection.
func (d *Dispatcher) RemoveAttachments(ids []float64) int {
	drop := make(map[float64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	var kept []sender.Attachment
	for _, att := range d.draft.Attachments {
		if drop[att.ID] {
			removed++
			continue
		}
		kept = append(kept, att)
	}
	d.draft.Attachments = kept

	var selection []float64
	for _, id := range d.draft.Selected {
		if !drop[id] {
			selection = append(selection, id)
		}
	}
	d.draft.Selected = selection
	return removed
}

func (d *Dispatcher) SetSelection(ids []float64) {
	d.mu.Lock()
	d.draft.Selected = append([]float64{}, ids...)
	d.mu.Unlock()
}

// clearDraftLocked resets the compose state after a successful send. The
// turbo switch survives; everything else is cleared, including scheduling.
func (d *Dispatcher) clearDraftLocked() {
	d.draft.Message = ""
	d.draft.Attachments = nil
	d.draft.Selected = nil
	d.draft.Scheduled = false
	d.draft.ScheduledTime = ""
}

// selectedAttachments resolves the selection against the attachment list,
// preserving attachment order.
func selectedAttachments(draft Draft) []sender.Attachment {
	selected := make(map[float64]bool, len(draft.Selected))
	for _, id := range draft.Selected {
		selected[id] = true
	}
	var out []sender.Attachment
	for _, att := range draft.Attachments {
		if selected[att.ID] {
			out = append(out, att)
		}
	}
	return out
}
