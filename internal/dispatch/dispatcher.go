package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/contacts"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/models"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/render"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sender"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sendlog"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/settings"
)

// Sender is the slice of the remote client the dispatcher drives.
type Sender interface {
	SendMessage(req sender.SendMessageRequest) ([]sender.Result, error)
	SendTemplate(req sender.TemplateRequest) ([]sender.Result, error)
}

// Archive records outcomes in the local delivery archive. A nil archive is
// valid and records nothing.
type Archive interface {
	Record(recipient, content, kind, status, detail string)
}

var (
	ErrMessageRequired      = errors.New("please enter a message when turbo mode is enabled")
	ErrNothingToSend        = errors.New("please add a message or select attachments to send")
	ErrNoRecipients         = errors.New("please select at least one recipient")
	ErrInvalidSchedule      = errors.New("invalid scheduled time format")
	ErrSendInProgress       = errors.New("a send is already in progress")
	ErrTemplateNameRequired = errors.New("template name is required")
)

// Dispatcher converts one user "Send" action into a sequence of outbound
// requests and logs every outcome. Requests within one action run strictly
// in order, and no two sends may be in flight at once.
type Dispatcher struct {
	sender   Sender
	log      *sendlog.Log
	settings *settings.Store
	archive  Archive
	now      func() time.Time

	mu       sync.Mutex
	draft    Draft
	inFlight atomic.Bool
}

func New(s Sender, log *sendlog.Log, st *settings.Store, archive Archive) *Dispatcher {
	return &Dispatcher{
		sender:   s,
		log:      log,
		settings: st,
		archive:  archive,
		now:      time.Now,
	}
}

// step is one planned outbound request. A gating step aborts the rest of
// the plan when any of its recipients fails; attachment steps after a
// successful text step are isolated from each other.
type step struct {
	label string
	kind  string
	req   sender.SendMessageRequest
	gate  bool
}

// Send dispatches the current draft to the given recipients. On success the
// draft is cleared; on any validation or request failure it is preserved so
// the user can retry.
func (d *Dispatcher) Send(recipients []contacts.Contact) error {
	if !d.inFlight.CompareAndSwap(false, true) {
		d.log.Add("Send skipped: another send is still in progress", sendlog.Warning, "")
		return ErrSendInProgress
	}
	defer d.inFlight.Store(false)

	d.mu.Lock()
	draft := d.snapshotLocked()
	d.mu.Unlock()

	message := strings.TrimSpace(draft.Message)
	selected := selectedAttachments(draft)

	// Fail fast: no network call leaves this function on a validation error.
	if draft.TurboMode && message == "" {
		return ErrMessageRequired
	}
	if message == "" && len(selected) == 0 {
		return ErrNothingToSend
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	now := d.now()
	sentAt := now
	var scheduledUTC string
	if draft.Scheduled {
		t, err := parseSchedule(draft.ScheduledTime, now)
		if err != nil {
			return ErrInvalidSchedule
		}
		sentAt = t
		scheduledUTC = t.UTC().Format(time.RFC3339)
	}

	plan := buildPlan(draft, message, selected)

	numbers := make([]string, len(recipients))
	byNumber := make(map[string]contacts.Contact, len(recipients))
	for i, c := range recipients {
		numbers[i] = c.PhoneNumber
		byNumber[c.PhoneNumber] = c
	}

	anySuccess := false
	var firstErr error
	for _, s := range plan {
		// Settings are read per request, not snapshotted at click time.
		cfg := d.settings.Get()
		s.req.IsScheduled = draft.Scheduled
		s.req.ScheduledTime = scheduledUTC
		s.req.Recipients = Order(numbers, cfg.RandomizeOrder)
		s.req.TimeGapMs = cfg.TimeGap * 1000
		if render.HasVariables(s.req.Message) {
			personalized := make(map[string]string, len(recipients))
			for _, c := range recipients {
				personalized[c.PhoneNumber] = render.Render(s.req.Message, c, now, sentAt)
			}
			s.req.Personalized = personalized
		}

		results, err := d.sender.SendMessage(s.req)
		if err != nil {
			d.log.Add(fmt.Sprintf("Failed to send %s", s.label), sendlog.Error, err.Error())
			for _, n := range s.req.Recipients {
				d.record(n, s, models.StatusFailed, err.Error())
			}
			if s.gate {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		failed := d.logResults(s, draft.Scheduled, results)
		if failed == 0 {
			anySuccess = true
			continue
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to send %s to %d recipient(s)", s.label, failed)
		}
		if s.gate {
			// A recipient failure on the gating request stops the plan;
			// attachment requests are never attempted.
			return firstErr
		}
	}

	if anySuccess {
		d.mu.Lock()
		d.clearDraftLocked()
		d.mu.Unlock()
		return nil
	}
	return firstErr
}

// SendTemplate is the separate template path: one request, one log entry
// either way, no draft interaction.
func (d *Dispatcher) SendTemplate(recipients []contacts.Contact, tpl sender.Template) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(tpl.Name) == "" {
		return ErrTemplateNameRequired
	}

	numbers := make([]string, len(recipients))
	for i, c := range recipients {
		numbers[i] = c.PhoneNumber
	}

	results, err := d.sender.SendTemplate(sender.TemplateRequest{To: numbers, Template: tpl})
	if err != nil {
		d.log.Add(fmt.Sprintf("Failed to send template %s", tpl.Name), sendlog.Error, err.Error())
		for _, n := range numbers {
			d.record(n, step{label: tpl.Name, kind: models.KindTemplate}, models.StatusFailed, err.Error())
		}
		return err
	}

	failed := 0
	for _, res := range results {
		status := models.StatusSent
		if !res.IsSuccess {
			failed++
			status = models.StatusFailed
		}
		d.record(res.Recipient, step{label: tpl.Name, kind: models.KindTemplate}, status, resultDetail(res))
	}
	if failed > 0 {
		err := fmt.Errorf("template %s failed for %d recipient(s)", tpl.Name, failed)
		d.log.Add(fmt.Sprintf("Failed to send template %s", tpl.Name), sendlog.Error, err.Error())
		return err
	}

	d.log.Add(fmt.Sprintf("Template %s sent to %d recipient(s)", tpl.Name, len(numbers)), sendlog.Success, "")
	return nil
}

// buildPlan turns the draft into the ordered request sequence. Turbo mode
// is a single combined request; otherwise the text goes first as the
// gating request, then one request per selected attachment.
func buildPlan(draft Draft, message string, selected []sender.Attachment) []step {
	if draft.TurboMode {
		return []step{{
			label: "message",
			kind:  models.KindText,
			req: sender.SendMessageRequest{
				Message:     draft.Message,
				Attachments: selected,
				IsTurboMode: true,
			},
			gate: true,
		}}
	}

	var plan []step
	if message != "" {
		plan = append(plan, step{
			label: "message",
			kind:  models.KindText,
			req: sender.SendMessageRequest{
				Message:     draft.Message,
				Attachments: []sender.Attachment{},
			},
			gate: true,
		})
	}
	for _, att := range selected {
		kind := models.KindDocument
		if att.Type == sender.AttachmentImage {
			kind = models.KindImage
		}
		plan = append(plan, step{
			label: att.Name,
			kind:  kind,
			req: sender.SendMessageRequest{
				Attachments: []sender.Attachment{att},
			},
		})
	}
	return plan
}

// logResults writes one log entry and one archive row per recipient
// outcome and returns the number of failures.
func (d *Dispatcher) logResults(s step, scheduled bool, results []sender.Result) int {
	failed := 0
	for _, res := range results {
		target := res.Recipient
		if target == "" {
			target = "all recipients"
		}

		if res.IsSuccess {
			if scheduled {
				d.log.Add(fmt.Sprintf("Message scheduled for %s", target), sendlog.Success, resultDetail(res))
				d.record(res.Recipient, s, models.StatusScheduled, res.MessageID)
			} else {
				d.log.Add(fmt.Sprintf("Message sent to %s", target), sendlog.Success, resultDetail(res))
				d.record(res.Recipient, s, models.StatusSent, res.MessageID)
			}
			continue
		}

		failed++
		d.log.Add(fmt.Sprintf("Failed to send to %s", target), sendlog.Error, resultDetail(res))
		d.record(res.Recipient, s, models.StatusFailed, resultDetail(res))
	}
	return failed
}

func (d *Dispatcher) record(recipient string, s step, status, detail string) {
	if d.archive == nil {
		return
	}
	content := s.req.Message
	if content == "" {
		content = s.label
	}
	d.archive.Record(recipient, content, s.kind, status, detail)
}

func resultDetail(res sender.Result) string {
	if res.Error != nil && res.Error.Message != "" {
		return res.Error.Message
	}
	if v, ok := res.Details["error"].(string); ok {
		return v
	}
	if res.MessageID != "" {
		return "message id: " + res.MessageID
	}
	return ""
}

// parseSchedule accepts RFC3339 or the datetime-local form the dashboard
// submits, and rejects anything already in the past.
func parseSchedule(value string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, ErrInvalidSchedule
	}

	var t time.Time
	var err error
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		t, err = time.Parse(layout, value)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, ErrInvalidSchedule
	}
	if t.Before(now.Add(-time.Minute)) {
		return time.Time{}, ErrInvalidSchedule
	}
	return t, nil
}
