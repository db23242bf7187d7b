package dispatch

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/contacts"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sender"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sendlog"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/settings"
)

type fakeSender struct {
	requests  []sender.SendMessageRequest
	templates []sender.TemplateRequest

	respond         func(call int, req sender.SendMessageRequest) ([]sender.Result, error)
	respondTemplate func(req sender.TemplateRequest) ([]sender.Result, error)
}

func (f *fakeSender) SendMessage(req sender.SendMessageRequest) ([]sender.Result, error) {
	call := len(f.requests)
	f.requests = append(f.requests, req)
	if f.respond != nil {
		return f.respond(call, req)
	}
	results := make([]sender.Result, len(req.Recipients))
	for i, to := range req.Recipients {
		results[i] = sender.Result{Recipient: to, IsSuccess: true}
	}
	return results, nil
}

func (f *fakeSender) SendTemplate(req sender.TemplateRequest) ([]sender.Result, error) {
	f.templates = append(f.templates, req)
	if f.respondTemplate != nil {
		return f.respondTemplate(req)
	}
	results := make([]sender.Result, len(req.To))
	for i, to := range req.To {
		results[i] = sender.Result{Recipient: to, IsSuccess: true}
	}
	return results, nil
}

type archiveRow struct {
	Recipient, Content, Kind, Status, Detail string
}

type fakeArchive struct {
	rows []archiveRow
}

func (f *fakeArchive) Record(recipient, content, kind, status, detail string) {
	f.rows = append(f.rows, archiveRow{recipient, content, kind, status, detail})
}

func newTestDispatcher(fake *fakeSender) (*Dispatcher, *settings.Store) {
	st := settings.NewStore()
	d := New(fake, sendlog.New(), st, nil)
	return d, st
}

var testRecipients = []contacts.Contact{
	{PhoneNumber: "+111", Name: "Alice"},
	{PhoneNumber: "+222", Name: "Bob"},
	{PhoneNumber: "+333", Name: "Carol"},
}

func TestSendPlanOrder(t *testing.T) {
	fake := &fakeSender{}
	d, st := newTestDispatcher(fake)
	if _, err := st.Update(settings.Patch{TimeGap: intp(2)}); err != nil {
		t.Fatal(err)
	}

	d.SetMessage("hi")
	img := d.AddAttachment("photo.png", sender.AttachmentImage, "a photo", "https://img/a")
	doc := d.AddAttachment("report.pdf", sender.AttachmentDocument, "", "https://doc/b")

	if err := d.Send(testRecipients); err != nil {
		t.Fatal(err)
	}

	if len(fake.requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(fake.requests))
	}

	text := fake.requests[0]
	if text.Message != "hi" || len(text.Attachments) != 0 {
		t.Errorf("first request must be the bare text: %+v", text)
	}
	if text.TimeGapMs != 2000 {
		t.Errorf("time gap must be converted to ms, got %d", text.TimeGapMs)
	}
	if len(text.Recipients) != 3 {
		t.Errorf("expected 3 recipients, got %v", text.Recipients)
	}

	if got := fake.requests[1].Attachments; len(got) != 1 || got[0].ID != img.ID {
		t.Errorf("second request must carry the image only: %+v", got)
	}
	if got := fake.requests[2].Attachments; len(got) != 1 || got[0].ID != doc.ID {
		t.Errorf("third request must carry the document only: %+v", got)
	}
	if fake.requests[1].Message != "" || fake.requests[2].Message != "" {
		t.Error("attachment requests must not repeat the text body")
	}

	if d.Draft().Message != "" {
		t.Error("draft must be cleared after a successful send")
	}
}

func TestSendTextFailureAbortsAttachments(t *testing.T) {
	fake := &fakeSender{
		respond: func(call int, req sender.SendMessageRequest) ([]sender.Result, error) {
			return nil, errors.New("backend down")
		},
	}
	d, _ := newTestDispatcher(fake)

	d.SetMessage("hi")
	d.AddAttachment("photo.png", sender.AttachmentImage, "", "https://img/a")

	err := d.Send(testRecipients)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fake.requests) != 1 {
		t.Fatalf("text failure must stop the plan, got %d requests", len(fake.requests))
	}
	if d.Draft().Message != "hi" {
		t.Error("draft must be preserved after a failed send")
	}
	if len(d.Draft().Attachments) != 1 {
		t.Error("attachments must be preserved after a failed send")
	}
}

func TestSendTextRecipientFailureAbortsAttachments(t *testing.T) {
	fake := &fakeSender{
		respond: func(call int, req sender.SendMessageRequest) ([]sender.Result, error) {
			return []sender.Result{
				{Recipient: "+111", IsSuccess: true},
				{Recipient: "+222", IsSuccess: false},
			}, nil
		},
	}
	d, _ := newTestDispatcher(fake)

	d.SetMessage("hi")
	d.AddAttachment("photo.png", sender.AttachmentImage, "", "https://img/a")

	if err := d.Send(testRecipients); err == nil {
		t.Fatal("expected error when a text recipient fails")
	}
	if len(fake.requests) != 1 {
		t.Fatalf("recipient failure on the text request must stop the plan, got %d requests", len(fake.requests))
	}
}

func TestSendAttachmentFailuresAreIsolated(t *testing.T) {
	fake := &fakeSender{}
	fake.respond = func(call int, req sender.SendMessageRequest) ([]sender.Result, error) {
		if call == 1 {
			return nil, errors.New("media rejected")
		}
		results := make([]sender.Result, len(req.Recipients))
		for i, to := range req.Recipients {
			results[i] = sender.Result{Recipient: to, IsSuccess: true}
		}
		return results, nil
	}
	d, _ := newTestDispatcher(fake)

	d.SetMessage("hi")
	d.AddAttachment("bad.png", sender.AttachmentImage, "", "https://img/bad")
	d.AddAttachment("good.pdf", sender.AttachmentDocument, "", "https://doc/good")

	err := d.Send(testRecipients)
	if err != nil {
		t.Fatalf("a failed attachment after a successful text must not fail the send: %v", err)
	}
	if len(fake.requests) != 3 {
		t.Fatalf("the remaining attachment must still be attempted, got %d requests", len(fake.requests))
	}

	var failures int
	for _, e := range d.log.Entries() {
		if e.Type == sendlog.Error {
			failures++
		}
	}
	if failures == 0 {
		t.Error("the failed attachment must be logged as an error")
	}
	if d.Draft().Message != "" {
		t.Error("draft clears once any request fully succeeds")
	}
}

func TestSendTurboModeSingleRequest(t *testing.T) {
	fake := &fakeSender{}
	d, _ := newTestDispatcher(fake)

	d.SetTurboMode(true)
	d.SetMessage("hi")
	d.AddAttachment("photo.png", sender.AttachmentImage, "", "https://img/a")
	d.AddAttachment("report.pdf", sender.AttachmentDocument, "", "https://doc/b")

	if err := d.Send(testRecipients); err != nil {
		t.Fatal(err)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("turbo mode must issue exactly 1 request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if !req.IsTurboMode || req.Message != "hi" || len(req.Attachments) != 2 {
		t.Errorf("turbo request must carry the message and all attachments: %+v", req)
	}
	if !d.Draft().TurboMode {
		t.Error("turbo switch must survive the draft clear")
	}
}

func TestSendValidation(t *testing.T) {
	cases := []struct {
		name       string
		setup      func(d *Dispatcher)
		recipients []contacts.Contact
		want       error
	}{
		{
			name: "turbo without message",
			setup: func(d *Dispatcher) {
				d.SetTurboMode(true)
				d.AddAttachment("a.png", sender.AttachmentImage, "", "https://img/a")
			},
			recipients: testRecipients,
			want:       ErrMessageRequired,
		},
		{
			name:       "empty draft",
			setup:      func(d *Dispatcher) {},
			recipients: testRecipients,
			want:       ErrNothingToSend,
		},
		{
			name:       "no recipients",
			setup:      func(d *Dispatcher) { d.SetMessage("hi") },
			recipients: nil,
			want:       ErrNoRecipients,
		},
		{
			name: "garbage schedule",
			setup: func(d *Dispatcher) {
				d.SetMessage("hi")
				d.SetSchedule(true, "not a time")
			},
			recipients: testRecipients,
			want:       ErrInvalidSchedule,
		},
		{
			name: "schedule in the past",
			setup: func(d *Dispatcher) {
				d.SetMessage("hi")
				d.SetSchedule(true, "2020-01-01T10:00")
			},
			recipients: testRecipients,
			want:       ErrInvalidSchedule,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeSender{}
			d, _ := newTestDispatcher(fake)
			tc.setup(d)

			if err := d.Send(tc.recipients); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(fake.requests) != 0 {
				t.Fatalf("validation failures must not reach the network, got %d requests", len(fake.requests))
			}
		})
	}
}

func TestSendScheduled(t *testing.T) {
	fake := &fakeSender{}
	d, _ := newTestDispatcher(fake)
	d.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	d.SetMessage("later")
	d.SetSchedule(true, "2026-05-02T09:30")

	if err := d.Send(testRecipients); err != nil {
		t.Fatal(err)
	}

	req := fake.requests[0]
	if !req.IsScheduled {
		t.Error("request must be marked scheduled")
	}
	if req.ScheduledTime != "2026-05-02T09:30:00Z" {
		t.Errorf("scheduled time must be normalized to UTC RFC3339, got %q", req.ScheduledTime)
	}

	draft := d.Draft()
	if draft.Scheduled || draft.ScheduledTime != "" {
		t.Error("schedule must be cleared with the draft")
	}
}

func TestSendRecipientOrder(t *testing.T) {
	fake := &fakeSender{}
	d, st := newTestDispatcher(fake)
	d.SetMessage("hi")

	if err := d.Send(testRecipients); err != nil {
		t.Fatal(err)
	}
	want := []string{"+111", "+222", "+333"}
	got := fake.requests[0].Recipients
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("without randomization order must be preserved, got %v", got)
		}
	}

	if _, err := st.Update(settings.Patch{RandomizeOrder: boolp(true)}); err != nil {
		t.Fatal(err)
	}
	d.SetMessage("hi again")
	if err := d.Send(testRecipients); err != nil {
		t.Fatal(err)
	}
	shuffled := append([]string{}, fake.requests[1].Recipients...)
	sort.Strings(shuffled)
	for i := range want {
		if shuffled[i] != want[i] {
			t.Fatalf("randomized order must keep the same recipients, got %v", fake.requests[1].Recipients)
		}
	}
}

func TestSendPersonalizesVariableMessages(t *testing.T) {
	fake := &fakeSender{}
	d, _ := newTestDispatcher(fake)
	d.SetMessage("hi {{name}}")

	if err := d.Send(testRecipients); err != nil {
		t.Fatal(err)
	}

	req := fake.requests[0]
	if req.Personalized == nil {
		t.Fatal("messages with variables must carry per-recipient bodies")
	}
	if req.Personalized["+111"] != "hi Alice" {
		t.Errorf("unexpected rendering: %q", req.Personalized["+111"])
	}
	if req.Personalized["+222"] != "hi Bob" {
		t.Errorf("unexpected rendering: %q", req.Personalized["+222"])
	}
}

func TestSendSingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &fakeSender{
		respond: func(call int, req sender.SendMessageRequest) ([]sender.Result, error) {
			close(started)
			<-release
			return []sender.Result{{Recipient: "+111", IsSuccess: true}}, nil
		},
	}
	d, _ := newTestDispatcher(fake)
	d.SetMessage("hi")

	done := make(chan error, 1)
	go func() { done <- d.Send(testRecipients[:1]) }()
	<-started

	if err := d.Send(testRecipients[:1]); !errors.Is(err, ErrSendInProgress) {
		t.Fatalf("expected ErrSendInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first send must complete normally: %v", err)
	}
}

func TestSendArchivesOutcomes(t *testing.T) {
	fake := &fakeSender{}
	archive := &fakeArchive{}
	d := New(fake, sendlog.New(), settings.NewStore(), archive)

	d.SetMessage("hi")
	if err := d.Send(testRecipients[:2]); err != nil {
		t.Fatal(err)
	}

	if len(archive.rows) != 2 {
		t.Fatalf("expected one archive row per recipient, got %d", len(archive.rows))
	}
	if archive.rows[0].Status != "sent" || archive.rows[0].Content != "hi" {
		t.Errorf("unexpected archive row: %+v", archive.rows[0])
	}
}

func TestSendTemplate(t *testing.T) {
	fake := &fakeSender{}
	d, _ := newTestDispatcher(fake)

	tpl := sender.Template{
		Name:     "hello_world",
		Language: sender.Language{Policy: "deterministic", Code: "en_US"},
	}
	if err := d.SendTemplate(testRecipients[:2], tpl); err != nil {
		t.Fatal(err)
	}

	if len(fake.templates) != 1 {
		t.Fatalf("expected 1 template request, got %d", len(fake.templates))
	}
	if got := fake.templates[0].To; len(got) != 2 || got[0] != "+111" {
		t.Errorf("unexpected recipients: %v", got)
	}

	var successes int
	for _, e := range d.log.Entries() {
		if e.Type == sendlog.Success {
			successes++
		}
	}
	if successes != 1 {
		t.Errorf("template send must log exactly one success entry, got %d", successes)
	}
}

func TestSendTemplateValidation(t *testing.T) {
	fake := &fakeSender{}
	d, _ := newTestDispatcher(fake)

	if err := d.SendTemplate(nil, sender.Template{Name: "x"}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
	if err := d.SendTemplate(testRecipients, sender.Template{}); !errors.Is(err, ErrTemplateNameRequired) {
		t.Fatalf("expected ErrTemplateNameRequired, got %v", err)
	}
	if len(fake.templates) != 0 {
		t.Fatal("validation failures must not reach the network")
	}
}

func TestSendTemplateBackendFailure(t *testing.T) {
	fake := &fakeSender{
		respondTemplate: func(req sender.TemplateRequest) ([]sender.Result, error) {
			return nil, errors.New("template not approved")
		},
	}
	d, _ := newTestDispatcher(fake)

	err := d.SendTemplate(testRecipients[:1], sender.Template{Name: "hello_world"})
	if err == nil {
		t.Fatal("expected error")
	}
	entries := d.log.Entries()
	if entries[0].Type != sendlog.Error {
		t.Errorf("failure must be logged as an error, got %+v", entries[0])
	}
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }
