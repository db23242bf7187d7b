package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/contacts"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/dispatch"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sender"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sendlog"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/settings"

	"github.com/gin-gonic/gin"
)

type fakeSender struct {
	requests []sender.SendMessageRequest
}

func (f *fakeSender) SendMessage(req sender.SendMessageRequest) ([]sender.Result, error) {
	f.requests = append(f.requests, req)
	results := make([]sender.Result, len(req.Recipients))
	for i, to := range req.Recipients {
		results[i] = sender.Result{Recipient: to, IsSuccess: true}
	}
	return results, nil
}

func (f *fakeSender) SendTemplate(req sender.TemplateRequest) ([]sender.Result, error) {
	return nil, nil
}

type fakeContactsAPI struct {
	remote []contacts.Contact
}

func (f *fakeContactsAPI) Contacts() ([]contacts.Contact, error)      { return f.remote, nil }
func (f *fakeContactsAPI) RegisterContacts(c []contacts.Contact) error { return nil }

func newComposeRouter(t *testing.T) (*gin.Engine, *fakeSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &fakeSender{}
	d := dispatch.New(fake, sendlog.New(), settings.NewStore(), nil)

	store := contacts.NewStore(&fakeContactsAPI{remote: []contacts.Contact{
		{PhoneNumber: "+111", Name: "Alice"},
	}})
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	h := NewComposeHandler(d, nil, store)
	r := gin.New()
	r.GET("/api/draft", h.GetDraft)
	r.PUT("/api/draft", h.UpdateDraft)
	r.POST("/api/send", h.Send)
	return r, fake
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateDraftPatchesOnlyGivenFields(t *testing.T) {
	r, _ := newComposeRouter(t)

	if w := doJSON(r, "PUT", "/api/draft", `{"message":"hello"}`); w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	w := doJSON(r, "PUT", "/api/draft", `{"isTurboMode":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var draft dispatch.Draft
	if err := json.Unmarshal(w.Body.Bytes(), &draft); err != nil {
		t.Fatal(err)
	}
	if draft.Message != "hello" || !draft.TurboMode {
		t.Fatalf("patch must keep untouched fields: %+v", draft)
	}
}

func TestSendResolvesContactNames(t *testing.T) {
	r, fake := newComposeRouter(t)

	doJSON(r, "PUT", "/api/draft", `{"message":"hi {{name}}"}`)
	w := doJSON(r, "POST", "/api/send", `{"recipients":["+111","+999"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(fake.requests))
	}
	personalized := fake.requests[0].Personalized
	if personalized["+111"] != "hi Alice" {
		t.Errorf("known contact must render its name, got %q", personalized["+111"])
	}
	if personalized["+999"] != "hi " {
		t.Errorf("unknown number renders an empty name, got %q", personalized["+999"])
	}
}

func TestSendValidationErrorsReturn400(t *testing.T) {
	r, fake := newComposeRouter(t)

	w := doJSON(r, "POST", "/api/send", `{"recipients":["+111"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty draft must return 400, got %d", w.Code)
	}
	if len(fake.requests) != 0 {
		t.Fatal("validation failures must not reach the backend")
	}

	if w := doJSON(r, "POST", "/api/send", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing recipients must return 400, got %d", w.Code)
	}
}
