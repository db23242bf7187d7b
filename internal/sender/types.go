package sender

// Attachment is a file attached to a draft. URL is populated after the
// upload to the image host finishes; an Image without a URL is still
// pending (or failed) and is never sent.
type Attachment struct {
	ID      float64 `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Caption string  `json:"caption"`
	URL     string  `json:"url,omitempty"`
}

const (
	AttachmentImage    = "Image"
	AttachmentDocument = "Document"
)

// SendMessageRequest is one outbound send as planned by the dispatcher.
// Personalized maps a recipient number to its rendered body; when set the
// client posts per recipient instead of one grouped request.
type SendMessageRequest struct {
	Message       string       `json:"message"`
	Attachments   []Attachment `json:"attachments"`
	IsTurboMode   bool         `json:"isTurboMode"`
	IsScheduled   bool         `json:"isScheduled"`
	ScheduledTime string       `json:"scheduledTime,omitempty"`
	Recipients    []string     `json:"recipients"`
	TimeGapMs     int          `json:"timeGap,omitempty"`
	Personalized  map[string]string
}

// TemplateRequest is a preapproved-template send.
type TemplateRequest struct {
	To       []string `json:"to"`
	Template Template `json:"template"`
}

type Template struct {
	Name       string    `json:"name"`
	Language   Language  `json:"language"`
	Components Component `json:"components"`
}

type Language struct {
	Policy string `json:"policy"`
	Code   string `json:"code"`
}

type Component struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// --- Wire Structures ---

// Envelope is the common body prefix every sender endpoint expects.
type Envelope struct {
	To                       []string `json:"to"`
	AccessToken              string   `json:"accessToken"`
	DelayBetweenMessagesInMs int      `json:"delayBetweenMessagesInMs"`
	ScheduledTimeInUtc       *string  `json:"scheduledTimeInUtc"`
}

type TextObj struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type MediaObj struct {
	Link     string `json:"link"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

type textPayload struct {
	Envelope
	Text TextObj `json:"text"`
}

type imagePayload struct {
	Envelope
	Image MediaObj `json:"image"`
}

type documentPayload struct {
	Envelope
	Document MediaObj `json:"document"`
}

type templatePayload struct {
	Envelope
	Template Template `json:"template"`
}
