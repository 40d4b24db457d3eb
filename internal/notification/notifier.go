// Package notification delivers fire-and-forget notices to portal users.
// Dispatch failures are logged and never reach the caller of the financial
// operation that triggered them.
package notification

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
)

// Notice is one delivery request.
type Notice struct {
	UserID  uint   `json:"userId"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// Notifier accepts delivery requests. Implementations must not block the
// caller's critical path.
type Notifier interface {
	Notify(n Notice)
}

// WebhookNotifier posts notices to the portal's notification webhook.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{URL: url, Client: http.DefaultClient}
}

// Notify sends the notice in a goroutine. Errors are logged only.
func (w *WebhookNotifier) Notify(n Notice) {
	if w.URL == "" {
		return
	}
	go func() {
		body, _ := json.Marshal(n)
		resp, err := w.Client.Post(w.URL, "application/json", bytes.NewBuffer(body))
		if err != nil {
			log.Printf("notification webhook failed: %v", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("notification webhook returned %d", resp.StatusCode)
		}
	}()
}

// NopNotifier discards all notices. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(Notice) {}
