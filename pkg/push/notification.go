package push

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Fixed display parameters shared by every notification.
const (
	DefaultTitle = "Stocknear"
	DefaultBody  = "New notification"
	Tag          = "stocknear-notification"

	iconPath  = "/pwa-192x192.png"
	badgePath = "/pwa-64x64.png"
)

// Vibration is the fixed vibration pattern in milliseconds.
var Vibration = []int{200, 100, 200}

// Notification is a transient OS notification built from one push
// payload. It is never persisted.
type Notification struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	URL                string    `json:"url"`
	Icon               string    `json:"icon"`
	Badge              string    `json:"badge"`
	Tag                string    `json:"tag"`
	RequireInteraction bool      `json:"require_interaction"`
	Renotify           bool      `json:"renotify"`
	Vibration          []int     `json:"vibration"`
	Timestamp          time.Time `json:"timestamp"`
}

// payload is the optional structured shape of a push message.
type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// parsePayload maps raw payload bytes onto title/body/url. JSON with a
// title wins; any other non-empty payload becomes the body verbatim; an
// empty payload degrades to the generic body.
func parsePayload(raw []byte) (title, body, url string) {
	title = DefaultTitle
	body = DefaultBody
	url = "/"

	if len(raw) == 0 {
		return title, body, url
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err == nil && p.Title != "" {
		title = p.Title
		body = p.Body
		if p.URL != "" {
			url = p.URL
		}
		return title, body, url
	}

	body = string(raw)
	return title, body, url
}

// newNotification builds a notification with the fixed display set.
// Icon references are resolved against the origin by the dispatcher.
func newNotification(title, body, url, icon, badge string) Notification {
	return Notification{
		ID:                 uuid.New().String(),
		Title:              title,
		Body:               body,
		URL:                url,
		Icon:               icon,
		Badge:              badge,
		Tag:                Tag,
		RequireInteraction: true,
		Renotify:           true,
		Vibration:          Vibration,
		Timestamp:          time.Now(),
	}
}
