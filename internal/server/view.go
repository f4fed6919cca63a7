package server

import "github.com/vesaa/alertdesk/internal/models"

const (
	// messagePreviewLen is how many characters of a message list/search responses show.
	messagePreviewLen = 50
	createdAtLayout   = "2006-01-02 15:04:05"
)

// alertView is the JSON shape of an alert in list and search responses.
type alertView struct {
	ID        int64  `json:"id"`
	Hostname  string `json:"hostname"`
	Metric    string `json:"metric"`
	Value     int64  `json:"value"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func newAlertView(a models.Alert) alertView {
	return alertView{
		ID:        a.ID,
		Hostname:  a.Hostname,
		Metric:    a.Metric,
		Value:     a.Value,
		Message:   previewMessage(a.Message),
		CreatedAt: a.CreatedAt.UTC().Format(createdAtLayout),
	}
}

func newAlertsResponse(alerts []models.Alert) alertsResponse {
	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, newAlertView(a))
	}
	return alertsResponse{Count: len(views), Alerts: views}
}

// previewMessage cuts msg to messagePreviewLen characters and marks the cut with "...".
func previewMessage(msg string) string {
	r := []rune(msg)
	if len(r) <= messagePreviewLen {
		return msg
	}
	return string(r[:messagePreviewLen]) + "..."
}
