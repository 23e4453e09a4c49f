package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MaxNotificationPayload caps the JSON body of a notification frame.
const MaxNotificationPayload = 180

// ErrNotificationTooLarge is returned when the encoded notification exceeds
// MaxNotificationPayload.
var ErrNotificationTooLarge = errors.New("protocol: notification payload too large")

// Notification is a phone notification mirrored on the display.
type Notification struct {
	MsgID         uint32 `json:"msg_id"`
	Action        int    `json:"action"`
	AppIdentifier string `json:"app_identifier"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle,omitempty"`
	Message       string `json:"message"`
	TimeSeconds   int64  `json:"time_s"`
	Date          string `json:"date"`
	DisplayName   string `json:"display_name"`
}

// NewNotification fills in the timestamp fields from t.
func NewNotification(msgID uint32, app, displayName, title, message string, t time.Time) Notification {
	return Notification{
		MsgID:         msgID,
		AppIdentifier: app,
		Title:         title,
		Message:       message,
		TimeSeconds:   t.Unix(),
		Date:          t.Format("2006-01-02 15:04:05"),
		DisplayName:   displayName,
	}
}

type notificationEnvelope struct {
	Notification Notification `json:"ncs_notification"`
}

// MarshalNotification encodes n as the JSON body of a notification frame.
func MarshalNotification(n Notification) ([]byte, error) {
	data, err := json.Marshal(notificationEnvelope{Notification: n})
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal notification: %w", err)
	}
	if len(data) > MaxNotificationPayload {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrNotificationTooLarge, len(data), MaxNotificationPayload)
	}
	return data, nil
}

// NotificationFrame builds the single-frame notification command:
// {OpSendNotification, msgID, chunkCount=1, chunkIndex=0, json...}.
func NotificationFrame(n Notification) ([]byte, error) {
	body, err := MarshalNotification(n)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, 4+len(body))
	frame = append(frame, OpSendNotification, byte(n.MsgID), 1, 0)
	return append(frame, body...), nil
}

// ClearNotificationFrame removes a notification by id.
func ClearNotificationFrame(msgID uint32) []byte {
	return []byte{OpClearNotification, byte(msgID >> 24), byte(msgID >> 16), byte(msgID >> 8), byte(msgID)}
}
