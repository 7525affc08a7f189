package adyen

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedNotification = errors.New("malformed notification")

// ParseNotification decodes a raw webhook body. The body is left untouched so
// the same bytes can be logged or re-verified by the caller.
func ParseNotification(body []byte) ([]NotificationRequestItem, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedNotification)
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}
	if n.NotificationItems == nil {
		return nil, fmt.Errorf("%w: missing notificationItems", ErrMalformedNotification)
	}

	items := make([]NotificationRequestItem, 0, len(n.NotificationItems))
	for _, c := range n.NotificationItems {
		items = append(items, c.Item)
	}
	return items, nil
}
