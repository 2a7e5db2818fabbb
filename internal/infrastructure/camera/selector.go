package camera

import (
	"fmt"
	"strings"

	"github.com/shelfscan/backend/internal/domain"
)

// DefaultLabelKeywords mark a rear-facing camera in a device label
var DefaultLabelKeywords = []string{"back", "rear", "environment"}

// SelectDevice picks the device to scan with. A non-empty requestedID must be
// enumerated. Otherwise the first device whose label contains a keyword wins,
// falling back to the last enumerated device.
func SelectDevice(devices []domain.Device, requestedID string, keywords []string) (domain.Device, error) {
	if len(devices) == 0 {
		return domain.Device{}, domain.ErrNoDevices
	}

	if requestedID != "" {
		for _, d := range devices {
			if d.ID == requestedID {
				return d, nil
			}
		}
		return domain.Device{}, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, requestedID)
	}

	for _, d := range devices {
		if labelMatches(d.Label, keywords) {
			return d, nil
		}
	}

	return devices[len(devices)-1], nil
}

func labelMatches(label string, keywords []string) bool {
	labelLower := strings.ToLower(label)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(labelLower, kw) {
			return true
		}
	}
	return false
}
