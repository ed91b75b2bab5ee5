// Package notification delivers wildlife alerts to registered recipients.
// It contains the delivery channel abstraction, the email channel built on
// shoutrrr, and the dispatcher that fans an alert out to every recipient.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/wildwatch/wildwatch-go/internal/detection"
)

// AlertTitle is the subject line used for every wildlife alert.
const AlertTitle = "URGENT: Wildlife Detected in Your Area - Immediate Safety Alert"

// RenderAlert produces the alert message body for one recipient. Detections
// are listed in the order the capability returned them, with confidence
// shown as a percentage.
func RenderAlert(recipientName, location string, detections []detection.Detection, sentAt time.Time) string {
	var b strings.Builder

	b.WriteString("WILDLIFE ALERT - Immediate Safety Notification\n\n")
	fmt.Fprintf(&b, "Dear %s,\n\n", recipientName)
	b.WriteString("A threat has been detected in your area. Take immediate safety precautions.\n\n")
	fmt.Fprintf(&b, "Location: area code %s\n", location)
	fmt.Fprintf(&b, "Time: %s\n", sentAt.Format("January 2, 2006 15:04:05"))
	b.WriteString("Detected animals:\n")
	for _, d := range detections {
		fmt.Fprintf(&b, "  - %s (%.1f%% confidence)\n", d.Label, d.Confidence*100)
	}

	b.WriteString("\nIMMEDIATE SAFETY INSTRUCTIONS\n")
	b.WriteString("  - Stay indoors and secure all doors and windows\n")
	b.WriteString("  - Keep children and pets inside at all times\n")
	b.WriteString("  - Do NOT approach, feed, or attempt to scare the animal\n")
	b.WriteString("  - Avoid loud noises that might agitate the wildlife\n")
	b.WriteString("  - Alert your neighbors about the situation\n")
	b.WriteString("  - Do not venture outside until authorities give the all-clear\n")

	b.WriteString("\nEMERGENCY CONTACTS\n")
	b.WriteString("  Forest Department Emergency: 1926\n")
	b.WriteString("  Police Emergency: 100\n")
	b.WriteString("  Medical Emergency: 108\n")

	b.WriteString("\nThis is an automated alert from the wildlife detection system.\n")

	return b.String()
}
