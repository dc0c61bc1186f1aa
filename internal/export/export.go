// Package export formats the marked points for sharing by e-mail.
package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/fieldmap/internal/point"
)

// Subject is the default e-mail subject.
const Subject = "Information about objects on the map"

// EmailBody renders one paragraph per point:
//
//	Name: fire hydrant, id: p-2, location: lat/lng: (30.27,-97.74)
//
// Paragraphs are separated by a blank line. No points yields "".
func EmailBody(points []point.MapPoint) string {
	var sb strings.Builder
	for _, p := range points {
		fmt.Fprintf(&sb, "Name: %s, id: %s, location: %s", p.Type.Label(), p.ID, p.Location)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// MailtoURL builds a mailto: link carrying subject and body, with no
// recipient so the user's mail client asks for one.
func MailtoURL(subject, body string) string {
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", body)
	// Mail clients expect %20, not '+', for spaces.
	return "mailto:?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}
