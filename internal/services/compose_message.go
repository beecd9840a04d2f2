package services

import (
	"bytes"
	"errors"
	"fmt"
	"sos-alert-service/internal/domain"
	"strings"
	"text/template"
)

// Values available to the alert message template.
type messageInfo struct {
	MapLink string
	Lat     float64
	Lng     float64
}

// MessageComposer renders the alert text from a configurable template.
type MessageComposer struct {
	tmpl           *template.Template
	mapLinkBaseURL string
}

func NewMessageComposer(tmplText, mapLinkBaseURL string) (*MessageComposer, error) {
	if mapLinkBaseURL == "" {
		return nil, errors.New("new message composer: map link base url is empty")
	}

	tmpl, err := template.New("message").Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("new message composer: parse template: %w", err)
	}

	c := &MessageComposer{tmpl: tmpl, mapLinkBaseURL: mapLinkBaseURL}

	// Fail at start-up rather than on the first SOS.
	sample := domain.Location{Lat: 12.5, Lng: -45.25}
	msg, err := c.Compose(sample)
	if err != nil {
		return nil, fmt.Errorf("new message composer: %w", err)
	}
	if !strings.Contains(msg, c.MapLink(sample)) {
		return nil, errors.New("new message composer: template must include {{.MapLink}}")
	}

	return c, nil
}

// Build the map link for a location: base URL followed by "lat,lng" at full precision.
func (c *MessageComposer) MapLink(loc domain.Location) string {
	return c.mapLinkBaseURL + loc.QueryString()
}

func (c *MessageComposer) Compose(loc domain.Location) (string, error) {
	var buf bytes.Buffer
	info := messageInfo{MapLink: c.MapLink(loc), Lat: loc.Lat, Lng: loc.Lng}
	if err := c.tmpl.Execute(&buf, info); err != nil {
		return "", fmt.Errorf("compose message: %w", err)
	}
	return buf.String(), nil
}
