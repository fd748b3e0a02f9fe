package app

import (
	"strings"

	"github.com/charlesng35/stackapp/internal/jobs"
)

// PublisherConfig converts the pubsub section into publisher settings. An empty project or topic
// selects the disabled publisher.
func (c PubSubConfig) PublisherConfig() jobs.PubSubConfig {
	return jobs.PubSubConfig{
		ProjectID:       strings.TrimSpace(c.ProjectID),
		Topic:           strings.TrimSpace(c.Topic),
		CredentialsFile: strings.TrimSpace(c.CredentialsFile),
		ResultTimeout:   c.PublishTimeout,
	}
}

// PushAuthConfig converts push authentication settings. The issuer defaults to Google's.
func (c PubSubConfig) PushAuthConfig() jobs.PushAuthConfig {
	issuer := strings.TrimSpace(c.PushAuth.Issuer)
	if issuer == "" {
		issuer = jobs.GoogleIssuer
	}
	return jobs.PushAuthConfig{
		Issuer:              issuer,
		Audience:            strings.TrimSpace(c.PushAuth.Audience),
		ServiceAccountEmail: strings.TrimSpace(c.PushAuth.ServiceAccountEmail),
	}
}
