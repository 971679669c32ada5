package am

import (
	"net/url"

	"github.com/teranos/qntx-cohort/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Endpoint.URL == "" {
		return errors.New("endpoint.url cannot be empty")
	}
	u, err := url.Parse(c.Endpoint.URL)
	if err != nil {
		return errors.Wrap(err, "endpoint.url is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf("endpoint.url must be http or https, got %q", u.Scheme)
	}

	// Timeout: 0 = no timeout, negative = invalid
	if c.Endpoint.TimeoutSeconds < 0 {
		return errors.Newf("endpoint.timeout_seconds must be >= 0, got %d", c.Endpoint.TimeoutSeconds)
	}
	if c.Endpoint.RequestsPerSecond < 0 {
		return errors.Newf("endpoint.requests_per_second must be >= 0, got %f", c.Endpoint.RequestsPerSecond)
	}

	if c.Study.Name == "" {
		return errors.New("study.name cannot be empty")
	}
	seen := make(map[string]bool, len(c.Study.Whitelist))
	for _, code := range c.Study.Whitelist {
		if code == "" {
			return errors.New("study.whitelist cannot contain empty codes")
		}
		if seen[code] {
			return errors.Newf("study.whitelist contains duplicate code %q", code)
		}
		seen[code] = true
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be in 0-65535, got %d", c.Server.Port)
	}

	return nil
}
