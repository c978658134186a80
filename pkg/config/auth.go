package config

import "github.com/hydromet/meteosat/pkg/auth"

// Authenticator converts the Earthdata credentials to an Authenticator. It
// returns nil when neither a token nor a username is configured.
func (e Earthdata) Authenticator() auth.Authenticator {
	switch {
	case e.Token != "":
		return auth.BearerAuth{Token: e.Token}
	case e.Username != "":
		return auth.BasicAuth{Username: e.Username, Password: e.Password}
	default:
		return nil
	}
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.MSWEP.Flags = append([]string(nil), c.MSWEP.Flags...)
	if out.Earthdata.Password != "" {
		out.Earthdata.Password = redactedValue
	}
	if out.Earthdata.Token != "" {
		out.Earthdata.Token = redactedValue
	}
	return &out
}

const redactedValue = "********"
