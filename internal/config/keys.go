package config

import (
	"os"
	"strings"
)

// CredentialSource represents where a tool credential was found.
type CredentialSource string

const (
	SourceEnv    CredentialSource = "environment"
	SourceConfig CredentialSource = "config_file"
	SourceNone   CredentialSource = "none"
)

// LookupCredential returns a tool credential. The environment variable of
// the same name wins; otherwise tools.credentials is consulted, with ${VAR}
// references expanded. Unresolved references count as missing. The method
// value satisfies toolmatrix.LookupEnv.
func (c *Config) LookupCredential(name string) (string, bool) {
	v, _ := c.resolveCredential(name)
	return v, v != ""
}

// CredentialSourceOf reports where LookupCredential would find name.
func (c *Config) CredentialSourceOf(name string) CredentialSource {
	_, src := c.resolveCredential(name)
	return src
}

func (c *Config) resolveCredential(name string) (string, CredentialSource) {
	if v := os.Getenv(name); v != "" {
		return v, SourceEnv
	}
	if c != nil {
		if raw, ok := c.Tools.Credentials[strings.ToLower(name)]; ok {
			v := os.ExpandEnv(raw)
			if v != "" && !strings.HasPrefix(v, "${") {
				return v, SourceConfig
			}
		}
	}
	return "", SourceNone
}

// MaskSecret returns a masked version of a secret for display.
// Shows the first 4 and last 4 characters of long values.
func MaskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 12 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
