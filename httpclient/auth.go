package httpclient

import (
	"net/http"

	apperrors "github.com/kbukum/apicontract/errors"
)

// AuthType selects how credentials are attached to a request.
type AuthType string

const (
	AuthNone   AuthType = ""
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "api_key"
	AuthCustom AuthType = "custom"
)

// AuthConfig holds request credentials. It can be loaded from a config
// file except for the custom hook.
type AuthConfig struct {
	Type     AuthType `yaml:"type" mapstructure:"type"`
	Token    string   `yaml:"token" mapstructure:"token"`
	Username string   `yaml:"username" mapstructure:"username"`
	Password string   `yaml:"password" mapstructure:"password"`
	Key      string   `yaml:"key" mapstructure:"key"`
	// In is "header" (default) or "query" for API keys.
	In string `yaml:"in" mapstructure:"in"`
	// Name is the header or query parameter carrying the API key.
	Name  string              `yaml:"name" mapstructure:"name"`
	Apply func(*http.Request) `yaml:"-" mapstructure:"-"`
}

func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth sends key in the X-API-Key header.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: "X-API-Key"}
}

func APIKeyAuthHeader(key, header string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: header}
}

func APIKeyAuthQuery(key, param string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: param}
}

func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// Validate reports an unknown type or missing credentials.
func (a *AuthConfig) Validate() error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthNone:
	case AuthBearer:
		if a.Token == "" {
			return apperrors.MissingField("token")
		}
	case AuthBasic:
		if a.Username == "" {
			return apperrors.MissingField("username")
		}
	case AuthAPIKey:
		if a.Key == "" {
			return apperrors.MissingField("key")
		}
		if a.In != "" && a.In != "header" && a.In != "query" {
			return apperrors.InvalidInput("in", "must be header or query")
		}
	case AuthCustom:
		if a.Apply == nil {
			return apperrors.MissingField("apply")
		}
	default:
		return apperrors.InvalidInput("type", "unknown auth type "+string(a.Type))
	}
	return nil
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		if a.In == "query" {
			q := req.URL.Query()
			q.Set(name, a.Key)
			req.URL.RawQuery = q.Encode()
			return
		}
		req.Header.Set(name, a.Key)
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
}
