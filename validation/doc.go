// Package validation checks contract declarations and configuration.
//
// Struct tags go through go-playground/validator and report json (or yaml)
// field names:
//
//	type Config struct {
//	    BaseURL string `json:"base_url" validate:"omitempty,url"`
//	    Path    string `json:"path" validate:"required,urlpath"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic checks collect failures before reporting them together:
//
//	v := validation.New()
//	v.Required("path", path).Custom(ok, "body", "not allowed for GET")
//	err := v.Err()
package validation
