package command

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"authfort-cli/internal/domain"
)

// sessionView is the machine-readable form of a session; it never includes the token
type sessionView struct {
	LoggedIn bool            `json:"logged_in" yaml:"logged_in"`
	HasToken bool            `json:"has_token" yaml:"has_token"`
	User     *domain.Profile `json:"user,omitempty" yaml:"user,omitempty"`
}

func newSessionView(st domain.Session) sessionView {
	return sessionView{LoggedIn: st.IsLoggedIn, HasToken: st.HasToken(), User: st.User}
}

// render writes v as json or yaml. It reports false for text output,
// which each command prints its own way.
func render(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(v)
	case OutputText, "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q", format)
	}
}
