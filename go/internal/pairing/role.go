package pairing

import (
	"fmt"
	"net/url"
	"strings"
)

// Link parameters carrying pairing codes
const (
	ParamManage = "manage"
	ParamForce  = "force"
)

// Role is fixed once at startup
type Role int

const (
	RoleDisplay Role = iota
	RoleController
)

func (r Role) String() string {
	switch r {
	case RoleController:
		return "controller"
	case RoleDisplay:
		return "display"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// DetectRole makes the device a controller when a manage code is present and
// a display otherwise.
func DetectRole(params url.Values) Role {
	if params.Get(ParamManage) != "" {
		return RoleController
	}
	return RoleDisplay
}

// ManageCode returns the code a controller should join, if any
func ManageCode(params url.Values) string {
	return params.Get(ParamManage)
}

// ForcedCode returns the code a display was pinned to, if any
func ForcedCode(params url.Values) string {
	return params.Get(ParamForce)
}

// ParseParams extracts query parameters from a full link or from a bare query
// string with or without the leading "?".
func ParseParams(link string) (url.Values, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return url.Values{}, nil
	}

	if strings.Contains(link, "://") {
		u, err := url.Parse(link)
		if err != nil {
			return nil, fmt.Errorf("parse link: %w", err)
		}
		return u.Query(), nil
	}

	values, err := url.ParseQuery(strings.TrimPrefix(link, "?"))
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return values, nil
}

// ManageURL builds the link a controller opens to join the display's session.
// Any query on base is replaced.
func ManageURL(base string, code SessionCode) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse public url: %w", err)
	}
	u.RawQuery = url.Values{ParamManage: []string{code.String()}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}
