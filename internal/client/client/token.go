package client

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// resolveUsername picks the username out of the login reply. Supported shapes:
//
//	{"username": "alice"}
//	{"token": "...", "user": "alice"}
//	{"token": "...", "user": {"username": "alice"}}   (or "name")
//	{"token": "<jwt with username or sub claim>"}
func resolveUsername(resp loginResponse) (string, error) {
	if resp.Username != "" {
		return resp.Username, nil
	}

	if name := userField(resp.User); name != "" {
		return name, nil
	}

	if resp.Token != "" {
		if name, err := usernameFromToken(resp.Token); err == nil && name != "" {
			return name, nil
		}
	}

	return "", ErrMissingUsername
}

func userField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Username != "" {
			return obj.Username
		}
		return obj.Name
	}
	return ""
}

// usernameFromToken reads claims without verifying the signature: the
// client has no key and only uses the value for display and as upload owner.
func usernameFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	if name, ok := claims["username"].(string); ok && name != "" {
		return name, nil
	}
	return claims.GetSubject()
}
