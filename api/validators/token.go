package validators

import "strings"

// BearerToken strips the "Bearer " scheme off an Authorization header value.
// Returns an empty string when no token is present.
func BearerToken(header string) string {
	token := strings.TrimSpace(header)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
