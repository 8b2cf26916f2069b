package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocRenders(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Host  string                     `json:"host"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	// Matches the PORT default.
	require.Equal(t, "localhost:8000", doc.Host)

	for _, path := range []string{
		"/api/v1/registration",
		"/api/v1/activate-user",
		"/api/v1/login",
		"/api/v1/refresh",
		"/api/v1/logout",
		"/api/v1/me",
		"/api/v1/social-auth",
		"/livez",
		"/readyz",
	} {
		require.Contains(t, doc.Paths, path)
	}
	require.Contains(t, string(doc.Paths["/api/v1/social-auth"]), `"401"`)
}
