package collectors

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubdomainLinesDedupesPreservingOrder(t *testing.T) {
	raw := bytes.NewBufferString("api.acme.com\nWWW.Acme.com\n\napi.acme.com\nstaging.acme.com\n")

	subs := parseSubdomainLines(raw)

	assert.Equal(t, []string{"api.acme.com", "www.acme.com", "staging.acme.com"}, subs)
}

func TestParseSubdomainLinesEmptyOutput(t *testing.T) {
	assert.Empty(t, parseSubdomainLines(bytes.NewBufferString("\n\n")))
}

func TestParseProbeOutput(t *testing.T) {
	raw := bytes.NewBufferString(`{"url":"https://api.acme.com","status_code":200,"title":"API Gateway","webserver":"nginx/1.18.0","tech":["Nginx/1.18.0","Express"],"input":"api.acme.com"}
not json at all
{"url":"http://staging.acme.com","status-code":403,"server":"Apache/2.2.34","technologies":["PHP/5.6.40"],"host":"staging.acme.com"}
{"title":"no url, skipped"}
`)

	services := parseProbeOutput(raw)
	require.Len(t, services, 2)

	first := services[0]
	assert.Equal(t, "https://api.acme.com", first.URL)
	assert.Equal(t, "api.acme.com", first.SubdomainFQDN)
	assert.Equal(t, 200, first.StatusCode)
	require.NotNil(t, first.Title)
	assert.Equal(t, "API Gateway", *first.Title)
	require.NotNil(t, first.Server)
	assert.Equal(t, "nginx/1.18.0", *first.Server)
	assert.Equal(t, []string{"Nginx/1.18.0", "Express"}, first.Technologies)

	// Legacy key spellings still parse.
	second := services[1]
	assert.Equal(t, 403, second.StatusCode)
	require.NotNil(t, second.Server)
	assert.Equal(t, "Apache/2.2.34", *second.Server)
	assert.Equal(t, []string{"PHP/5.6.40"}, second.Technologies)
	assert.Equal(t, "staging.acme.com", second.SubdomainFQDN)
}

func TestParseProbeOutputDefaultsTechnologies(t *testing.T) {
	raw := bytes.NewBufferString(`{"url":"https://bare.acme.com","status_code":404,"input":"bare.acme.com"}`)

	services := parseProbeOutput(raw)
	require.Len(t, services, 1)
	assert.NotNil(t, services[0].Technologies)
	assert.Empty(t, services[0].Technologies)
	assert.Nil(t, services[0].Title)
	assert.Nil(t, services[0].Server)
}
