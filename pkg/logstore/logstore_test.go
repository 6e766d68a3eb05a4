package logstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
	"github.com/xhad/tier0/pkg/logstore"
)

func TestParseLine_FullLine(t *testing.T) {
	line := `203.0.113.9 - - [12/Mar/2024:10:05:01 +0000] "GET /api/sensors HTTP/1.0" 200 512 "-" "Mozilla/5.0" 37`

	entry := logstore.ParseLine(line)
	require.NotNil(t, entry)

	assert.Equal(t, "203.0.113.9", entry.IPAddress)
	assert.Equal(t, "12/Mar/2024:10:05:01 +0000", entry.Timestamp)
	assert.Equal(t, "GET", entry.Method)
	assert.Equal(t, "/api/sensors", entry.Endpoint)
	assert.Equal(t, 200, entry.StatusCode)
	assert.Equal(t, 512, entry.ResponseSize)
	assert.Empty(t, entry.Referer)
	assert.Equal(t, "Mozilla/5.0", entry.UserAgent)
	assert.Equal(t, 37, entry.ResponseTime)
}

func TestParseLine_KeepsExplicitReferer(t *testing.T) {
	line := `198.51.100.4 - - [12/Mar/2024:10:05:02 +0000] "POST /login HTTP/1.0" 401 64 "https://example.com" "curl/8.0" 110`

	entry := logstore.ParseLine(line)
	require.NotNil(t, entry)
	assert.Equal(t, "https://example.com", entry.Referer)
	assert.Equal(t, 401, entry.StatusCode)
}

func TestParseLine_RejectsMalformed(t *testing.T) {
	assert.Nil(t, logstore.ParseLine("not a log line"))
	assert.Nil(t, logstore.ParseLine(""))
}

// fakeLogStore serves canned aggregates without Postgres.
type fakeLogStore struct {
	ips  []types.IPStat
	errs []types.StatusStat
	fail bool
}

func (f *fakeLogStore) TopIPs(context.Context, int) ([]types.IPStat, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	return f.ips, nil
}

func (f *fakeLogStore) ErrorAnalysis(context.Context) ([]types.StatusStat, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	return f.errs, nil
}

func (f *fakeLogStore) Overview(context.Context) (*types.LogOverview, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	return &types.LogOverview{TotalRequests: 900, UniqueIPs: 40, ErrorCount: 12, AvgResponseTime: 52.5, MaxResponseTime: 410}, nil
}

func (f *fakeLogStore) TopEndpoints(context.Context, int) ([]types.EndpointStat, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	return []types.EndpointStat{{Endpoint: "/api/sensors", Count: 300}}, nil
}

func TestService_TopIPRule(t *testing.T) {
	store := &fakeLogStore{ips: []types.IPStat{
		{IPAddress: "203.0.113.9", RequestCount: 412, ErrorCount: 17},
		{IPAddress: "198.51.100.4", RequestCount: 88},
	}}
	svc := logstore.NewService(store, nil, nil)

	result := svc.Query(context.Background(), "What is the top offending IP address?")

	require.NotNil(t, result)
	assert.Equal(t, models.TypeLogAnalysis, result.Type)
	assert.False(t, result.Synthesized)
	assert.Contains(t, result.Answer, "203.0.113.9")
	assert.Contains(t, result.Answer, "412 requests")
	assert.Contains(t, result.Answer, "17 errors")
}

func TestService_ErrorRule(t *testing.T) {
	store := &fakeLogStore{errs: []types.StatusStat{
		{StatusCode: 500, Count: 9, IPs: []string{"203.0.113.9"}},
		{StatusCode: 404, Count: 3, IPs: []string{"198.51.100.4"}},
	}}
	svc := logstore.NewService(store, nil, nil)

	result := svc.Query(context.Background(), "show me 500 errors")

	assert.Equal(t, models.TypeLogAnalysis, result.Type)
	assert.Contains(t, result.Answer, "12 total errors")
	assert.Contains(t, result.Answer, "500")
}

func TestService_RequestCountRule(t *testing.T) {
	svc := logstore.NewService(&fakeLogStore{}, nil, nil)

	result := svc.Query(context.Background(), "what is the request count overall")

	assert.Equal(t, models.TypeLogAnalysis, result.Type)
	assert.Contains(t, result.Answer, "900 requests")
	assert.Contains(t, result.Answer, "40 unique IP addresses")
}

func TestService_SuggestionFallbackWithoutProvider(t *testing.T) {
	svc := logstore.NewService(&fakeLogStore{}, nil, nil)

	result := svc.Query(context.Background(), "tell me something interesting")

	assert.Equal(t, models.TypeSuggestion, result.Type)
	assert.False(t, result.Synthesized)
}

func TestService_StoreFailureIsNotFatal(t *testing.T) {
	svc := logstore.NewService(&fakeLogStore{fail: true}, nil, nil)

	result := svc.Query(context.Background(), "top ip please")

	require.NotNil(t, result)
	assert.Equal(t, models.TypeNoMatch, result.Type)
}
