package activity

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifygtm/intent-go/intent/identity"
	"github.com/unifygtm/intent-go/intent/page"
	"github.com/unifygtm/intent-go/intent/session"
	"github.com/unifygtm/intent-go/intent/storage"
)

type captureTransport struct {
	mu   sync.Mutex
	urls []string
	sent []map[string]any
}

func (c *captureTransport) Post(url string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = append(c.urls, url)
	c.sent = append(c.sent, payload.(map[string]any))
}

func newTestContext(t *testing.T, pageURL string) (*Context, *captureTransport) {
	t.Helper()
	view := &page.StaticView{
		PageURL:   pageURL,
		PageTitle: "Test Page",
		Language:  "en-US",
		Agent:     "test-agent/1.0",
	}
	backend := storage.NewLocalBackend(nil)
	transport := &captureTransport{}
	return &Context{
		WriteKey:  "wk_test",
		APIBase:   DefaultAPIBase,
		Transport: transport,
		Identity:  identity.NewManager(storage.New("wk_test", backend)),
		Session:   session.NewManager(storage.New("wk_test", backend), view, session.Options{}),
		View:      view,
	}, transport
}

func TestSendComposesBasePayload(t *testing.T) {
	ctx, transport := newTestContext(t, "https://app.example.com/docs?utm_source=news")

	Send(ctx, PageView{})

	require.Len(t, transport.sent, 1)
	payload := transport.sent[0]

	assert.Equal(t, DefaultAPIBase+"/page", transport.urls[0])
	assert.Equal(t, EventTypePage, payload["type"])
	assert.NotEmpty(t, payload["visitorId"])
	assert.NotEmpty(t, payload["sessionId"])

	ts, ok := payload["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err, "timestamp must be ISO-8601")

	eventCtx, ok := payload["context"].(EventContext)
	require.True(t, ok)
	assert.Equal(t, "en-US", eventCtx.Locale)
	assert.Equal(t, "news", eventCtx.UTM.Source)
}

func TestPayloadResolvesLiveIDs(t *testing.T) {
	ctx, _ := newTestContext(t, "https://app.example.com/")

	first := Payload(ctx, Track{Name: "A"})
	second := Payload(ctx, Track{Name: "B"})

	assert.Equal(t, first["visitorId"], second["visitorId"])
	assert.Equal(t, first["sessionId"], second["sessionId"])
}

func TestPageViewPathOverride(t *testing.T) {
	ctx, _ := newTestContext(t, "https://app.example.com/real-path")

	payload := Payload(ctx, PageView{Pathname: "/custom/v1"})

	props, ok := payload["properties"].(page.Properties)
	require.True(t, ok)
	assert.Equal(t, "/custom/v1", props.Path)
	assert.Equal(t, "https://app.example.com/real-path", props.URL)
}

func TestIdentifyIncludesCompanyOnDomainMatch(t *testing.T) {
	ctx, _ := newTestContext(t, "https://app.example.com/")

	payload := Payload(ctx, Identify{
		Email:   "x@foo.com",
		Company: &Company{Domain: "foo.com", Name: "Foo"},
	})

	company, ok := payload["company"].(Company)
	require.True(t, ok, "matching company domain must be included")
	assert.Equal(t, "Foo", company.Name)
}

func TestIdentifyOmitsCompanyOnDomainMismatch(t *testing.T) {
	ctx, _ := newTestContext(t, "https://app.example.com/")

	payload := Payload(ctx, Identify{
		Email:   "x@foo.com",
		Company: &Company{Domain: "bar.com"},
	})

	_, ok := payload["company"]
	assert.False(t, ok, "mismatched company domain must be omitted")
}

func TestIdentifyPersonAlwaysCarriesEmail(t *testing.T) {
	ctx, _ := newTestContext(t, "https://app.example.com/")

	payload := Payload(ctx, Identify{
		Email:  "x@foo.com",
		Person: &Person{FirstName: "Ada"},
	})

	person, ok := payload["person"].(Person)
	require.True(t, ok)
	assert.Equal(t, "x@foo.com", person.Email)
	assert.Equal(t, "Ada", person.FirstName)
}

func TestTrackMergesPageProperties(t *testing.T) {
	ctx, _ := newTestContext(t, "https://app.example.com/pricing")

	payload := Payload(ctx, Track{
		Name:       "CTA Clicked",
		Properties: map[string]any{"label": "Get Started"},
	})

	assert.Equal(t, "CTA Clicked", payload["name"])
	props, ok := payload["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/pricing", props["path"])
	assert.Equal(t, "Get Started", props["label"])
}

func TestUTMFieldsOmittedWhenAbsent(t *testing.T) {
	view := &page.StaticView{PageURL: "https://app.example.com/?utm_source=ads"}
	data, err := json.Marshal(BuildEventContext(view))
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	utm, ok := wire["utm"].(map[string]any)
	require.True(t, ok, "utm object always present")
	assert.Equal(t, "ads", utm["source"])
	_, hasMedium := utm["medium"]
	assert.False(t, hasMedium, "absent utm params are omitted, not null")
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"a@b.com", true},
		{"first.last+tag@sub.domain.io", true},
		{"not-an-email", false},
		{"missing@tld", false},
		{"@no-local.com", false},
		{"spaces in@local.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateEmail(tt.email))
		})
	}
}

func TestDomainHelpers(t *testing.T) {
	assert.Equal(t, "foo.com", DomainForEmail("x@foo.com"))
	assert.Equal(t, "", DomainForEmail("nodomain"))
	assert.Equal(t, "foo.com", DomainForURL("https://www.foo.com/about"))
	assert.Equal(t, "foo.com", DomainForURL("foo.com"))
	assert.Equal(t, "", DomainForURL(""))
}
