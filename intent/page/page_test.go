package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testView() *StaticView {
	return &StaticView{
		PageURL:      "https://app.example.com/pricing?utm_source=ads&plan=pro",
		PageTitle:    "Pricing",
		PageReferrer: "https://www.google.com/",
		Language:     "en-US",
		Agent:        "test-agent/1.0",
	}
}

func TestSnapshot(t *testing.T) {
	props := Snapshot(testView(), "")

	assert.Equal(t, "/pricing", props.Path)
	assert.Equal(t, "Pricing", props.Title)
	assert.Equal(t, "https://www.google.com/", props.Referrer)
	assert.Equal(t, "https://app.example.com/pricing?utm_source=ads&plan=pro", props.URL)
	assert.Equal(t, map[string]string{"utm_source": "ads", "plan": "pro"}, props.Query)
}

func TestSnapshotPathOverride(t *testing.T) {
	props := Snapshot(testView(), "/custom/v1")
	assert.Equal(t, "/custom/v1", props.Path)
}

func TestSamePage(t *testing.T) {
	tests := []struct {
		name     string
		oldURL   string
		newURL   string
		samePage bool
	}{
		{"identical", "https://a.com/x", "https://a.com/x", true},
		{"query change only", "https://a.com/x?p=1", "https://a.com/x?p=2", true},
		{"fragment change only", "https://a.com/x#top", "https://a.com/x#bottom", true},
		{"path change", "https://a.com/x", "https://a.com/y", false},
		{"hostname change", "https://a.com/x", "https://b.com/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.samePage, SamePage(tt.oldURL, tt.newURL))
		})
	}
}

func TestTopLevelDomain(t *testing.T) {
	assert.Equal(t, "unifygtm.com", TopLevelDomain("app.unifygtm.com"))
	assert.Equal(t, "unifygtm.com", TopLevelDomain("unifygtm.com"))
	assert.Equal(t, "localhost", TopLevelDomain("localhost"))
}
