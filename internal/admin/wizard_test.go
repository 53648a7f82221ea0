// internal/admin/wizard_test.go
package admin

import (
	"strings"
	"testing"
)

func TestParseAddTopic(t *testing.T) {
	cases := []struct {
		in              string
		prefix, name    string
		topicID         int64
		wantErrContains string
	}{
		{in: "1:Sky:289", prefix: "1", name: "Sky", topicID: 289},
		{in: "  sea : Sea level : 300  ", prefix: "sea", name: "Sea level", topicID: 300},
		{in: "nocolons", wantErrContains: "prefix:name:topic_id"},
		{in: "a:b", wantErrContains: "prefix:name:topic_id"},
		{in: "a:b:c:d", wantErrContains: "prefix:name:topic_id"},
		{in: "1:Sky:notanumber", wantErrContains: "must be a number"},
		{in: ":Sky:289", wantErrContains: "empty"},
		{in: "1::289", wantErrContains: "empty"},
	}
	for _, tc := range cases {
		prefix, name, topicID, err := parseAddTopic(tc.in)
		if tc.wantErrContains != "" {
			if err == nil {
				t.Errorf("%q: want error, got %q %q %d", tc.in, prefix, name, topicID)
				continue
			}
			if !strings.Contains(err.Error(), tc.wantErrContains) {
				t.Errorf("%q: error %q missing %q", tc.in, err, tc.wantErrContains)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if prefix != tc.prefix || name != tc.name || topicID != tc.topicID {
			t.Errorf("%q: got %q %q %d", tc.in, prefix, name, topicID)
		}
	}
}

func TestParseEditTopicData(t *testing.T) {
	name, topicID, err := parseEditTopicData("New name:42")
	if err != nil || name != "New name" || topicID != 42 {
		t.Fatalf("got %q %d %v", name, topicID, err)
	}
	if _, _, err := parseEditTopicData("no-colon"); err == nil {
		t.Fatal("want error for missing separator")
	}
	if _, _, err := parseEditTopicData("name:x"); err == nil {
		t.Fatal("want error for non-numeric id")
	}
}

func TestParseAddSourceChannel(t *testing.T) {
	id, name, err := parseAddSourceChannel("-1001234567890:My channel")
	if err != nil || id != "-1001234567890" || name != "My channel" {
		t.Fatalf("got %q %q %v", id, name, err)
	}
	// Channel names may contain colons; only the first one splits.
	id, name, err = parseAddSourceChannel("-100:Weather: north")
	if err != nil || id != "-100" || name != "Weather: north" {
		t.Fatalf("got %q %q %v", id, name, err)
	}
	if _, _, err := parseAddSourceChannel("justanid"); err == nil {
		t.Fatal("want error for missing separator")
	}
}
