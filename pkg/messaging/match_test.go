package messaging

import "testing"

func TestMatchTopic(t *testing.T) {
	cases := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"/g1/game/state", "/g1/game/state", true},
		{"/g1/game/state", "/g1/game/current", false},
		{"/g1/players/+/defeated", "/g1/players/alice/defeated", true},
		{"/g1/players/+/defeated", "/g1/players/alice/bob/defeated", false},
		{"/g1/players/+/defeated", "/g1/players//defeated", false},
		{"/g1/#", "/g1/game/state", true},
		{"/g1/#", "/g1/players/alice/ships/carrier/place", true},
		{"/g1/#", "/g1", false},
		{"/g1/#", "/g2/game/state", false},
		{"a/+/c", "a/b/c", true},
		{"a/+/c", "a/b/c/d", false},
		{"a/+/c", "prefix/a/b/c", false},
		{"a/.+/c", "a/x/c", false},
		{"a/.+/c", "a/.+/c", true},
	}
	for _, c := range cases {
		if got := MatchTopic(c.pattern, c.topic); got != c.want {
			t.Errorf("MatchTopic(%q, %q) = %v, want %v", c.pattern, c.topic, got, c.want)
		}
	}
}
