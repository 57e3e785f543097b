package classifier

import "testing"

func TestIsAICrawlerDefaults(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (human browser)", false},
		{"GPTBot/1.0", true},
		{"gptbot/1.0", true},
		{"Mozilla/5.0 (compatible; ChatGPT-User/1.0)", true},
		{"PerplexityBot", true},
		{"curl/8.0", false},
		{"facebookexternalhit/1.1", true},
	}
	for _, c2 := range cases {
		if got := c.IsAICrawler(c2.ua); got != c2.want {
			t.Errorf("IsAICrawler(%q) = %v, want %v", c2.ua, got, c2.want)
		}
	}
}

func TestNewWithCustomPatterns(t *testing.T) {
	c, err := New([]string{"MyCustomBot"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !c.IsAICrawler("MyCustomBot/2.0") {
		t.Error("expected custom pattern to match")
	}
	if c.IsAICrawler("GPTBot/1.0") {
		t.Error("default pattern should not apply when a custom set is given")
	}
}
