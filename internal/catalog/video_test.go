package catalog

import "testing"

func TestSourceFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want Source
	}{
		{"https://www.youtube.com/watch?v=1", SourceYouTube},
		{"https://youtu.be/1", SourceYouTube},
		{"https://open.spotify.com/episode/1", SourceSpotify},
		{"https://transradio.example.org/stream", SourceTransRadio},
		{"https://www.timelesstoday.tv/x", SourceTimelessToday},
		{"", DefaultSource},
	}
	for _, tt := range tests {
		if got := SourceFromURL(tt.url); got != tt.want {
			t.Errorf("SourceFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestParseSource(t *testing.T) {
	if src, ok := ParseSource("spotify"); !ok || src != SourceSpotify {
		t.Errorf("expected spotify, got %q ok=%v", src, ok)
	}
	if _, ok := ParseSource("vimeo"); ok {
		t.Error("expected vimeo to be rejected")
	}
}

func TestOutboundURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.timelesstoday.tv/x", "https://timelesstoday.tv/x"},
		{"https://WWW.timelesstoday.tv/x?y=1", "https://timelesstoday.tv/x?y=1"},
		{"https://www.timelesstoday.tv:8443/x", "https://timelesstoday.tv:8443/x"},
		{"https://timelesstoday.tv/x", "https://timelesstoday.tv/x"},
		{"https://www.youtube.com/watch?v=1", "https://www.youtube.com/watch?v=1"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := OutboundURL(tt.in); got != tt.want {
			t.Errorf("OutboundURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
