package server

import (
	"log/slog"
	"net/http"

	"github.com/mssola/useragent"
)

type clientInfo struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

func parseClient(userAgent string) clientInfo {
	if userAgent == "" {
		return clientInfo{}
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	return clientInfo{
		Browser: browser,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

func (s *Server) logOpen(r *http.Request, videoID string) {
	client := parseClient(r.UserAgent())
	loc := s.geo.LookupRequest(r)
	slog.Info("discovery: video opened",
		"video_id", videoID,
		"browser", client.Browser,
		"os", client.OS,
		"mobile", client.Mobile,
		"bot", client.Bot,
		"country", loc.Country,
		"city", loc.City,
	)
}
