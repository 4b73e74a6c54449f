package api

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/http/response"
	"github.com/tlksio/tlks-server/internal/service"
)

// RSS 2.0 document shapes. Kept minimal: channel metadata plus one item
// per talk, with the playback redirect as the item link.
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description,omitempty"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

func (s *Server) handleRSSLatest(w http.ResponseWriter, r *http.Request) {
	talks, err := s.feedService.Latest(r.Context(), service.DefaultFeedLimit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.writeRSS(w, "Latest talks", s.baseURL+"/latest", "The most recently shared talks", talks)
}

func (s *Server) handleRSSPopular(w http.ResponseWriter, r *http.Request) {
	talks, err := s.feedService.Popular(r.Context(), service.DefaultFeedLimit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.writeRSS(w, "Popular talks", s.baseURL+"/popular", "The most upvoted talks", talks)
}

func (s *Server) handleRSSTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	talks, err := s.feedService.ByTag(r.Context(), tag, service.DefaultFeedLimit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	title := fmt.Sprintf("Talks tagged %q", tag)
	s.writeRSS(w, title, s.baseURL+"/tag/"+tag, "The latest talks tagged "+tag, talks)
}

func (s *Server) writeRSS(w http.ResponseWriter, title, link, description string, talks []*domain.Talk) {
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       title,
			Link:        link,
			Description: description,
			Items:       make([]rssItem, 0, len(talks)),
		},
	}

	for _, talk := range talks {
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       talk.Title,
			Link:        s.baseURL + "/talk/" + talk.Slug,
			Description: talk.Description,
			GUID:        s.baseURL + "/talk/" + talk.Slug,
			PubDate:     talk.Created.Format(time.RFC1123Z),
		})
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		s.logger.Error("failed to write rss header", "error", err)
		return
	}
	if err := xml.NewEncoder(w).Encode(feed); err != nil {
		s.logger.Error("failed to encode rss feed", "error", err)
	}
}
