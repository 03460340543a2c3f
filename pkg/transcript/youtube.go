package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"video-summary-be/pkg/store"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL  = "https://www.youtube.com"
	DefaultLanguage = "en"

	captionTracksKey = `"captionTracks":`
)

// TranscriptSource loads the transcript behind a video URL.
type TranscriptSource interface {
	Load(ctx context.Context, videoURL string) (store.Document, error)
}

// SourceUnavailableError covers every way a transcript can fail to load:
// bad URL, private video, no captions, network failure.
type SourceUnavailableError struct {
	URL    string
	Reason string
	Cause  error
}

func (e *SourceUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transcript unavailable for %q: %s: %v", e.URL, e.Reason, e.Cause)
	}
	return fmt.Sprintf("transcript unavailable for %q: %s", e.URL, e.Reason)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Cause
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID accepts watch, short-link, embed, shorts and live URLs as
// well as a bare 11 character id.
func ParseVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("not a url: %q", raw)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 {
			switch parts[0] {
			case "embed", "shorts", "live", "v":
				id = parts[1]
			}
		}
	default:
		return "", fmt.Errorf("not a youtube url: %q", raw)
	}

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("no video id in %q", raw)
	}
	return id, nil
}

// YouTubeSource scrapes the caption track list from the watch page and
// downloads the timed-text XML of the preferred track.
type YouTubeSource struct {
	client   *resty.Client
	language string
}

var _ TranscriptSource = (*YouTubeSource)(nil)

func NewYouTubeSource(baseURL, language string) *YouTubeSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if language == "" {
		language = DefaultLanguage
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; video-summary-be)").
		SetTimeout(30 * time.Second)

	return &YouTubeSource{client: client, language: language}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Segments []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

func (s *YouTubeSource) Load(ctx context.Context, videoURL string) (store.Document, error) {
	id, err := ParseVideoID(videoURL)
	if err != nil {
		return store.Document{}, &SourceUnavailableError{URL: videoURL, Reason: "invalid video url", Cause: err}
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("v", id).
		SetHeader("Accept-Language", s.language).
		Get("/watch")
	if err != nil {
		return store.Document{}, &SourceUnavailableError{URL: videoURL, Reason: "fetch watch page", Cause: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return store.Document{}, &SourceUnavailableError{URL: videoURL, Reason: fmt.Sprintf("watch page status %d", resp.StatusCode())}
	}

	tracks, reason := captionTracks(resp.String())
	if len(tracks) == 0 {
		return store.Document{}, &SourceUnavailableError{URL: videoURL, Reason: reason}
	}
	track := s.pick(tracks)

	resp, err = s.client.R().SetContext(ctx).Get(track.BaseURL)
	if err != nil {
		return store.Document{}, &SourceUnavailableError{URL: videoURL, Reason: "fetch captions", Cause: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return store.Document{}, &SourceUnavailableError{URL: videoURL, Reason: fmt.Sprintf("captions status %d", resp.StatusCode())}
	}

	var tt timedText
	if err := xml.Unmarshal(resp.Body(), &tt); err != nil {
		return store.Document{}, &SourceUnavailableError{URL: videoURL, Reason: "decode captions", Cause: err}
	}

	parts := make([]string, 0, len(tt.Segments))
	for _, seg := range tt.Segments {
		// Caption text arrives HTML-escaped inside the XML.
		text := strings.Join(strings.Fields(html.UnescapeString(seg.Text)), " ")
		if text != "" {
			parts = append(parts, text)
		}
	}

	return store.NewDocument(strings.Join(parts, " "), map[string]string{
		"source":   id,
		"video_id": id,
		"language": track.LanguageCode,
		"url":      videoURL,
	}), nil
}

// pick prefers a manual track in the configured language, then an
// auto-generated one, then whatever comes first.
func (s *YouTubeSource) pick(tracks []captionTrack) captionTrack {
	var auto *captionTrack
	for i := range tracks {
		t := &tracks[i]
		if !strings.EqualFold(t.LanguageCode, s.language) && !strings.HasPrefix(strings.ToLower(t.LanguageCode), strings.ToLower(s.language)+"-") {
			continue
		}
		if t.Kind != "asr" {
			return *t
		}
		if auto == nil {
			auto = t
		}
	}
	if auto != nil {
		return *auto
	}
	return tracks[0]
}

// captionTracks extracts the track list embedded in the watch page. When
// none is found the second value says why.
func captionTracks(page string) ([]captionTrack, string) {
	idx := strings.Index(page, captionTracksKey)
	if idx < 0 {
		switch {
		case strings.Contains(page, `class="g-recaptcha"`):
			return nil, "too many requests"
		case !strings.Contains(page, `"playabilityStatus":`):
			return nil, "video unavailable"
		default:
			return nil, "transcripts disabled"
		}
	}

	var tracks []captionTrack
	dec := json.NewDecoder(strings.NewReader(page[idx+len(captionTracksKey):]))
	if err := dec.Decode(&tracks); err != nil {
		return nil, "malformed caption track list"
	}

	usable := tracks[:0]
	for _, t := range tracks {
		if t.BaseURL != "" {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return nil, "no transcript tracks"
	}
	return usable, ""
}
