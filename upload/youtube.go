package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/uhwar/reddit-tik-tok-generator/config"
	"github.com/uhwar/reddit-tik-tok-generator/types"
)

// ErrUploadFailed wraps auth and API failures during the optional
// YouTube upload stage
var ErrUploadFailed = errors.New("video upload failed")

// Uploader pushes a composed video to YouTube via Data API v3
type Uploader struct {
	cfg *config.Config
}

// New creates an Uploader
func New(cfg *config.Config) *Uploader {
	return &Uploader{cfg: cfg}
}

// Run uploads the video, titling it after the story it narrates.
// Returns the video ID and watch URL.
func (u *Uploader) Run(ctx context.Context, videoFile string, st *types.Story) (string, string, error) {
	client, err := u.oauthClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", "", fmt.Errorf("%w: youtube service: %v", ErrUploadFailed, err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                title(st),
			Description:          fmt.Sprintf("Narrated from r/%s.\nOriginal post: %s", st.Subreddit, st.URL),
			Tags:                 st.Tags,
			CategoryId:           u.cfg.Upload.CategoryID,
			DefaultLanguage:      u.cfg.Upload.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.Upload.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           u.cfg.Upload.Visibility,
			SelfDeclaredMadeForKids: u.cfg.Upload.MadeForKids,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", "", fmt.Errorf("%w: open video file: %v", ErrUploadFailed, err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Printf("[upload] uploading %q (%.1f MB)", video.Snippet.Title, float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.NotifySubscribers(u.cfg.Upload.NotifySubscribers)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	watchURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	log.Printf("[upload] ✅ uploaded: %s", watchURL)
	return uploaded.Id, watchURL, nil
}

// oauthClient builds an OAuth2 HTTP client from a stored refresh token
func (u *Uploader) oauthClient(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")

	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}

// title trims a story title to YouTube's 100-char limit
func title(st *types.Story) string {
	t := st.Title
	if len(t) > 100 {
		t = t[:97] + "..."
	}
	return t
}
