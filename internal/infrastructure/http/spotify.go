package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
)

const playlistPageSize = 100

type CatalogClient interface {
	// PlaylistTracks returns every item of the playlist in catalog order.
	// Items without a usable track payload are returned as nil.
	PlaylistTracks(ctx context.Context, playlistID string) ([]*domain.CatalogTrack, error)
}

type spotifyCatalog struct {
	client *spotify.Client
	logger *log.Logger
}

// NewSpotifyCatalog authenticates with the client-credentials flow.
func NewSpotifyCatalog(ctx context.Context, cfg config.SpotifyConfig, logger *log.Logger) (CatalogClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify client id and secret are required")
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	opts := []spotify.ClientOption{spotify.WithRetry(true)}
	if cfg.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(cfg.BaseURL))
	}

	return newSpotifyCatalog(creds.Client(ctx), logger, opts...), nil
}

func newSpotifyCatalog(httpClient *http.Client, logger *log.Logger, opts ...spotify.ClientOption) CatalogClient {
	return &spotifyCatalog{
		client: spotify.New(httpClient, opts...),
		logger: logger,
	}
}

func (c *spotifyCatalog) PlaylistTracks(ctx context.Context, playlistID string) ([]*domain.CatalogTrack, error) {
	page, err := c.client.GetPlaylistTracks(ctx, spotify.ID(playlistID), spotify.Limit(playlistPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
	}

	var tracks []*domain.CatalogTrack
	for {
		for _, item := range page.Tracks {
			track := toCatalogTrack(item)
			if track == nil {
				c.logger.Debug("playlist item has no usable track", "playlist", playlistID, "title", item.Track.Name, "artists", artistNames(item.Track))
			}
			tracks = append(tracks, track)
		}

		err = c.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to paginate playlist %s: %w", playlistID, err)
		}
	}

	c.logger.Debug("fetched playlist", "playlist", playlistID, "tracks", len(tracks))
	return tracks, nil
}

func toCatalogTrack(item spotify.PlaylistTrack) *domain.CatalogTrack {
	if item.Track.Name == "" || len(item.Track.Artists) == 0 {
		return nil
	}

	track, err := domain.NewCatalogTrack(item.Track.Name, item.Track.Artists[0].Name)
	if err != nil {
		return nil
	}
	track.WithID(string(item.Track.ID))

	if images := item.Track.Album.Images; len(images) > 0 {
		track.WithArtwork(images[0].URL)
	}

	return track
}

func artistNames(t spotify.FullTrack) string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
