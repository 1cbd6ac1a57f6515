// Apple Music API implementation of the structured store.
//
// Response types based on https://developer.apple.com/documentation/applemusicapi
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/resolve"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"golang.org/x/time/rate"
)

const (
	appleMusicBaseURL = "https://api.music.apple.com/v1"
	pageLimit         = 100
)

// amResource is the generic Apple Music API resource envelope.
type amResource struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Attributes amAttributes `json:"attributes"`
}

type amAttributes struct {
	Name             string       `json:"name"`
	ArtistName       string       `json:"artistName"`
	AlbumName        string       `json:"albumName"`
	DurationInMillis int          `json:"durationInMillis"`
	ContentRating    string       `json:"contentRating"`
	ISRC             string       `json:"isrc"`
	TrackCount       int          `json:"trackCount"`
	Description      amDescriptor `json:"description"`
	PlayParams       amPlayParams `json:"playParams"`
}

type amDescriptor struct {
	Standard string `json:"standard"`
}

type amPlayParams struct {
	ID        string `json:"id"`
	CatalogID string `json:"catalogId"`
	IsLibrary bool   `json:"isLibrary"`
}

// amPage is a paginated collection response.
type amPage struct {
	Data []amResource `json:"data"`
	Next string       `json:"next"`
}

// amSearchResponse is the envelope for catalog and library search.
type amSearchResponse struct {
	Results map[string]amPage `json:"results"`
}

type amErrorResponse struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// CatalogService talks to the Apple Music API. Requests carry the developer
// token as bearer auth and the Music-User-Token for library scopes, and are
// paced by a client-side rate limiter.
type CatalogService struct {
	baseURL    string
	storefront string
	tokens     TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// CatalogOpts configures a CatalogService.
type CatalogOpts struct {
	Storefront string
	Tokens     TokenProvider
	HTTPClient *http.Client
	BaseURL    string
	Logger     *log.Logger
}

// NewCatalogService creates an Apple Music API client.
func NewCatalogService(opts CatalogOpts) *CatalogService {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = appleMusicBaseURL
	}
	if opts.Storefront == "" {
		opts.Storefront = "us"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &CatalogService{
		baseURL:    opts.BaseURL,
		storefront: opts.Storefront,
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		// Apple throttles aggressively on burst traffic; 10 req/s is safe.
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		logger:  opts.Logger,
	}
}

// Name returns the store name.
func (s *CatalogService) Name() string {
	return "Apple Music API"
}

// Storefront returns the configured storefront region.
func (s *CatalogService) Storefront() string {
	return s.storefront
}

// doRequest performs an authenticated HTTP request to the Apple Music API.
func (s *CatalogService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.tokens == nil {
		return fmt.Errorf("%w: no token provider configured", shared.ErrNotAuthenticated)
	}

	developerToken, err := s.tokens.DeveloperToken()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("request cancelled: %w", err)
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+developerToken)
	req.Header.Set("Content-Type", "application/json")

	// Library-scoped endpoints additionally need the user token.
	if strings.HasPrefix(endpoint, "/me/") {
		userToken, err := s.tokens.UserToken()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		req.Header.Set("Music-User-Token", userToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp amErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && len(errResp.Errors) > 0 {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Errors[0].Detail)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// listPages follows a paginated library endpoint until a short page.
func (s *CatalogService) listPages(ctx context.Context, endpoint string) ([]amResource, error) {
	var all []amResource
	offset := 0

	for {
		paged := fmt.Sprintf("%s?limit=%d&offset=%d", endpoint, pageLimit, offset)

		var page amPage
		if err := s.doRequest(ctx, http.MethodGet, paged, nil, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Data...)

		if len(page.Data) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return all, nil
}

// LibraryPlaylists retrieves every playlist in the user's library.
func (s *CatalogService) LibraryPlaylists(ctx context.Context) ([]Playlist, error) {
	resources, err := s.listPages(ctx, "/me/library/playlists")
	if err != nil {
		return nil, err
	}

	playlists := make([]Playlist, 0, len(resources))
	for _, r := range resources {
		playlists = append(playlists, Playlist{
			ID:          r.ID,
			Name:        r.Attributes.Name,
			Description: r.Attributes.Description.Standard,
			TrackCount:  r.Attributes.TrackCount,
		})
	}
	return playlists, nil
}

// LibrarySongs retrieves every song in the user's library.
func (s *CatalogService) LibrarySongs(ctx context.Context) ([]Track, error) {
	resources, err := s.listPages(ctx, "/me/library/songs")
	if err != nil {
		return nil, err
	}
	return tracksFromResources(resources), nil
}

// LibraryAlbums retrieves every album in the user's library.
func (s *CatalogService) LibraryAlbums(ctx context.Context) ([]Album, error) {
	resources, err := s.listPages(ctx, "/me/library/albums")
	if err != nil {
		return nil, err
	}

	albums := make([]Album, 0, len(resources))
	for _, r := range resources {
		albums = append(albums, Album{
			ID:         r.ID,
			Name:       r.Attributes.Name,
			Artist:     r.Attributes.ArtistName,
			TrackCount: r.Attributes.TrackCount,
		})
	}
	return albums, nil
}

// LibraryArtists retrieves every artist in the user's library.
func (s *CatalogService) LibraryArtists(ctx context.Context) ([]Artist, error) {
	resources, err := s.listPages(ctx, "/me/library/artists")
	if err != nil {
		return nil, err
	}

	artists := make([]Artist, 0, len(resources))
	for _, r := range resources {
		artists = append(artists, Artist{ID: r.ID, Name: r.Attributes.Name})
	}
	return artists, nil
}

// PlaylistTracks retrieves the tracks of a library playlist.
func (s *CatalogService) PlaylistTracks(ctx context.Context, playlistID string) ([]Track, error) {
	resources, err := s.listPages(ctx, fmt.Sprintf("/me/library/playlists/%s/tracks", url.PathEscape(playlistID)))
	if err != nil {
		return nil, err
	}
	return tracksFromResources(resources), nil
}

// AlbumTracks retrieves the tracks of a catalog album.
func (s *CatalogService) AlbumTracks(ctx context.Context, albumID string) ([]Track, error) {
	endpoint := fmt.Sprintf("/catalog/%s/albums/%s/tracks", s.storefront, url.PathEscape(albumID))
	if strings.HasPrefix(albumID, "l.") {
		endpoint = fmt.Sprintf("/me/library/albums/%s/tracks", url.PathEscape(albumID))
	}

	resources, err := s.listPages(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return tracksFromResources(resources), nil
}

// SearchCatalog searches the public catalog for the given types
// (e.g. "songs", "albums", "artists", "playlists").
func (s *CatalogService) SearchCatalog(ctx context.Context, term string, types []string, limit int) (*SearchResults, error) {
	return s.search(ctx, fmt.Sprintf("/catalog/%s/search", s.storefront), term, types, limit)
}

// SearchLibrary searches the user's library.
func (s *CatalogService) SearchLibrary(ctx context.Context, term string, types []string, limit int) (*SearchResults, error) {
	return s.search(ctx, "/me/library/search", term, types, limit, "library-")
}

func (s *CatalogService) search(ctx context.Context, endpoint, term string, types []string, limit int, typePrefix ...string) (*SearchResults, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > 25 {
		limit = 25
	}
	if len(types) == 0 {
		types = []string{"songs"}
	}

	prefix := ""
	if len(typePrefix) > 0 {
		prefix = typePrefix[0]
	}
	prefixed := make([]string, len(types))
	for i, t := range types {
		prefixed[i] = prefix + t
	}

	query := url.Values{}
	query.Set("term", term)
	query.Set("types", strings.Join(prefixed, ","))
	query.Set("limit", strconv.Itoa(limit))

	var response amSearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil, &response); err != nil {
		return nil, err
	}

	results := &SearchResults{}
	for key, page := range response.Results {
		switch strings.TrimPrefix(key, prefix) {
		case "songs":
			results.Tracks = append(results.Tracks, tracksFromResources(page.Data)...)
		case "albums":
			for _, r := range page.Data {
				results.Albums = append(results.Albums, Album{
					ID:         r.ID,
					Name:       r.Attributes.Name,
					Artist:     r.Attributes.ArtistName,
					TrackCount: r.Attributes.TrackCount,
				})
			}
		case "artists":
			for _, r := range page.Data {
				results.Artists = append(results.Artists, Artist{ID: r.ID, Name: r.Attributes.Name})
			}
		case "playlists":
			for _, r := range page.Data {
				results.Playlists = append(results.Playlists, Playlist{
					ID:          r.ID,
					Name:        r.Attributes.Name,
					Description: r.Attributes.Description.Standard,
					TrackCount:  r.Attributes.TrackCount,
				})
			}
		}
	}

	// A single logical entity can appear under several matched fields.
	results.Tracks = resolve.Dedupe(results.Tracks, func(t Track) string { return t.ID })
	results.Albums = resolve.Dedupe(results.Albums, func(a Album) string { return a.ID })
	results.Artists = resolve.Dedupe(results.Artists, func(a Artist) string { return a.ID })
	results.Playlists = resolve.Dedupe(results.Playlists, func(p Playlist) string { return p.ID })

	return results, nil
}

// CreatePlaylist creates a new library playlist.
func (s *CatalogService) CreatePlaylist(ctx context.Context, name, description string) (*Playlist, error) {
	body := map[string]any{
		"attributes": map[string]string{
			"name":        name,
			"description": description,
		},
	}

	var page amPage
	if err := s.doRequest(ctx, http.MethodPost, "/me/library/playlists", body, &page); err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, fmt.Errorf("%w: playlist creation returned no data", shared.ErrAPIRequest)
	}

	created := page.Data[0]
	return &Playlist{
		ID:          created.ID,
		Name:        created.Attributes.Name,
		Description: created.Attributes.Description.Standard,
	}, nil
}

// AddToPlaylist appends songs to a library playlist. Song ids may be catalog
// ids (digits) or library ids (i.XXX); the payload type differs.
func (s *CatalogService) AddToPlaylist(ctx context.Context, playlistID string, songIDs []string) error {
	if len(songIDs) == 0 {
		return fmt.Errorf("%w: no songs to add", shared.ErrInvalidInput)
	}

	type trackRef struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}

	refs := make([]trackRef, len(songIDs))
	for i, id := range songIDs {
		kind := "songs"
		if strings.HasPrefix(id, "i.") {
			kind = "library-songs"
		}
		refs[i] = trackRef{ID: id, Type: kind}
	}

	body := map[string]any{"data": refs}
	endpoint := fmt.Sprintf("/me/library/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// AddToLibrary adds catalog songs to the user's library.
func (s *CatalogService) AddToLibrary(ctx context.Context, catalogIDs []string) error {
	if len(catalogIDs) == 0 {
		return fmt.Errorf("%w: no songs to add", shared.ErrInvalidInput)
	}

	query := url.Values{}
	query.Set("ids[songs]", strings.Join(catalogIDs, ","))
	return s.doRequest(ctx, http.MethodPost, "/me/library?"+query.Encode(), nil, nil)
}

// ListCandidates implements the resolver's store boundary. The identity of a
// structured-store candidate is its API id.
func (s *CatalogService) ListCandidates(ctx context.Context, kind resolve.EntityKind) ([]resolve.Candidate, error) {
	switch kind {
	case resolve.KindPlaylist:
		playlists, err := s.LibraryPlaylists(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate, 0, len(playlists))
		for _, p := range playlists {
			candidates = append(candidates, resolve.Candidate{Name: p.Name, ID: p.ID})
		}
		return candidates, nil
	case resolve.KindTrack:
		tracks, err := s.LibrarySongs(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate, 0, len(tracks))
		for _, t := range tracks {
			candidates = append(candidates, resolve.Candidate{Name: t.Name, ID: t.ID})
		}
		return candidates, nil
	case resolve.KindAlbum:
		albums, err := s.LibraryAlbums(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate, 0, len(albums))
		for _, a := range albums {
			candidates = append(candidates, resolve.Candidate{Name: a.Name, ID: a.ID})
		}
		return candidates, nil
	case resolve.KindArtist:
		artists, err := s.LibraryArtists(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate, 0, len(artists))
		for _, a := range artists {
			candidates = append(candidates, resolve.Candidate{Name: a.Name, ID: a.ID})
		}
		return candidates, nil
	default:
		return nil, fmt.Errorf("%w: unknown entity kind", shared.ErrInvalidInput)
	}
}

func tracksFromResources(resources []amResource) []Track {
	tracks := make([]Track, 0, len(resources))
	for _, r := range resources {
		tracks = append(tracks, Track{
			ID:         r.ID,
			Name:       r.Attributes.Name,
			Artist:     r.Attributes.ArtistName,
			Album:      r.Attributes.AlbumName,
			DurationMS: r.Attributes.DurationInMillis,
			ISRC:       r.Attributes.ISRC,
			Explicit:   r.Attributes.ContentRating == "explicit",
		})
	}
	return tracks
}
