package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/jobs"
	"github.com/ocelot/tunesd/internal/models"
	"github.com/ocelot/tunesd/internal/search"
	"github.com/ocelot/tunesd/internal/shared"
)

// TracklistResolver resolves album requests into song records.
// Satisfied by the tracklist package's Resolver.
type TracklistResolver interface {
	ResolveTracks(ctx context.Context, artist, album string) ([]models.SongRecord, error)
}

// SongSearcher runs non-downloading song searches against the acquisition
// source. Satisfied by the search package's VideoSearcher.
type SongSearcher interface {
	SearchVideos(ctx context.Context, query string, limit int) ([]search.VideoResult, error)
}

// AlbumSearcher runs album searches against the metadata directory.
// Satisfied by the search package's AlbumSearcher.
type AlbumSearcher interface {
	SearchAlbums(ctx context.Context, query string, limit int) ([]search.AlbumResult, error)
}

// Handlers wires the job manager, tracklist resolver, and searchers to the
// JSON API.
type Handlers struct {
	manager  *jobs.Manager
	tracks   TracklistResolver
	songs    SongSearcher
	albums   AlbumSearcher
	logger   *log.Logger
	maxSongs int
}

// HandlersOpts contains the collaborators for the API handler set.
type HandlersOpts struct {
	Manager  *jobs.Manager
	Tracks   TracklistResolver
	Songs    SongSearcher
	Albums   AlbumSearcher
	Logger   *log.Logger
	MaxSongs int
}

// NewHandlers creates the API handler set.
func NewHandlers(opts HandlersOpts) *Handlers {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MaxSongs <= 0 {
		opts.MaxSongs = jobs.DefaultMaxSongs
	}
	return &Handlers{
		manager:  opts.Manager,
		tracks:   opts.Tracks,
		songs:    opts.Songs,
		albums:   opts.Albums,
		logger:   opts.Logger,
		maxSongs: opts.MaxSongs,
	}
}

// Register attaches every API route to the router.
func (h *Handlers) Register(r Router) {
	r.Handle(http.MethodGet, "/{$}", http.HandlerFunc(h.Health))
	r.Handle(http.MethodGet, "/search/songs", http.HandlerFunc(h.SearchSongs))
	r.Handle(http.MethodGet, "/search/albums", http.HandlerFunc(h.SearchAlbums))
	r.Handle(http.MethodPost, "/download/song", http.HandlerFunc(h.DownloadSong))
	r.Handle(http.MethodPost, "/download/album", http.HandlerFunc(h.DownloadAlbum))
	r.Handle(http.MethodGet, "/status/{id}", http.HandlerFunc(h.Status))
	r.Handle(http.MethodDelete, "/download/{id}", http.HandlerFunc(h.Cancel))
	r.Handle(http.MethodGet, "/download/{id}/playlist", http.HandlerFunc(h.Playlist))
}

type songRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

type albumRequest struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

type downloadResponse struct {
	Message    string              `json:"message"`
	DownloadID string              `json:"download_id"`
	Status     string              `json:"status"`
	SongsInfo  []models.SongRecord `json:"songs_info,omitempty"`
}

// Health answers the service description document.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "tunesd download service",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": map[string]string{
			"GET /search/songs":           "Search for songs",
			"GET /search/albums":          "Search for albums",
			"POST /download/song":         "Download single song",
			"POST /download/album":        "Download entire album",
			"GET /status/{id}":            "Check download status",
			"DELETE /download/{id}":       "Cancel a download",
			"GET /download/{id}/playlist": "Get album playlist",
		},
	})
}

// Result caps for the search endpoints.
const (
	defaultSongResults  = 10
	maxSongResults      = 20
	defaultAlbumResults = 5
	maxAlbumResults     = 10
)

type songSearchResponse struct {
	Query   string               `json:"query"`
	Results []search.VideoResult `json:"results"`
}

type albumSearchResponse struct {
	Query string `json:"query"`
	search.AlbumResult
}

// SearchSongs answers a non-downloading acquisition-source search.
func (h *Handlers) SearchSongs(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeDetail(w, http.StatusBadRequest, "Query parameter is required")
		return
	}
	limit := queryLimit(r, defaultSongResults, maxSongResults)

	h.logger.Infof("song search: '%s' (limit: %d)", query, limit)

	results, err := h.songs.SearchVideos(r.Context(), query, limit)
	if err != nil {
		// Search failures degrade to an empty result set, like every other
		// provider path.
		h.logger.Warnf("song search failed: %v", err)
		results = nil
	}
	if results == nil {
		results = []search.VideoResult{}
	}

	writeJSON(w, http.StatusOK, songSearchResponse{Query: query, Results: results})
}

// SearchAlbums answers a directory album search with tracklists and cover art.
func (h *Handlers) SearchAlbums(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeDetail(w, http.StatusBadRequest, "Query parameter is required")
		return
	}
	limit := queryLimit(r, defaultAlbumResults, maxAlbumResults)

	h.logger.Infof("album search: '%s' (limit: %d)", query, limit)

	albums, err := h.albums.SearchAlbums(r.Context(), query, limit)
	if err != nil {
		h.logger.Warnf("album search failed: %v", err)
		albums = nil
	}

	response := make([]albumSearchResponse, 0, len(albums))
	for _, album := range albums {
		response = append(response, albumSearchResponse{Query: query, AlbumResult: album})
	}

	writeJSON(w, http.StatusOK, response)
}

// queryLimit parses the limit query parameter, clamped to max.
func queryLimit(r *http.Request, fallback, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

// DownloadSong accepts a single-song request and starts its job.
func (h *Handlers) DownloadSong(w http.ResponseWriter, r *http.Request) {
	var req songRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	song := models.SongRecord{Title: req.Title, Artist: req.Artist, Album: req.Album}.Normalized()
	if err := song.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if song.Album == "" {
		song.Album = "Unknown Album"
	}
	// Single songs carry a bundled override; the full ladder is reserved for
	// album tracks where titles are less trustworthy.
	song.Query = fmt.Sprintf("%s %s official audio lyrics", song.Artist, song.Title)

	h.logger.Infof("song download request: title='%s', artist='%s'", song.Title, song.Artist)

	id, err := h.manager.Submit([]models.SongRecord{song})
	if err != nil {
		writeManagerError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, downloadResponse{
		Message:    fmt.Sprintf("Started downloading song: %s by %s", song.Title, song.Artist),
		DownloadID: id,
		Status:     "started",
		SongsInfo:  []models.SongRecord{song},
	})
}

// DownloadAlbum accepts an album request, resolves its tracklist, and starts
// the job. The reserved job is observable in searching_tracks while the
// tracklist resolves.
func (h *Handlers) DownloadAlbum(w http.ResponseWriter, r *http.Request) {
	var req albumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Artist == "" || req.Album == "" {
		writeDetail(w, http.StatusBadRequest, "artist and album are required")
		return
	}

	h.logger.Infof("album download request: artist='%s', album='%s'", req.Artist, req.Album)

	id := h.manager.Reserve()

	songs, err := h.tracks.ResolveTracks(r.Context(), req.Artist, req.Album)
	if err != nil {
		h.manager.Abort(id, err.Error())
		writeDetail(w, http.StatusNotFound,
			fmt.Sprintf("Could not find tracks for album '%s' by '%s'", req.Album, req.Artist))
		return
	}

	if len(songs) > h.maxSongs {
		h.manager.Abort(id, "album has too many tracks")
		writeDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Album has too many tracks (max %d). Try individual songs instead.", h.maxSongs))
		return
	}

	if err := h.manager.StartReserved(id, songs); err != nil {
		h.manager.Abort(id, err.Error())
		writeManagerError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, downloadResponse{
		Message:    fmt.Sprintf("Started downloading album '%s' by %s (%d tracks)", req.Album, req.Artist, len(songs)),
		DownloadID: id,
		Status:     "started",
		SongsInfo:  songs,
	})
}

// Status answers a job snapshot.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	job, err := h.manager.Status(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Download not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Cancel requests cooperative cancellation of a job.
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.manager.Cancel(id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Download %s cancelled successfully", id),
		})
	case errors.Is(err, shared.ErrJobNotFound):
		writeDetail(w, http.StatusNotFound, "Download not found")
	case errors.Is(err, shared.ErrInvalidState):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

// Playlist answers the playlist reference for a completed multi-song job.
func (h *Handlers) Playlist(w http.ResponseWriter, r *http.Request) {
	path, err := h.manager.PlaylistRef(r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"playlist_path": path})
	case errors.Is(err, shared.ErrJobNotFound):
		writeDetail(w, http.StatusNotFound, "Download not found")
	case errors.Is(err, shared.ErrInvalidState):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func writeManagerError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrInvalidRequest) {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeDetail mirrors the {"detail": ...} error envelope the API has always used.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
