// Package filesystem implements the filesystem-family music providers: a
// shared scan/tag core over interchangeable storage backends (local
// directory, SMB share, WebDAV endpoint, FTP server). Audio metadata is
// read with dhowden/tag; deep probing of sample rates and loudness is the
// external media toolchain's job.
package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dhowden/tag"
	"go.uber.org/zap"

	"harmonia/internal/models"
	"harmonia/internal/provider"
	"harmonia/pkg/lazy"
)

// Provider serves one backend's directory tree as a music library.
type Provider struct {
	provider.Unsupported

	instanceID string
	backend    Backend
	logger     *zap.Logger
	watcher    *Watcher
}

// New builds a filesystem provider over the given backend.
func New(instanceID string, backend Backend, logger *zap.Logger) *Provider {
	return &Provider{
		Unsupported: provider.NewUnsupported(instanceID),
		instanceID:  instanceID,
		backend:     backend,
		logger:      logger,
	}
}

func (p *Provider) InstanceID() string { return p.instanceID }

// Domain carries the filesystem_ prefix the Stream Coordinator's
// prefer-file tier keys on.
func (p *Provider) Domain() string { return "filesystem_" + p.backend.Kind() }

func (p *Provider) Type() provider.Type { return provider.TypeFilesystem }

func (p *Provider) Capabilities() provider.CapabilitySet {
	return provider.NewCapabilitySet(
		provider.CapabilityLibraryTracks,
		provider.CapabilitySearch,
		provider.CapabilityBrowse,
		provider.CapabilityTrackMetadata,
	)
}

// OnStart verifies the backend answers; a dead share surfaces LoginFailed
// so the registry marks the instance unavailable until reloaded.
func (p *Provider) OnStart(ctx context.Context) error {
	if _, err := p.backend.List(ctx, ""); err != nil {
		return provider.NewLoginFailed(p.instanceID, "backend unreachable", err)
	}
	return nil
}

func (p *Provider) OnStop(ctx context.Context) error {
	if p.watcher != nil {
		p.watcher.Stop()
	}
	return p.backend.Close()
}

// WatchChanges starts the fsnotify change feed for local backends; remote
// backends have no change notification and rely on the periodic sync.
func (p *Provider) WatchChanges(onChange func()) error {
	local, ok := p.backend.(*LocalBackend)
	if !ok {
		return nil
	}
	w, err := NewWatcher(local.Root(), p.logger, onChange)
	if err != nil {
		return err
	}
	p.watcher = w
	return nil
}

// GetTrack reads one file's tags into a Track. The item id is the file's
// backend-relative path.
func (p *Provider) GetTrack(ctx context.Context, itemID string) (*models.Track, error) {
	rc, err := p.backend.Open(ctx, itemID)
	if err != nil {
		return nil, provider.NewMediaNotFound(p.instanceID, fmt.Sprintf("open %s: %v", itemID, err))
	}
	defer rc.Close()
	return p.buildTrack(itemID, rc)
}

// GetLibraryTracks walks the tree lazily, yielding one Track per audio
// file. The walk keeps its own directory stack so items are produced on
// demand, matching the finite non-restartable sequence contract.
func (p *Provider) GetLibraryTracks(ctx context.Context) (*lazy.Seq[*models.Track], error) {
	dirs := []string{""}
	var files []Entry

	return lazy.NewSeq(func() (*models.Track, bool, error) {
		for {
			if len(files) > 0 {
				entry := files[0]
				files = files[1:]
				track, err := p.trackFromEntry(ctx, entry)
				if err != nil {
					p.logger.Warn("unreadable audio file skipped",
						zap.String("path", entry.Path), zap.Error(err))
					continue
				}
				return track, true, nil
			}
			if len(dirs) == 0 {
				return nil, false, nil
			}
			dir := dirs[0]
			dirs = dirs[1:]
			entries, err := p.backend.List(ctx, dir)
			if err != nil {
				return nil, false, provider.NewIOError(p.instanceID, "list "+dir, err)
			}
			for _, e := range entries {
				if e.IsDir {
					dirs = append(dirs, e.Path)
					continue
				}
				if _, audio := audioExtensions[strings.ToLower(path.Ext(e.Path))]; audio {
					files = append(files, e)
				}
			}
		}
	}), nil
}

// Search walks the tree and loose-matches file names and tag titles.
// Filesystem search results are deliberately never cached upstream.
func (p *Provider) Search(ctx context.Context, query string, mediaTypes []models.MediaType, limit int) (*provider.SearchResults, error) {
	wantTracks := len(mediaTypes) == 0
	for _, mt := range mediaTypes {
		if mt == models.MediaTypeTrack {
			wantTracks = true
		}
	}
	results := &provider.SearchResults{}
	if !wantTracks {
		return results, nil
	}

	needle := strings.ToLower(query)
	seq, err := p.GetLibraryTracks(ctx)
	if err != nil {
		return nil, err
	}
	err = seq.ForEach(func(t *models.Track) error {
		if len(results.Tracks) >= limit && limit > 0 {
			return io.EOF
		}
		haystack := strings.ToLower(t.Name + " " + joinArtists(t.Artists))
		if strings.Contains(haystack, needle) {
			results.Tracks = append(results.Tracks, t)
		}
		return nil
	}, func() bool { return ctx.Err() != nil })
	if err != nil && err != io.EOF {
		return nil, err
	}
	return results, nil
}

// GetStreamDetails points the stream endpoint at the file itself; local
// files are served direct, remote backends are proxied through Open.
func (p *Provider) GetStreamDetails(ctx context.Context, itemID string, mediaType models.MediaType) (*models.StreamDetails, error) {
	ext := strings.ToLower(path.Ext(itemID))
	contentType, ok := audioExtensions[ext]
	if !ok {
		return nil, provider.NewMediaNotFound(p.instanceID, itemID+" is not an audio file")
	}
	_, isLocal := p.backend.(*LocalBackend)
	return &models.StreamDetails{
		Provider:    p.instanceID,
		ItemID:      itemID,
		MediaType:   mediaType,
		ContentType: contentType,
		StreamType:  models.StreamTypeFile,
		Path:        itemID,
		Direct:      isLocal,
	}, nil
}

// OpenFile exposes the raw file stream for the proxying stream endpoint.
func (p *Provider) OpenFile(ctx context.Context, itemID string) (io.ReadCloser, error) {
	return p.backend.Open(ctx, itemID)
}

func (p *Provider) trackFromEntry(ctx context.Context, entry Entry) (*models.Track, error) {
	rc, err := p.backend.Open(ctx, entry.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return p.buildTrack(entry.Path, rc)
}

// buildTrack parses tags from the stream. tag.ReadFrom needs a seeker, so
// remote backends buffer the object; local files seek in place.
func (p *Provider) buildTrack(itemID string, r io.Reader) (*models.Track, error) {
	seeker, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		seeker = bytes.NewReader(data)
	}

	meta, err := tag.ReadFrom(seeker)
	ext := strings.ToLower(path.Ext(itemID))

	track := &models.Track{
		BaseItem: models.BaseItem{
			ItemID:   itemID,
			Provider: p.instanceID,
		},
	}

	if err != nil {
		// Untaggable but playable: fall back to the file name.
		track.Name = strings.TrimSuffix(path.Base(itemID), path.Ext(itemID))
	} else {
		track.Name = meta.Title()
		if track.Name == "" {
			track.Name = strings.TrimSuffix(path.Base(itemID), path.Ext(itemID))
		}
		if artist := meta.Artist(); artist != "" {
			track.Artists = models.ItemMappingList{{
				MediaType: models.MediaTypeArtist,
				ItemID:    models.CreateSortName(artist),
				Provider:  p.instanceID,
				Name:      artist,
				SortName:  models.CreateSortName(artist),
			}}
		}
		if album := meta.Album(); album != "" {
			disc, _ := meta.Disc()
			trackNum, _ := meta.Track()
			track.Albums = []models.TrackAlbumMapping{{
				AlbumItemID: models.CreateSortName(album),
				DiscNumber:  disc,
				TrackNumber: trackNum,
			}}
		}
		if genre := meta.Genre(); genre != "" {
			track.Metadata.Genres = models.NewStringSet(genre)
		}
	}

	track.SortName = models.CreateSortName(track.Name)
	track.ProviderMappings = models.ProviderMappingSet{{
		ProviderInstance: p.instanceID,
		ProviderDomain:   p.Domain(),
		ItemID:           itemID,
		Available:        true,
		AudioFormat:      formatForExtension(ext),
	}}
	track.EnsureDerived(models.MediaTypeTrack)
	return track, nil
}

// formatForExtension derives a conservative AudioFormat from the container
// alone; exact sample rate and bit depth come later from the external
// probe toolchain.
func formatForExtension(ext string) *models.AudioFormat {
	contentType := audioExtensions[ext]
	if losslessExtensions[ext] {
		return &models.AudioFormat{
			ContentType:   contentType,
			Lossless:      true,
			SampleRateKHz: 44.1,
			BitDepth:      16,
			Codec:         strings.TrimPrefix(ext, "."),
		}
	}
	return &models.AudioFormat{
		ContentType: contentType,
		BitRateKbps: 320,
		Codec:       strings.TrimPrefix(ext, "."),
	}
}

func joinArtists(artists models.ItemMappingList) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, " ")
}
