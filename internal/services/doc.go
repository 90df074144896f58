// Package services implements the track-resolution and download core.
//
// # Catalog
//
// [SpotifyService] exchanges client credentials for a bearer token (golang.org/x/oauth2/clientcredentials),
// parses the catalog URL with [ParseResource] and dispatches on the resource kind:
//   - playlist: name, then /tracks pages of 100 until a page is empty or has no next link
//   - album: the album's embedded track listing
//   - artist: the artist's top tracks for the configured market, named "<artist> (Top Tracks)"
//
// Tokens are request-scoped unless a [TokenCache] is supplied, in which case they are reused until shortly
// before expiry and dropped on any authentication failure.
//
// [RetryingFetcher] wraps any [CatalogFetcher] with bounded attempts and a per-attempt timeout.
//
// # Matching
//
// [YouTubeService] queries the ytmusicapi proxy with "<artist> - <name>" and takes the first result.
//
// # Download
//
// [AudioPipeline] chains a [MediaSource] (kkdai/youtube), a [Transcoder] (ffmpeg) and the destination
// file with [io.Pipe]; failures surface as [*StreamError] naming the stage.
//
// # Errors
//
// Sentinels from the shared package:
//   - [shared.ErrInvalidInput] : URL without a playlist/album/artist segment
//   - [shared.ErrUnsupportedResource] : resource kind without a fetch strategy
//   - [shared.ErrAuthentication] : credential exchange rejected
//   - [shared.ErrCatalogTransport] : any other catalog failure
//   - [shared.ErrRetryExhausted] : via [*RetryExhaustedError]
//   - [shared.ErrNoMatchFound] : empty search results
//   - [shared.ErrStream] : via [*StreamError]
package services
