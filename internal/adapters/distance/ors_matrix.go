package distance

import (
	"bytes"
	"context"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/geo"
	"crew-route-service/internal/platform/obs"
	"crew-route-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnreachable is returned by GetDistance when the road network has no path.
var ErrUnreachable = errors.New("destination unreachable")

// ORSMatrixProvider implements DistanceMatrixProvider and DistanceProvider
// against the OpenRouteService matrix API.
//
// Rows already present in the distance cache are not requested again. Calls
// are throttled by a token bucket so a planning burst stays within quota.
// The provider is safe for concurrent use.
type ORSMatrixProvider struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	profile     string
	cache       ports.DistanceCache
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
}

type ORSOption func(*ORSMatrixProvider)

func WithBaseURL(u string) ORSOption { return func(o *ORSMatrixProvider) { o.baseURL = u } }

func WithProfile(p string) ORSOption { return func(o *ORSMatrixProvider) { o.profile = p } }

func WithCache(c ports.DistanceCache) ORSOption { return func(o *ORSMatrixProvider) { o.cache = c } }

func WithHTTPClient(c *http.Client) ORSOption { return func(o *ORSMatrixProvider) { o.session = c } }

// WithRateLimit caps outgoing requests per second; rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) ORSOption {
	return func(o *ORSMatrixProvider) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the attempt count and initial backoff for transient failures.
func WithRetry(attempts int, backoff time.Duration) ORSOption {
	return func(o *ORSMatrixProvider) {
		if attempts > 0 {
			o.maxAttempts = attempts
		}
		if backoff > 0 {
			o.backoff = backoff
		}
	}
}

func NewORSMatrixProvider(apiKey string, opts ...ORSOption) (*ORSMatrixProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSMatrixProvider{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     "https://api.openrouteservice.org",
		profile:     "driving-car",
		limiter:     rate.NewLimiter(rate.Limit(1), 1),
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// GetDistance delegates to the matrix path to reuse caching.
func (o *ORSMatrixProvider) GetDistance(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (ports.DistanceResult, error) {
	m, err := o.GetDistanceMatrix(ctx, []domain.Coordinates{origin, destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("get ORS distance %s -> %s: %w", origin.Key(), destination.Key(), err)
	}

	miles, minutes := m.Miles[0][1], m.Minutes[0][1]
	if math.IsInf(miles, 1) || math.IsInf(minutes, 1) {
		return ports.DistanceResult{}, fmt.Errorf("get ORS distance %s -> %s: %w", origin.Key(), destination.Key(), ErrUnreachable)
	}

	return ports.DistanceResult{DistanceMiles: miles, DurationMinutes: minutes}, nil
}

// GetDistanceMatrix returns road distances for every ordered pair of points.
// Pairs with no route are +Inf.
func (o *ORSMatrixProvider) GetDistanceMatrix(
	ctx context.Context,
	points []domain.Coordinates,
) (_ ports.DistanceMatrix, err error) {
	defer obs.Time(ctx, "ors.GetDistanceMatrix")(&err)

	n := len(points)
	m := newMatrix(n, ports.SourceRoad)
	if n < 2 {
		return m, nil
	}

	for i, p := range points {
		if !p.Valid() {
			return ports.DistanceMatrix{}, fmt.Errorf("point %d has invalid coordinates %+v", i, p)
		}
	}

	keys := make([]string, n)
	for i, p := range points {
		keys[i] = p.Key()
	}

	missingRows := o.fillFromCache(ctx, keys, m)
	if len(missingRows) == 0 {
		return m, nil
	}

	fetched, err := o.fetchMatrix(ctx, points, missingRows)
	if err != nil {
		return ports.DistanceMatrix{}, fmt.Errorf("fetching matrix rows: %w", err)
	}

	for r, i := range missingRows {
		row := make(map[string]ports.DistanceResult, n-1)
		for j := range points {
			if i == j {
				continue
			}
			res := fetched[r][j]
			m.Miles[i][j] = res.DistanceMiles
			m.Minutes[i][j] = res.DurationMinutes
			if !math.IsInf(res.DistanceMiles, 1) && keys[i] != keys[j] {
				row[keys[j]] = res
			}
		}

		if o.cache != nil && len(row) > 0 {
			if err := o.cache.PutMany(ctx, keys[i], row); err != nil {
				log.Printf("[ORS] distance cache write failed origin=%s: %v", keys[i], err)
			}
		}
	}

	return m, nil
}

// fillFromCache copies cached legs into m and returns the row indices that
// still have gaps. Cache failures are logged and treated as misses.
func (o *ORSMatrixProvider) fillFromCache(ctx context.Context, keys []string, m ports.DistanceMatrix) []int {
	missing := make([]int, 0, len(keys))

	for i := range keys {
		complete := true
		var hits map[string]ports.DistanceResult

		if o.cache != nil {
			dests := make([]string, 0, len(keys)-1)
			for j, k := range keys {
				if j != i && k != keys[i] {
					dests = append(dests, k)
				}
			}
			var err error
			hits, err = o.cache.GetMany(ctx, keys[i], dests)
			if err != nil {
				log.Printf("[ORS] distance cache read failed origin=%s: %v", keys[i], err)
				hits = nil
			}
		}

		for j, k := range keys {
			if i == j {
				continue
			}
			if k == keys[i] {
				// Co-located points: zero leg.
				continue
			}
			res, ok := hits[k]
			if !ok {
				complete = false
				continue
			}
			m.Miles[i][j] = res.DistanceMiles
			m.Minutes[i][j] = res.DurationMinutes
		}

		if !complete {
			missing = append(missing, i)
		}
	}

	return missing
}

// fetchMatrix requests the given source rows against every point.
// Result is indexed [source position][point index].
func (o *ORSMatrixProvider) fetchMatrix(
	ctx context.Context,
	points []domain.Coordinates,
	sources []int,
) ([][]ports.DistanceResult, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, len(points))
	destinations := make([]int, 0, len(points))
	for i, p := range points {
		locations = append(locations, p.CoordsToList())
		destinations = append(destinations, i)
	}

	payload, err := json.Marshal(matrixRequest{
		Locations:    locations,
		Destinations: destinations,
		Metrics:      []string{"distance", "duration"},
		Sources:      sources,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != len(sources) || len(mr.Durations) != len(sources) {
		return nil, fmt.Errorf(
			"expected %d source rows; got distances=%d durations=%d",
			len(sources), len(mr.Distances), len(mr.Durations),
		)
	}

	out := make([][]ports.DistanceResult, len(sources))
	for r := range sources {
		if len(mr.Distances[r]) != len(points) || len(mr.Durations[r]) != len(points) {
			return nil, fmt.Errorf(
				"row %d lengths do not match points: distances=%d durations=%d points=%d",
				r, len(mr.Distances[r]), len(mr.Durations[r]), len(points),
			)
		}

		out[r] = make([]ports.DistanceResult, len(points))
		for j := range points {
			meters, seconds := mr.Distances[r][j], mr.Durations[r][j]
			// ORS reports null for pairs it cannot route.
			if meters == nil || seconds == nil {
				out[r][j] = ports.DistanceResult{DistanceMiles: math.Inf(1), DurationMinutes: math.Inf(1)}
				continue
			}
			out[r][j] = ports.DistanceResult{
				DistanceMiles:   *meters / geo.MetersPerMile,
				DurationMinutes: *seconds / 60,
			}
		}
	}

	return out, nil
}
