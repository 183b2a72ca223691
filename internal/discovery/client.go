// Package discovery talks to the read-only discovery layer: ranked trending
// lists, listen-count milestones and entity display metadata.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wavelane/wavelane/backend/internal/notify"
)

const defaultTimeout = 10 * time.Second

// Client queries a single discovery node. It implements
// notify.TrendingSource and notify.MetadataSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for one discovery node base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TrendingSources builds one trending source per node URL so the consensus
// engine can poll them independently.
func TrendingSources(baseURLs []string, timeout time.Duration) []notify.TrendingSource {
	sources := make([]notify.TrendingSource, 0, len(baseURLs))
	for _, u := range baseURLs {
		sources = append(sources, NewClient(u, timeout))
	}
	return sources
}

type trendingResponse struct {
	Data []struct {
		ID   uint `json:"id"`
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
	} `json:"data"`
	LatestIndexedBlock int64 `json:"latest_indexed_block"`
}

// TrendingList fetches this node's weekly top-N ranking. Rank is positional,
// starting at 1.
func (c *Client) TrendingList(ctx context.Context) ([]notify.TrendingEntry, int64, error) {
	params := url.Values{}
	params.Set("time", notify.TrendingTimeWeek)
	params.Set("limit", strconv.Itoa(notify.TrendingMaxRank))

	var resp trendingResponse
	if err := c.getJSON(ctx, "/v1/full/digital_contents/trending", params, &resp); err != nil {
		return nil, 0, fmt.Errorf("fetch trending from %s: %w", c.baseURL, err)
	}

	entries := make([]notify.TrendingEntry, 0, len(resp.Data))
	for idx, item := range resp.Data {
		entries = append(entries, notify.TrendingEntry{
			EntityID: item.ID,
			Rank:     uint(idx + 1),
			OwnerID:  item.User.ID,
		})
	}
	return entries, resp.LatestIndexedBlock, nil
}

type listenMilestonesResponse struct {
	Data []struct {
		DigitalContentID uint   `json:"digital_content_id"`
		OwnerID          uint   `json:"owner_id"`
		ListenCount      uint64 `json:"listen_count"`
	} `json:"data"`
	LatestIndexedBlock int64 `json:"latest_indexed_block"`
}

// ListenCounts returns total listen counts for the most recently listened-to
// content, as counter snapshots for the milestone detector.
func (c *Client) ListenCounts(ctx context.Context) ([]notify.CounterSnapshot, int64, error) {
	var resp listenMilestonesResponse
	if err := c.getJSON(ctx, "/v1/digital_contents/listen_milestones", nil, &resp); err != nil {
		return nil, 0, fmt.Errorf("fetch listen counts from %s: %w", c.baseURL, err)
	}

	snaps := make([]notify.CounterSnapshot, 0, len(resp.Data))
	for _, item := range resp.Data {
		snaps = append(snaps, notify.CounterSnapshot{
			Kind:       notify.CounterListens,
			OwnerID:    item.OwnerID,
			EntityID:   item.DigitalContentID,
			EntityType: notify.ActionDigitalContent,
			Count:      item.ListenCount,
		})
	}
	return snaps, resp.LatestIndexedBlock, nil
}

type usersResponse struct {
	Data []struct {
		ID     uint   `json:"id"`
		Handle string `json:"handle"`
	} `json:"data"`
}

// UserHandles resolves display handles for a batch of user ids.
func (c *Client) UserHandles(ctx context.Context, userIDs []uint) (map[uint]string, error) {
	if len(userIDs) == 0 {
		return map[uint]string{}, nil
	}
	params := url.Values{}
	for _, id := range userIDs {
		params.Add("id", strconv.FormatUint(uint64(id), 10))
	}

	var resp usersResponse
	if err := c.getJSON(ctx, "/v1/users", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch users from %s: %w", c.baseURL, err)
	}

	handles := make(map[uint]string, len(resp.Data))
	for _, u := range resp.Data {
		handles[u.ID] = u.Handle
	}
	return handles, nil
}

type contentResponse struct {
	Data []struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	} `json:"data"`
}

// ContentTitles resolves display titles for a batch of content ids.
func (c *Client) ContentTitles(ctx context.Context, entityIDs []uint) (map[uint]string, error) {
	if len(entityIDs) == 0 {
		return map[uint]string{}, nil
	}
	params := url.Values{}
	for _, id := range entityIDs {
		params.Add("id", strconv.FormatUint(uint64(id), 10))
	}

	var resp contentResponse
	if err := c.getJSON(ctx, "/v1/digital_contents", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch content from %s: %w", c.baseURL, err)
	}

	titles := make(map[uint]string, len(resp.Data))
	for _, item := range resp.Data {
		titles[item.ID] = item.Title
	}
	return titles, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
