package adplatform

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adOptimizer/business/optimizer"
	"adOptimizer/domain"
)

// MaxBatchSize is the number of calls the Graph API accepts per batch request.
const MaxBatchSize = 50

var ErrGraphAPI = errors.New("graph api error")

type FacebookConfig struct {
	GraphURL   string
	APIVersion string
	BatchSize  int
	Timeout    time.Duration
}

type FacebookRepository struct {
	cfg    FacebookConfig
	client *http.Client
}

var _ optimizer.AdPlatform = (*FacebookRepository)(nil)

func NewFacebookRepository(cfg FacebookConfig) *FacebookRepository {
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.GraphURL = strings.TrimRight(cfg.GraphURL, "/")

	return &FacebookRepository{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type batchCall struct {
	Method      string `json:"method"`
	RelativeURL string `json:"relative_url"`
	Body        string `json:"body,omitempty"`
}

type batchResponse struct {
	Code int    `json:"code"`
	Body string `json:"body"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// UpdateStatuses reads the current status of every ad and updates those
// that differ, batch by batch. Only changed ads are returned.
func (r *FacebookRepository) UpdateStatuses(ctx context.Context, creds domain.PlatformCredentials, updates []domain.StatusUpdate) ([]domain.StatusChange, error) {
	changes := []domain.StatusChange{}

	for start := 0; start < len(updates); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(updates))
		chunk := updates[start:end]

		current, err := r.currentStatuses(ctx, creds, chunk)
		if err != nil {
			return changes, err
		}

		var calls []batchCall
		var pending []domain.StatusChange
		for i, u := range chunk {
			if current[i] == u.Status {
				continue
			}
			calls = append(calls, batchCall{
				Method:      http.MethodPost,
				RelativeURL: url.PathEscape(u.AdID),
				Body:        url.Values{"status": {u.Status}}.Encode(),
			})
			pending = append(pending, domain.StatusChange{AdID: u.AdID, OldStatus: current[i], NewStatus: u.Status})
		}
		if len(calls) == 0 {
			continue
		}

		if _, err := r.batch(ctx, creds, calls); err != nil {
			return changes, err
		}
		changes = append(changes, pending...)
	}

	return changes, nil
}

func (r *FacebookRepository) currentStatuses(ctx context.Context, creds domain.PlatformCredentials, chunk []domain.StatusUpdate) ([]string, error) {
	calls := make([]batchCall, len(chunk))
	for i, u := range chunk {
		calls[i] = batchCall{
			Method:      http.MethodGet,
			RelativeURL: url.PathEscape(u.AdID) + "?fields=status",
		}
	}

	bodies, err := r.batch(ctx, creds, calls)
	if err != nil {
		return nil, err
	}

	statuses := make([]string, len(chunk))
	for i, body := range bodies {
		var ad struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal([]byte(body), &ad); err != nil {
			return nil, fmt.Errorf("%w: ad %s: malformed status: %v", ErrGraphAPI, chunk[i].AdID, err)
		}
		statuses[i] = ad.Status
	}
	return statuses, nil
}

// batch sends one batch request and returns the body of every call. Any
// failed call fails the batch.
func (r *FacebookRepository) batch(ctx context.Context, creds domain.PlatformCredentials, calls []batchCall) ([]string, error) {
	encoded, err := json.Marshal(calls)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	form := url.Values{}
	form.Set("access_token", creds.AccessToken)
	if creds.AppSecret != "" {
		form.Set("appsecret_proof", appSecretProof(creds.AppSecret, creds.AccessToken))
	}
	form.Set("batch", string(encoded))

	endpoint := r.cfg.GraphURL + "/"
	if r.cfg.APIVersion != "" {
		endpoint += r.cfg.APIVersion + "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph api request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrGraphAPI, res.StatusCode, errorMessage(body))
	}

	var responses []*batchResponse
	if err := json.Unmarshal(body, &responses); err != nil {
		return nil, fmt.Errorf("%w: malformed batch response: %v", ErrGraphAPI, err)
	}
	if len(responses) != len(calls) {
		return nil, fmt.Errorf("%w: %d responses for %d calls", ErrGraphAPI, len(responses), len(calls))
	}

	bodies := make([]string, len(responses))
	for i, resp := range responses {
		if resp == nil {
			return nil, fmt.Errorf("%w: call %s %s timed out", ErrGraphAPI, calls[i].Method, calls[i].RelativeURL)
		}
		if resp.Code != http.StatusOK {
			return nil, fmt.Errorf("%w: call %s %s: %s", ErrGraphAPI, calls[i].Method, calls[i].RelativeURL, errorMessage([]byte(resp.Body)))
		}
		bodies[i] = resp.Body
	}
	return bodies, nil
}

// appSecretProof signs the access token with the app secret.
func appSecretProof(appSecret, accessToken string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}

func errorMessage(body []byte) string {
	var ge graphError
	if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Message != "" {
		return ge.Error.Message
	}
	return strings.TrimSpace(string(body))
}
