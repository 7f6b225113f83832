// Package backend is a typed client for the Diamond Host REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"diamondhost/admin-console/internal/apperr"
	"diamondhost/admin-console/internal/metrics"
	"diamondhost/admin-console/internal/model"
)

type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

func New(baseURL string, httpClient *http.Client, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		metrics: m,
	}
}

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	return getList[model.User](ctx, c, "/user", "/user", func(u *model.User, key string) { setIfEmpty(&u.ID, key) })
}

func (c *Client) Providers(ctx context.Context) ([]model.Provider, error) {
	return getList[model.Provider](ctx, c, "/providers", "/providers", func(p *model.Provider, key string) { setIfEmpty(&p.ID, key) })
}

func (c *Client) NewEstates(ctx context.Context) ([]model.Estate, error) {
	return getList[model.Estate](ctx, c, "/new-estate", "/new-estate", func(e *model.Estate, key string) { setIfEmpty(&e.ID, key) })
}

// Posts arrive as an object keyed by post ID; the key becomes Post.ID.
func (c *Client) Posts(ctx context.Context) ([]model.Post, error) {
	return getList[model.Post](ctx, c, "/posts", "/posts", func(p *model.Post, key string) { setIfEmpty(&p.ID, key) })
}

func (c *Client) Feedbacks(ctx context.Context) ([]model.Feedback, error) {
	return getList[model.Feedback](ctx, c, "/feedbacks", "/feedbacks", func(f *model.Feedback, key string) { setIfEmpty(&f.FeedbackID, key) })
}

func (c *Client) ProviderFeedback(ctx context.Context) ([]model.ProviderFeedback, error) {
	return getList[model.ProviderFeedback](ctx, c, "/provider-feedback-to-customer", "/provider-feedback-to-customer",
		func(f *model.ProviderFeedback, key string) { setIfEmpty(&f.FeedbackID, key) })
}

// AllUsers is the combined customer and provider registry behind the
// dashboard statistics.
func (c *Client) AllUsers(ctx context.Context) ([]model.DashboardUser, error) {
	return getList[model.DashboardUser](ctx, c, "/allusers", "/allusers", nil)
}

type UserBookings struct {
	User     model.User      `json:"user"`
	Bookings []model.Booking `json:"bookings"`
}

func (c *Client) UserWithBookings(ctx context.Context, userID string) (UserBookings, error) {
	var out UserBookings
	err := c.do(ctx, http.MethodGet, "/user-with-bookings/"+url.PathEscape(userID), "/user-with-bookings/{id}", nil, &out)
	if out.Bookings == nil {
		out.Bookings = []model.Booking{}
	}
	if out.User.ID == "" {
		out.User.ID = userID
	}
	return out, err
}

type EstateOwner struct {
	Estate   model.Estate   `json:"estate"`
	Provider model.Provider `json:"provider"`
}

func (c *Client) EstateWithOwner(ctx context.Context, estateID string) (EstateOwner, error) {
	var out EstateOwner
	err := c.do(ctx, http.MethodGet, "/estate-with-owner/"+url.PathEscape(estateID), "/estate-with-owner/{id}", nil, &out)
	if out.Estate.ID == "" {
		out.Estate.ID = estateID
	}
	return out, err
}

func (c *Client) EstateBookings(ctx context.Context, estateID string) ([]model.Booking, error) {
	return getList[model.Booking](ctx, c, "/estate-bookings-with-users/"+url.PathEscape(estateID), "/estate-bookings-with-users/{id}",
		func(b *model.Booking, key string) { setIfEmpty(&b.ID, key) })
}

// SetEstateAcceptance writes an estate's acceptance code under its category
// route segment.
func (c *Client) SetEstateAcceptance(ctx context.Context, category, estateID string, status model.EstateStatus) error {
	path := "/update-isaccepted/" + url.PathEscape(category) + "/" + url.PathEscape(estateID)
	body := map[string]string{"IsAccepted": string(status)}
	return c.do(ctx, http.MethodPut, path, "/update-isaccepted/{category}/{id}", body, nil)
}

// SendDecisionSMS asks the backend to text the estate owner. The backend
// supplies the message body.
func (c *Client) SendDecisionSMS(ctx context.Context, status model.EstateStatus, to, sender string) error {
	var path string
	switch status {
	case model.EstateAccepted:
		path = "/send-sms/accepted"
	case model.EstateRejected:
		path = "/send-sms/rejected"
	default:
		return apperr.Validation("invalid_status", "no notification for status "+string(status))
	}
	body := map[string]string{"to": to, "sender": sender}
	return c.do(ctx, http.MethodPost, path, path, body, nil)
}

func (c *Client) SetPostStatus(ctx context.Context, postID string, status model.PostStatus) error {
	code, err := strconv.Atoi(string(status))
	if err != nil {
		return apperr.Validation("invalid_status", "post status must be numeric")
	}
	body := map[string]int{"status": code}
	return c.do(ctx, http.MethodPatch, "/posts/"+url.PathEscape(postID)+"/status", "/posts/{id}/status", body, nil)
}

func (c *Client) SetUserTier(ctx context.Context, userID string, tier model.AccountTier) error {
	body := map[string]string{"TypeAccount": string(tier)}
	return c.do(ctx, http.MethodPut, "/update-user-type/"+url.PathEscape(userID), "/update-user-type/{id}", body, nil)
}

func (c *Client) AddFeedbackComment(ctx context.Context, feedbackID, text, author string) error {
	body := map[string]string{"commentText": text, "author": author}
	return c.do(ctx, http.MethodPost, "/feedbacks/"+url.PathEscape(feedbackID)+"/comments", "/feedbacks/{id}/comments", body, nil)
}

type backendMessage struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path, endpoint string, payload, out interface{}) (err error) {
	started := time.Now()
	defer func() { c.metrics.BackendRequest(endpoint, err, time.Since(started)) }()

	raw, err := c.roundTrip(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Fetch("backend_malformed", fmt.Errorf("%s %s: %w", method, path, err))
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Fetch("backend_unreachable", fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Fetch("backend_unreachable", fmt.Errorf("%s %s: %w", method, path, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg backendMessage
		_ = json.Unmarshal(raw, &msg)
		detail := msg.Message
		if detail == "" {
			detail = msg.Error
		}
		cause := fmt.Errorf("%s %s: status %d %s", method, path, resp.StatusCode, detail)
		if resp.StatusCode == http.StatusNotFound {
			return nil, &apperr.Error{Kind: apperr.KindNotFound, Code: "backend_not_found", Message: detail, Err: cause}
		}
		return nil, apperr.Fetch("backend_status", cause)
	}
	return raw, nil
}

func getList[T any](ctx context.Context, c *Client, path, endpoint string, setKey func(*T, string)) (items []T, err error) {
	started := time.Now()
	defer func() { c.metrics.BackendRequest(endpoint, err, time.Since(started)) }()

	raw, err := c.roundTrip(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	items, err = decodeList(raw, setKey)
	if err != nil {
		return nil, apperr.Fetch("backend_malformed", fmt.Errorf("GET %s: %w", path, err))
	}
	return items, nil
}

// decodeList accepts a JSON array or an object keyed by record ID. Keyed
// objects are returned in key order with setKey applied to each record.
func decodeList[T any](raw []byte, setKey func(*T, string)) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] == '[' {
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		if list == nil {
			list = []T{}
		}
		return list, nil
	}
	var keyed map[string]T
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		item := keyed[k]
		if setKey != nil {
			setKey(&item, k)
		}
		out = append(out, item)
	}
	return out, nil
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
