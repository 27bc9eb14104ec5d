package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/levigross/grequests"
	"go.uber.org/zap"

	"github.com/pushci/receiver/auth"
	"github.com/pushci/receiver/event"
)

type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailure State = "failure"
	StateError   State = "error"
)

type ServiceError struct {
	HTTPStatus int
	Body       []byte
}

func (e ServiceError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.HTTPStatus, e.Body)
}

// Error is the JSON error document returned by the GitHub REST API.
type Error struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	HTTPStatus       int
}

func (e Error) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.HTTPStatus)
}

// Permanent reports whether err is a client error that repeating the same
// request cannot fix, such as a rejected token or an unknown repository.
func Permanent(err error) bool {
	var status int
	var apiErr Error
	var svcErr ServiceError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
	case errors.As(err, &svcErr):
		status = svcErr.HTTPStatus
	default:
		return false
	}
	return status >= 400 && status < 500 &&
		status != http.StatusRequestTimeout && status != http.StatusTooManyRequests
}

// Status is a single commit status update.
type Status struct {
	State       State
	Description string
	TargetURL   string
}

type Client interface {
	Ping() error
	SetStatus(push *event.Push, status Status) error
}

type Opts struct {
	BaseURL string
	Token   auth.TokenSource
	// Context is the label distinguishing this CI among others reporting on
	// the same commit.
	Context string
	Timeout time.Duration
}

func New(opts Opts) (Client, error) {
	host, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Token == nil {
		return nil, fmt.Errorf("api client requires a token source")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	client := &api{
		baseHost: strings.TrimSuffix(opts.BaseURL, "/"),
		log:      zap.L().With(zap.String("facility", "api-client")),
		token:    opts.Token,
		context:  opts.Context,
		timeout:  opts.Timeout,
	}
	client.log.Info("Initialized status API client",
		zap.String("host", host.Host),
		zap.String("context", opts.Context))

	return client, nil
}

type api struct {
	baseHost string
	log      *zap.Logger
	token    auth.TokenSource
	context  string
	timeout  time.Duration
}

func (a api) do(method, endpoint string, opts *grequests.RequestOptions) ([]byte, error) {
	if opts == nil {
		opts = &grequests.RequestOptions{}
	}
	if opts.Headers == nil {
		opts.Headers = map[string]string{}
	}

	opts.Headers["Authorization"] = "Bearer " + a.token.Token()
	opts.Headers["Accept"] = "application/vnd.github+json"
	opts.RequestTimeout = a.timeout

	resp, err := grequests.DoRegularRequest(method, a.baseHost+endpoint, opts)
	if err != nil {
		return nil, err
	}

	if !resp.Ok {
		responseData := resp.Bytes()
		if len(responseData) > 0 && responseData[0] == '{' {
			var managedError Error
			err = json.Unmarshal(responseData, &managedError)
			if err == nil && managedError.Message != "" {
				managedError.HTTPStatus = resp.StatusCode
				return nil, managedError
			}
		}
		return nil, ServiceError{Body: responseData, HTTPStatus: resp.StatusCode}
	}

	return resp.Bytes(), nil
}

// Ping checks connectivity and token validity.
func (a api) Ping() error {
	_, err := a.do("GET", "/rate_limit", nil)
	return err
}

func (a api) SetStatus(push *event.Push, status Status) error {
	_, err := a.do("POST", fmt.Sprintf("/repos/%s/statuses/%s", push.Repository.FullName, push.After), &grequests.RequestOptions{
		JSON: map[string]any{
			"state":       string(status.State),
			"target_url":  status.TargetURL,
			"description": status.Description,
			"context":     a.context,
		},
	})

	return err
}
