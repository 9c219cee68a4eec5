// Copyright (C) 2025 RAP Project
//
// This file is part of rap-go.
//
// rap-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// rap-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with rap-go.  If not, see <https://www.gnu.org/licenses/>.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rap-project/rap-go/pkg/protocol"
	"github.com/rap-project/rap-go/pkg/signer"
	"github.com/rap-project/rap-go/pkg/transport"
)

// DeliveryError reports an inbox that refused a delivery
type DeliveryError struct {
	Inbox      string
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s rejected with status %d: %s", e.Inbox, e.StatusCode, e.Body)
}

// Client is an HTTP client that signs requests as one actor.
// A client without a key sends unsigned requests.
type Client struct {
	key        signer.KeyPair
	signer     signer.RequestSigner
	httpClient *http.Client
	fetcher    *transport.HTTPActorFetcher
}

// New creates a client signing with key. If httpClient is nil,
// http.DefaultClient is used.
func New(key signer.KeyPair, httpClient *http.Client, opts ...transport.FetcherOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		key:        key,
		signer:     signer.NewDefaultRequestSigner(),
		httpClient: httpClient,
	}
	if key != nil {
		opts = append(opts, transport.WithRequestHook(c.sign))
	}
	c.fetcher = transport.NewHTTPActorFetcher(httpClient, opts...)
	return c
}

// Do signs req and executes it
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Check context first
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if c.key != nil {
		if err := c.signer.SignRequest(ctx, req, c.key); err != nil {
			return nil, fmt.Errorf("failed to sign request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return resp, nil
}

// Post sends a signed POST with an activity+json body
func (c *Client) Post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", protocol.ActivityJSON)

	return c.Do(ctx, req)
}

// Get sends a signed GET asking for an ActivityStreams document
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	req.Header.Set("Accept", protocol.LDJSONActivityStreams)

	return c.Do(ctx, req)
}

// Deliver posts activity to inbox and fails on a non-2xx response
func (c *Client) Deliver(ctx context.Context, inbox string, activity []byte) error {
	resp, err := c.Post(ctx, inbox, activity)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DeliveryError{Inbox: inbox, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// FetchActor retrieves the actor document at uri, signing the GET when the
// client has a key
func (c *Client) FetchActor(ctx context.Context, uri string) (*protocol.Actor, error) {
	return c.fetcher.FetchActor(ctx, uri)
}

// KeyPair returns the signing key, or nil
func (c *Client) KeyPair() signer.KeyPair {
	return c.key
}

func (c *Client) sign(req *http.Request) error {
	return c.signer.SignRequest(req.Context(), req, c.key)
}
