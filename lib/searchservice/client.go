// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package searchservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/cmdsearch/lib/codec"
	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/search"
	"github.com/bureau-foundation/cmdsearch/lib/searchindex"
)

const (
	dialTimeout = 5 * time.Second

	// responseReadTimeout applies when the caller's context has no
	// deadline of its own.
	responseReadTimeout = 30 * time.Second

	maxResponseSize = 4 * 1024 * 1024
)

// RemoteError is returned when the server answers ok=false.
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("search service error on %q: %s", e.Action, e.Message)
}

// Client calls a search service socket. Each call opens its own
// connection, matching the server's one-request-per-connection model.
type Client struct {
	socketPath string
}

var (
	_ search.Gateway       = (*Client)(nil)
	_ search.UserDirectory = (*Client)(nil)
)

// NewClient returns a client for the service listening on socketPath.
// No connection is made until the first call.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Search sends a search action. Each request carries a fresh request
// id so server logs can be correlated with client-side traces.
func (c *Client) Search(ctx context.Context, query string, filters facet.Set, limit int) (search.Response, error) {
	request := SearchRequest{
		Action:    ActionSearch,
		Query:     query,
		Filters:   filters.Selection(),
		Limit:     limit,
		RequestID: uuid.NewString(),
	}
	var response search.Response
	if err := c.Call(ctx, ActionSearch, request, &response); err != nil {
		return search.Response{}, err
	}
	return response, nil
}

// ListUsers sends a list-users action.
func (c *Client) ListUsers(ctx context.Context) ([]search.User, error) {
	var users []search.User
	if err := c.Call(ctx, ActionListUsers, actionRequest{Action: ActionListUsers}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Status sends a status action.
func (c *Client) Status(ctx context.Context) (searchindex.Status, error) {
	var status searchindex.Status
	if err := c.Call(ctx, ActionStatus, actionRequest{Action: ActionStatus}, &status); err != nil {
		return searchindex.Status{}, err
	}
	return status, nil
}

// Call sends request, which must encode an "action" field matching
// action, and decodes the response data into result when both are
// present. A server-side failure is a *RemoteError; transport and
// decoding failures are plain errors.
func (c *Client) Call(ctx context.Context, action string, request any, result any) error {
	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}
	if !response.OK {
		return &RemoteError{Action: action, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		deadline = time.Now().Add(responseReadTimeout)
	}
	conn.SetDeadline(deadline)

	// Cancellation without a deadline still has to unblock the read.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The socket deadline can fire a moment before the context's
		// own timer does.
		if hasDeadline && errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
