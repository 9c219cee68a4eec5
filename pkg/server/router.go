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
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	rap "github.com/rap-project/rap-go"
	"github.com/rap-project/rap-go/pkg/keystore"
	"github.com/rap-project/rap-go/pkg/protocol"
	"github.com/rap-project/rap-go/pkg/verifier"
)

// DefaultMaxInboxBody caps the body read from an inbox delivery
const DefaultMaxInboxBody = 1 << 20

// ErrInvalidActivity is wrapped by sinks rejecting a body the peer got wrong;
// the inbox answers 400 instead of 500
var ErrInvalidActivity = errors.New("invalid activity")

// ActivitySink receives authenticated inbox deliveries
type ActivitySink interface {
	Accept(ctx context.Context, actorID string, auth *verifier.Authenticated, body []byte) error
}

// DiscardSink drops every activity
type DiscardSink struct{}

func (DiscardSink) Accept(context.Context, string, *verifier.Authenticated, []byte) error {
	return nil
}

// Deps are the collaborators of the router
type Deps struct {
	// Store serves local actors; required
	Store *keystore.Store

	// Verifier guards the inboxes; required
	Verifier verifier.HTTPVerifier

	// Sink defaults to DiscardSink
	Sink ActivitySink

	Logger *zap.Logger

	// Metrics is mounted at /metrics when set
	Metrics http.Handler

	// Middleware runs after the request id and logger middleware
	Middleware []gin.HandlerFunc

	// MaxInboxBody defaults to DefaultMaxInboxBody
	MaxInboxBody int64
}

type routes struct {
	store   *keystore.Store
	sink    ActivitySink
	logger  *zap.Logger
	maxBody int64
}

// NewRouter builds the HTTP surface of a rap server
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Store == nil {
		return nil, errors.New("server: key store is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("server: verifier is required")
	}

	rt := &routes{
		store:   deps.Store,
		sink:    deps.Sink,
		logger:  deps.Logger,
		maxBody: deps.MaxInboxBody,
	}
	if rt.sink == nil {
		rt.sink = DiscardSink{}
	}
	if rt.logger == nil {
		rt.logger = zap.NewNop()
	}
	if rt.maxBody <= 0 {
		rt.maxBody = DefaultMaxInboxBody
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(rt.logger))
	r.Use(deps.Middleware...)

	auth := NewSignatureAuthMiddleware(deps.Verifier)

	r.GET("/", rt.index)
	r.GET("/.well-known/webfinger", rt.webfinger)
	r.GET("/.well-known/host-meta", rt.hostMeta)
	r.GET("/users/:id", rt.actor)
	r.POST("/users/:id/inbox", auth.Gin("id"), rt.inbox)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	return r, nil
}

func (rt *routes) index(c *gin.Context) {
	c.String(http.StatusOK, "rap-go %s", rap.Version)
}

func (rt *routes) actor(c *gin.Context) {
	id := c.Param("id")
	identity, err := rt.store.GetOrCreate(keystore.ActorID(id))
	if err != nil {
		rt.logger.Error("failed to load actor", zap.String("actor", id), zap.Error(err))
		c.String(http.StatusInternalServerError, "%s: failed to load actor", http.StatusText(http.StatusInternalServerError))
		return
	}

	doc := protocol.NewActorBuilder(rt.store.Domain(), id).
		WithPublicKey(identity.PublicKey()).
		Build()
	writeJSON(c, protocol.ActivityJSON, doc)
}

func (rt *routes) webfinger(c *gin.Context) {
	resource := c.Query("resource")
	if resource == "" {
		c.String(http.StatusBadRequest, "%s: resource is required", http.StatusText(http.StatusBadRequest))
		return
	}

	user, domain, err := protocol.ParseAcct(resource)
	if err != nil {
		c.String(http.StatusBadRequest, "%s: %s", http.StatusText(http.StatusBadRequest), err)
		return
	}
	if !strings.EqualFold(domain, rt.store.Domain()) {
		c.String(http.StatusNotFound, "%s: unknown domain %s", http.StatusText(http.StatusNotFound), domain)
		return
	}

	writeJSON(c, protocol.JRDJSON, protocol.NewWebfinger(rt.store.Domain(), user))
}

func (rt *routes) hostMeta(c *gin.Context) {
	const xrd = `<?xml version="1.0" encoding="UTF-8"?>
<XRD xmlns="http://docs.oasis-open.org/ns/xri/xrd-1.0">
  <Link rel="lrdd" template="https://%s/.well-known/webfinger?resource={uri}"/>
</XRD>
`
	c.Data(http.StatusOK, "application/xrd+xml; charset=utf-8", []byte(fmt.Sprintf(xrd, rt.store.Domain())))
}

func (rt *routes) inbox(c *gin.Context) {
	id := c.Param("id")
	auth, _ := GetAuthenticated(c)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, rt.maxBody+1))
	if err != nil {
		c.String(http.StatusBadRequest, "%s: failed to read body", http.StatusText(http.StatusBadRequest))
		return
	}
	if int64(len(body)) > rt.maxBody {
		c.String(http.StatusRequestEntityTooLarge, "%s: body exceeds %d bytes",
			http.StatusText(http.StatusRequestEntityTooLarge), rt.maxBody)
		return
	}

	if err := rt.sink.Accept(c.Request.Context(), id, auth, body); err != nil {
		if errors.Is(err, ErrInvalidActivity) {
			rt.logger.Warn("rejected activity", zap.String("actor", id), zap.Error(err))
			c.String(http.StatusBadRequest, "%s: %s", http.StatusText(http.StatusBadRequest), err.Error())
			return
		}
		rt.logger.Error("failed to accept activity", zap.String("actor", id), zap.Error(err))
		c.String(http.StatusInternalServerError, "%s: failed to accept activity", http.StatusText(http.StatusInternalServerError))
		return
	}
	c.Status(http.StatusAccepted)
}

func writeJSON(c *gin.Context, contentType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.String(http.StatusInternalServerError, "%s: failed to encode response", http.StatusText(http.StatusInternalServerError))
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// LoggingSink logs the type and id of each accepted activity
type LoggingSink struct {
	Logger *zap.Logger
}

func (s LoggingSink) Accept(ctx context.Context, actorID string, auth *verifier.Authenticated, body []byte) error {
	var activity struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &activity); err != nil {
		return fmt.Errorf("%w: not a JSON object", ErrInvalidActivity)
	}

	fields := []zap.Field{
		zap.String("actor", actorID),
		zap.String("type", activity.Type),
		zap.String("id", activity.ID),
	}
	if auth != nil {
		fields = append(fields, zap.String("key_id", auth.KeyID()))
	}
	if s.Logger != nil {
		s.Logger.Info("accepted activity", fields...)
	}
	return nil
}
