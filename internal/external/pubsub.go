// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package external

import (
	"context"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/server/auth"
)

// DefaultSyncEventsTopic is the topic stock sync events are published to.
const DefaultSyncEventsTopic = "stock-sync-events-v1"

// NewAsSelfPubSubClient creates a PubSub client for cloud project that acts
// as the service account of the server.
func NewAsSelfPubSubClient(ctx context.Context, cloudProject string) (*pubsub.Client, error) {
	if cloudProject == "" {
		return nil, errors.Reason("NewAsSelfPubSubClient: must provide a cloud project").Err()
	}
	tokenSource, err := auth.GetTokenSource(ctx, auth.AsSelf, auth.WithScopes(auth.CloudOAuthScopes...))
	if err != nil {
		return nil, errors.Annotate(err, "NewAsSelfPubSubClient: failed to get AsSelf credentials").Err()
	}
	return NewPubSubClient(ctx, cloudProject, option.WithTokenSource(tokenSource))
}

// NewPubSubClient creates a PubSub client based on cloud project.
func NewPubSubClient(ctx context.Context, cloudProject string, opts ...option.ClientOption) (*pubsub.Client, error) {
	if cloudProject == "" {
		return nil, errors.Reason("NewPubSubClient: must provide a cloud project").Err()
	}
	client, err := pubsub.NewClient(ctx, cloudProject, opts...)
	if err != nil {
		logging.Errorf(ctx, "NewPubSubClient: cannot set up PubSub client: %s", err)
		return nil, err
	}
	return client, nil
}

// Publisher sends messages to a single PubSub topic.
type Publisher struct {
	Client *pubsub.Client
	Topic  string
}

// Publish sends one message and waits until the server acknowledges it.
func (p *Publisher) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	topic := p.Client.Topic(p.Topic)
	defer topic.Stop()

	ok, err := topic.Exists(ctx)
	if err != nil {
		return errors.Annotate(err, "Publish: check topic %s", p.Topic).Err()
	}
	if !ok {
		return errors.Reason("Publish: topic %s not found", p.Topic).Err()
	}

	rsp := topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := rsp.Get(ctx)
	if err != nil {
		return errors.Annotate(err, "Publish: failed to publish to %s", p.Topic).Err()
	}
	logging.Debugf(ctx, "Publish: published message %s to %s", id, p.Topic)
	return nil
}
