package graph_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/pulsehub/internal/app/graph"
	"github.com/dalemusser/pulsehub/internal/app/system/pubsub"
	"github.com/dalemusser/pulsehub/internal/domain/models"
)

// waitForSubscriber blocks until the topic has a live subscriber. The
// resolver registers on the bus from inside the subscription machinery,
// so tests must not publish before registration lands.
func waitForSubscriber(t *testing.T, bus *pubsub.Bus, topic string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s, ok := bus.Stats()[topic]; ok && s.Subscribers > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no subscriber appeared on topic %s", topic)
}

func nextResponse(t *testing.T, c <-chan any) *graphql.Response {
	t.Helper()

	select {
	case msg, ok := <-c:
		if !ok {
			t.Fatal("subscription channel closed unexpectedly")
		}
		return msg.(*graphql.Response)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a subscription payload")
	}
	return nil
}

func TestPostAdded(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(env.ctx())
	defer cancel()

	c, err := env.schema.Subscribe(ctx, `subscription { postAdded { title } }`, "", nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	waitForSubscriber(t, env.bus, graph.TopicPostAdded)

	env.bus.Publish(graph.TopicPostAdded, models.Post{
		ID:        primitive.NewObjectID(),
		AuthorID:  primitive.NewObjectID(),
		Title:     "Live",
		Body:      "b",
		CreatedAt: time.Now(),
	})

	resp := nextResponse(t, c)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	var data struct {
		PostAdded struct {
			Title string `json:"title"`
		} `json:"postAdded"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if data.PostAdded.Title != "Live" {
		t.Errorf("title = %q, want Live", data.PostAdded.Title)
	}
}

func TestCommentAdded_FiltersByPost(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(env.ctx())
	defer cancel()

	watched := primitive.NewObjectID()
	other := primitive.NewObjectID()

	c, err := env.schema.Subscribe(ctx,
		`subscription ($id: ID!) { commentAdded(postId: $id) { body } }`,
		"", map[string]any{"id": watched.Hex()})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	waitForSubscriber(t, env.bus, graph.TopicCommentAdded)

	// A comment on another post must not reach this subscriber.
	env.bus.Publish(graph.TopicCommentAdded, models.Comment{
		ID: primitive.NewObjectID(), PostID: other, AuthorID: primitive.NewObjectID(),
		Body: "elsewhere", CreatedAt: time.Now(),
	})
	env.bus.Publish(graph.TopicCommentAdded, models.Comment{
		ID: primitive.NewObjectID(), PostID: watched, AuthorID: primitive.NewObjectID(),
		Body: "right here", CreatedAt: time.Now(),
	})

	resp := nextResponse(t, c)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	var data struct {
		CommentAdded struct {
			Body string `json:"body"`
		} `json:"commentAdded"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if data.CommentAdded.Body != "right here" {
		t.Errorf("body = %q, want the watched post's comment first", data.CommentAdded.Body)
	}
}

func TestCommentAdded_InvalidPostID(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(env.ctx())
	defer cancel()

	c, err := env.schema.Subscribe(ctx, `subscription { commentAdded(postId: "not-hex") { id } }`, "", nil)
	if err != nil {
		// Rejected at setup; also acceptable.
		return
	}

	select {
	case msg, ok := <-c:
		if !ok {
			t.Fatal("channel closed without an error response")
		}
		if resp := msg.(*graphql.Response); len(resp.Errors) == 0 {
			t.Fatalf("expected an error response, got %s", resp.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error response")
	}
}

func TestSubscription_CancelUnsubscribes(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(env.ctx())

	_, err := env.schema.Subscribe(ctx, `subscription { postAdded { title } }`, "", nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	waitForSubscriber(t, env.bus, graph.TopicPostAdded)

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := env.bus.Stats()[graph.TopicPostAdded]
		if s.Subscribers == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("subscriber was not removed after cancel")
}

func TestSubscription_WithoutBus(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := env.schema.Subscribe(ctx, `subscription { postAdded { title } }`, "", nil)
	if err != nil {
		// Rejected at setup; also acceptable.
		return
	}

	select {
	case msg, ok := <-c:
		if !ok {
			t.Fatal("channel closed without an error response")
		}
		if resp := msg.(*graphql.Response); len(resp.Errors) == 0 {
			t.Fatalf("expected an error response, got %s", resp.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error response")
	}
}
