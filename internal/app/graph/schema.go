package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

// SchemaSDL is the public API surface. Queries and mutations arrive over
// POST /graphql; subscriptions arrive over a websocket upgrade on the
// same path.
const SchemaSDL = `
	schema {
		query: Query
		mutation: Mutation
		subscription: Subscription
	}

	scalar Time

	type User {
		id: ID!
		displayName: String!
		email: String!
		createdAt: Time!
		posts: [Post!]!
	}

	type Post {
		id: ID!
		title: String!
		body: String!
		author: User!
		comments: [Comment!]!
		createdAt: Time!
	}

	type Comment {
		id: ID!
		postId: ID!
		body: String!
		author: User!
		createdAt: Time!
	}

	type AuthPayload {
		token: String!
		user: User!
	}

	type Query {
		me: User
		user(id: ID!): User
		users(search: String): [User!]!
		post(id: ID!): Post
		posts(limit: Int, offset: Int): [Post!]!
	}

	type Mutation {
		register(displayName: String!, email: String!, password: String!): AuthPayload!
		login(email: String!, password: String!): AuthPayload!
		createPost(title: String!, body: String!): Post!
		deletePost(id: ID!): Boolean!
		addComment(postId: ID!, body: String!): Comment!
	}

	type Subscription {
		postAdded: Post!
		commentAdded(postId: ID!): Comment!
	}
`

// panicLogger routes recovered resolver panics into the application log.
type panicLogger struct {
	log *zap.Logger
}

func (p panicLogger) LogPanic(ctx context.Context, value any) {
	p.log.Error("panic in resolver",
		zap.Any("panic", value),
		zap.Stack("stack"),
	)
}

// NewSchema parses the SDL against the root resolver. Parse errors mean
// the SDL and the resolver methods disagree and are caught at startup.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(SchemaSDL, r,
		graphql.MaxParallelism(20),
		graphql.Logger(panicLogger{log: r.Log}),
	)
}
