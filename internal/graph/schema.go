// Package graph exposes the services as a GraphQL schema.
package graph

import (
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
)

// Schema is the GraphQL SDL served at /graphql.
const Schema = `
schema {
	query: Query
	mutation: Mutation
}

type Post {
	id: ID!
	body: String!
	createdAt: String!
	username: String!
	comments: [Comment]!
	likes: [Like]!
	likeCount: Int!
	commentCount: Int!
}

type Comment {
	id: ID!
	createdAt: String!
	username: String!
	body: String!
}

type Like {
	createdAt: String!
	username: String!
}

type User {
	id: ID!
	email: String!
	token: String!
	username: String!
	createdAt: String!
}

input RegisterInput {
	username: String!
	password: String!
	confirmPassword: String!
	email: String!
}

type Query {
	getPosts: [Post]
	getPost(postId: ID!): Post
}

type Mutation {
	register(registerInput: RegisterInput): User!
	login(username: String!, password: String!): User!
	createPost(body: String!): Post!
	deletePost(postId: ID!): Post!
	createComment(postId: ID!, body: String!): Post!
	deleteComment(postId: ID!, commentId: ID!): Post!
	likePost(postId: ID!): Post!
}
`

// MaxQueryDepth bounds nested selections.
const MaxQueryDepth = 8

// NewSchema parses Schema against r. It fails when a resolver method is
// missing or does not match its field.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(Schema, r,
		graphql.MaxDepth(MaxQueryDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}
