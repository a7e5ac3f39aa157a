package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"socialql/internal/auth"
	"socialql/internal/models"
	"socialql/internal/repository"
	"socialql/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "graph-test-secret"

type testEnv struct {
	schema *graphql.Schema
	store  *repository.MemoryStore
}

func newTestEnv(t *testing.T, posts repository.PostRepository, showDetails bool) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	if posts == nil {
		posts = store.Posts()
	}
	codec := auth.NewTokenCodec(testSecret, nil)
	users := service.NewUserService(store.Users(), auth.NewHasher(4), codec, nil)
	r := NewResolver(users, service.NewPostService(posts, nil), auth.NewGuard(codec), showDetails)
	schema, err := NewSchema(r)
	require.NoError(t, err)
	return &testEnv{schema: schema, store: store}
}

func (e *testEnv) exec(t *testing.T, token, query string, vars map[string]interface{}) (map[string]interface{}, *graphql.Response) {
	t.Helper()
	ctx := context.Background()
	if token != "" {
		ctx = auth.WithAuthorization(ctx, "Bearer "+token)
	}
	resp := e.schema.Exec(ctx, query, "", vars)
	var data map[string]interface{}
	if len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, &data))
	}
	return data, resp
}

func (e *testEnv) register(t *testing.T, username, password string) string {
	t.Helper()
	data, resp := e.exec(t, "", `mutation($in: RegisterInput) {
		register(registerInput: $in) { id username email token createdAt }
	}`, map[string]interface{}{"in": map[string]interface{}{
		"username": username, "email": username + "@example.com",
		"password": password, "confirmPassword": password,
	}})
	require.Empty(t, resp.Errors)
	user := data["register"].(map[string]interface{})
	assert.Equal(t, username, user["username"])
	return user["token"].(string)
}

func errorCode(t *testing.T, resp *graphql.Response) string {
	t.Helper()
	require.NotEmpty(t, resp.Errors)
	code, _ := resp.Errors[0].Extensions["code"].(string)
	return code
}

const createPostMutation = `mutation($body: String!) {
	createPost(body: $body) { id body username likeCount commentCount comments { id } likes { username } }
}`

func TestNewSchema_BindsEveryField(t *testing.T) {
	schema, err := NewSchema(NewResolver(nil, nil, nil, false))
	require.NoError(t, err)

	resp := schema.Exec(context.Background(), `{ __schema { queryType { name } mutationType { name } } }`, "", nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"__schema":{"queryType":{"name":"Query"},"mutationType":{"name":"Mutation"}}}`, string(resp.Data))
}

func TestSchema_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil, false)
	env.register(t, "alice", "secret1")

	_, resp := env.exec(t, "", `mutation($in: RegisterInput) { register(registerInput: $in) { id } }`,
		map[string]interface{}{"in": map[string]interface{}{
			"username": "alice", "email": "x@y.z", "password": "other", "confirmPassword": "other",
		}})
	assert.Equal(t, models.CodeValidation, errorCode(t, resp))
	assert.Equal(t, map[string]string{"username": "This username is taken"}, resp.Errors[0].Extensions["errors"])

	_, resp = env.exec(t, "", `mutation { login(username: "alice", password: "wrongpw") { token } }`, nil)
	assert.Equal(t, models.CodeUnauthenticated, errorCode(t, resp))
	assert.Equal(t, "Wrong credentials", resp.Errors[0].Message)

	data, resp := env.exec(t, "", `mutation { login(username: "alice", password: "secret1") { token username } }`, nil)
	require.Empty(t, resp.Errors)
	login := data["login"].(map[string]interface{})
	assert.NotEmpty(t, login["token"])
}

func TestSchema_RegisterWithoutInputIsValidationError(t *testing.T) {
	env := newTestEnv(t, nil, false)
	_, resp := env.exec(t, "", `mutation { register { id } }`, nil)
	assert.Equal(t, models.CodeValidation, errorCode(t, resp))
}

func TestSchema_UserHasNoPasswordField(t *testing.T) {
	env := newTestEnv(t, nil, false)
	_, resp := env.exec(t, "", `mutation { login(username: "a", password: "b") { password } }`, nil)
	assert.NotEmpty(t, resp.Errors)
}

func TestSchema_AuthGuard(t *testing.T) {
	env := newTestEnv(t, nil, false)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", models.CodeMissingHeader},
		{"wrong scheme", "Basic abc", models.CodeMalformedHeader},
		{"bad token", "Bearer not.a.token", models.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.header != "" {
				ctx = auth.WithAuthorization(ctx, tt.header)
			}
			resp := env.schema.Exec(ctx, `mutation { createPost(body: "x") { id } }`, "", nil)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}
}

func TestSchema_PostLifecycle(t *testing.T) {
	env := newTestEnv(t, nil, false)
	aliceToken := env.register(t, "alice", "secret1")
	bobToken := env.register(t, "bob", "secret2")

	data, resp := env.exec(t, aliceToken, createPostMutation, map[string]interface{}{"body": "hello"})
	require.Empty(t, resp.Errors)
	post := data["createPost"].(map[string]interface{})
	assert.Equal(t, "hello", post["body"])
	assert.Equal(t, "alice", post["username"])
	assert.EqualValues(t, 0, post["likeCount"])
	assert.EqualValues(t, 0, post["commentCount"])
	assert.Empty(t, post["comments"])
	assert.Empty(t, post["likes"])
	postID := post["id"].(string)

	_, resp = env.exec(t, aliceToken, createPostMutation, map[string]interface{}{"body": ""})
	assert.Equal(t, models.CodeValidation, errorCode(t, resp))

	like := `mutation($id: ID!) { likePost(postId: $id) { likeCount likes { username createdAt } } }`
	data, resp = env.exec(t, bobToken, like, map[string]interface{}{"id": postID})
	require.Empty(t, resp.Errors)
	assert.EqualValues(t, 1, data["likePost"].(map[string]interface{})["likeCount"])
	data, resp = env.exec(t, bobToken, like, map[string]interface{}{"id": postID})
	require.Empty(t, resp.Errors)
	assert.EqualValues(t, 0, data["likePost"].(map[string]interface{})["likeCount"])

	data, resp = env.exec(t, bobToken, `mutation($id: ID!) {
		createComment(postId: $id, body: "nice") { commentCount comments { id username body } }
	}`, map[string]interface{}{"id": postID})
	require.Empty(t, resp.Errors)
	comments := data["createComment"].(map[string]interface{})["comments"].([]interface{})
	require.Len(t, comments, 1)
	commentID := comments[0].(map[string]interface{})["id"].(string)

	deleteComment := `mutation($p: ID!, $c: ID!) { deleteComment(postId: $p, commentId: $c) { commentCount } }`
	_, resp = env.exec(t, aliceToken, deleteComment, map[string]interface{}{"p": postID, "c": commentID})
	assert.Equal(t, models.CodeForbidden, errorCode(t, resp))
	assert.Equal(t, "Action not allowed", resp.Errors[0].Message)

	data, resp = env.exec(t, bobToken, deleteComment, map[string]interface{}{"p": postID, "c": commentID})
	require.Empty(t, resp.Errors)
	assert.EqualValues(t, 0, data["deleteComment"].(map[string]interface{})["commentCount"])

	deletePost := `mutation($id: ID!) { deletePost(postId: $id) { id body } }`
	_, resp = env.exec(t, bobToken, deletePost, map[string]interface{}{"id": postID})
	assert.Equal(t, models.CodeForbidden, errorCode(t, resp))

	data, resp = env.exec(t, aliceToken, deletePost, map[string]interface{}{"id": postID})
	require.Empty(t, resp.Errors)
	assert.Equal(t, "hello", data["deletePost"].(map[string]interface{})["body"])

	data, resp = env.exec(t, "", `query($id: ID!) { getPost(postId: $id) { id } }`, map[string]interface{}{"id": postID})
	assert.Equal(t, models.CodeNotFound, errorCode(t, resp))
	assert.Nil(t, data["getPost"])
}

func TestSchema_GetPostsNewestFirst(t *testing.T) {
	env := newTestEnv(t, nil, false)
	token := env.register(t, "alice", "secret1")

	for _, body := range []string{"one", "two"} {
		_, resp := env.exec(t, token, createPostMutation, map[string]interface{}{"body": body})
		require.Empty(t, resp.Errors)
	}

	data, resp := env.exec(t, "", `{ getPosts { body createdAt } }`, nil)
	require.Empty(t, resp.Errors)
	posts := data["getPosts"].([]interface{})
	require.Len(t, posts, 2)
	first := posts[0].(map[string]interface{})
	second := posts[1].(map[string]interface{})
	assert.GreaterOrEqual(t, first["createdAt"].(string), second["createdAt"].(string))
}

// brokenPostRepo fails every list with a store error.
type brokenPostRepo struct {
	repository.PostRepository
}

func (brokenPostRepo) List(context.Context) ([]*models.Post, error) {
	return nil, errors.New("dial tcp 10.0.0.5:27017: connection refused")
}

func TestSchema_InternalErrorsAreSanitized(t *testing.T) {
	env := newTestEnv(t, brokenPostRepo{}, false)
	_, resp := env.exec(t, "", `{ getPosts { id } }`, nil)
	assert.Equal(t, models.CodeInternal, errorCode(t, resp))
	assert.Equal(t, "Internal server error", resp.Errors[0].Message)
	assert.NotContains(t, resp.Errors[0].Extensions, "details")

	env = newTestEnv(t, brokenPostRepo{}, true)
	_, resp = env.exec(t, "", `{ getPosts { id } }`, nil)
	assert.Contains(t, resp.Errors[0].Extensions["details"], "connection refused")
}

func TestError_Extensions(t *testing.T) {
	err := toGraphQLError(context.Background(), "op",
		models.NewValidationError("Errors", map[string]string{"body": "required"}), true)
	ext := err.Extensions()
	assert.Equal(t, models.CodeValidation, ext["code"])
	assert.Equal(t, map[string]string{"body": "required"}, ext["errors"])
	assert.NotContains(t, ext, "details")
}
