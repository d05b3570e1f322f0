package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/specmock/pkg/spec"
)

func ops(keys ...string) []*spec.Operation {
	out := make([]*spec.Operation, 0, len(keys)/2)
	for i := 0; i+1 < len(keys); i += 2 {
		out = append(out, &spec.Operation{Method: keys[i], Path: keys[i+1], ID: keys[i] + " " + keys[i+1]})
	}
	return out
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(ops(
		"GET", "/users/me",
		"GET", "/users/{id}",
		"DELETE", "/users/{id}",
		"GET", "/users/{userId}/posts/{postId}",
		"GET", "/files/{name}.json",
		"GET", "/",
	))
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		wantOp     string
		wantParams map[string]string
	}{
		{
			name:       "literal wins when declared first",
			method:     "GET",
			path:       "/users/me",
			wantOp:     "GET /users/me",
			wantParams: map[string]string{},
		},
		{
			name:       "named segment",
			method:     "GET",
			path:       "/users/42",
			wantOp:     "GET /users/{id}",
			wantParams: map[string]string{"id": "42"},
		},
		{
			name:       "method is case-insensitive",
			method:     "delete",
			path:       "/users/42",
			wantOp:     "DELETE /users/{id}",
			wantParams: map[string]string{"id": "42"},
		},
		{
			name:       "several parameters",
			method:     "GET",
			path:       "/users/7/posts/99",
			wantOp:     "GET /users/{userId}/posts/{postId}",
			wantParams: map[string]string{"userId": "7", "postId": "99"},
		},
		{
			name:       "trailing slash is ignored",
			method:     "GET",
			path:       "/users/42/",
			wantOp:     "GET /users/{id}",
			wantParams: map[string]string{"id": "42"},
		},
		{
			name:       "escaped slash stays in its segment",
			method:     "GET",
			path:       "/users/a%2Fb",
			wantOp:     "GET /users/{id}",
			wantParams: map[string]string{"id": "a/b"},
		},
		{
			name:       "prefix and suffix around a parameter",
			method:     "GET",
			path:       "/files/report.json",
			wantOp:     "GET /files/{name}.json",
			wantParams: map[string]string{"name": "report"},
		},
		{
			name:       "root",
			method:     "GET",
			path:       "/",
			wantOp:     "GET /",
			wantParams: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := r.Resolve(tt.method, tt.path, nil, nil)
			require.NotNil(t, m)
			assert.Equal(t, tt.wantOp, m.Operation.ID)
			assert.Equal(t, tt.wantParams, m.PathParams)
		})
	}
}

func TestResolver_NoMatch(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(ops("GET", "/users/{id}", "POST", "/users"))
	require.NoError(t, err)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/nope"},
		{"GET", "/users"},
		{"GET", "/users/"},
		{"GET", "/users/1/extra"},
		{"PUT", "/users/1"},
		{"GET", "/Users/1"},
	} {
		assert.Nil(t, r.Resolve(tc.method, tc.path, nil, nil), "%s %s", tc.method, tc.path)
	}
}

func TestResolver_FirstDeclaredWins(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(ops("GET", "/items/{id}", "GET", "/items/{slug}"))
	require.NoError(t, err)

	m := r.Resolve("GET", "/items/abc", nil, nil)
	require.NotNil(t, m)
	assert.Equal(t, "GET /items/{id}", m.Operation.ID)
	assert.Equal(t, map[string]string{"id": "abc"}, m.PathParams)

	amb := r.Ambiguities()
	require.Len(t, amb, 1)
	assert.Equal(t, "GET /items/{id} shadows GET /items/{slug} for some paths", amb[0].String())
}

func TestResolver_Ambiguities(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(ops(
		"GET", "/users/me",
		"GET", "/users/{id}",
		"GET", "/{kind}/me",
		"POST", "/users/{id}",
		"GET", "/files/{name}.json",
		"GET", "/files/{name}.xml",
	))
	require.NoError(t, err)

	var got []string
	for _, a := range r.Ambiguities() {
		got = append(got, a.First.Key()+" | "+a.Second.Key())
	}
	assert.Equal(t, []string{
		"GET /users/{id} | GET /{kind}/me",
	}, got)
}

func TestResolver_AllowedMethods(t *testing.T) {
	t.Parallel()

	r, err := NewResolver(ops("GET", "/users/{id}", "DELETE", "/users/{id}", "GET", "/other"))
	require.NoError(t, err)
	assert.Equal(t, []string{"GET", "DELETE"}, r.AllowedMethods("/users/3"))
	assert.Empty(t, r.AllowedMethods("/nothing"))
}

func TestCompileTemplate(t *testing.T) {
	t.Parallel()

	tpl, err := CompileTemplate("/a/{b}/c/{d}.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, tpl.Params())
	assert.Equal(t, "/a/{b}/c/{d}.txt", tpl.String())

	for _, bad := range []string{"/a/{b", "/a/b}", "/a/{}", "/a/{b}{c}"} {
		_, err := CompileTemplate(bad)
		assert.ErrorIs(t, err, ErrInvalidTemplate, bad)
	}

	_, err = NewResolver(ops("GET", "/broken/{"))
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}
