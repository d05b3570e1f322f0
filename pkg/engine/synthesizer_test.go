package engine

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/specmock/pkg/generator"
	"github.com/getmockd/specmock/pkg/ordered"
	"github.com/getmockd/specmock/pkg/spec"
)

const synthSpec = `
openapi: 3.1.0
info: {title: synth, version: "1"}
paths:
  /example-wins:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {type: integer}
              example: {literal: true}
  /no-content:
    get:
      responses:
        "404":
          description: missing
  /no-schema:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json: {}
  /range:
    get:
      responses:
        2XX:
          description: ok
          content:
            '*/*':
              example: [1, 2]
  /lowest:
    post:
      responses:
        "202":
          description: accepted
          content:
            text/plain:
              example: later
        "201":
          description: created
          content:
            text/plain:
              example: now
  /seeded:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  name: {type: string}
                  tags:
                    type: array
                    items: {type: string}
`

func newSynth(t *testing.T, doc *spec.Document, opts generator.Options) *Synthesizer {
	t.Helper()
	gen, err := generator.New(doc, opts)
	require.NoError(t, err)
	return NewSynthesizer(gen)
}

func findOp(t *testing.T, doc *spec.Document, ref string) *spec.Operation {
	t.Helper()
	o := doc.FindOperation(ref)
	require.NotNil(t, o, ref)
	return o
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, synthSpec)
	s := newSynth(t, doc, generator.DefaultOptions())
	ctx := context.Background()

	t.Run("example beats schema", func(t *testing.T) {
		t.Parallel()
		out, err := s.Synthesize(ctx, findOp(t, doc, "GET /example-wins"), "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, out.Status)
		assert.JSONEq(t, `{"literal":true}`, string(out.Body))
	})

	t.Run("no success response", func(t *testing.T) {
		t.Parallel()
		out, err := s.Synthesize(ctx, findOp(t, doc, "GET /no-content"), "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, out.Status)
		assert.Empty(t, out.Body)
		assert.Empty(t, out.ContentType)
	})

	t.Run("no schema", func(t *testing.T) {
		t.Parallel()
		out, err := s.Synthesize(ctx, findOp(t, doc, "GET /no-schema"), "")
		require.NoError(t, err)
		assert.Empty(t, out.Body)
	})

	t.Run("range entry and wildcard content", func(t *testing.T) {
		t.Parallel()
		out, err := s.Synthesize(ctx, findOp(t, doc, "GET /range"), "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, out.Status)
		assert.Equal(t, "application/json", out.ContentType)
		assert.JSONEq(t, `[1,2]`, string(out.Body))
	})

	t.Run("lowest 2xx", func(t *testing.T) {
		t.Parallel()
		out, err := s.Synthesize(ctx, findOp(t, doc, "POST /lowest"), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, out.Status)
		assert.Equal(t, "now", string(out.Body))
	})
}

func TestSynthesize_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, synthSpec)
	opts := generator.DefaultOptions()
	opts.Seed = 7
	opts.AlwaysFakeOptionals = true

	first, err := newSynth(t, doc, opts).Synthesize(context.Background(), findOp(t, doc, "GET /seeded"), "")
	require.NoError(t, err)
	second, err := newSynth(t, doc, opts).Synthesize(context.Background(), findOp(t, doc, "GET /seeded"), "")
	require.NoError(t, err)

	if diff := cmp.Diff(string(first.Body), string(second.Body)); diff != "" {
		t.Errorf("seeded bodies differ (-first +second):\n%s", diff)
	}
}

func TestSynthesize_Cancelled(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, synthSpec)
	s := newSynth(t, doc, generator.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Synthesize(ctx, findOp(t, doc, "GET /seeded"), "")
	if err != nil {
		assert.True(t, errors.Is(err, context.Canceled))
	}
}

func TestSerialize(t *testing.T) {
	t.Parallel()

	obj := ordered.New[any](2)
	obj.Set("b", 1)
	obj.Set("a", "z")

	tests := []struct {
		name        string
		contentType string
		value       any
		want        string
	}{
		{"json keeps order", "application/json", obj, `{"b":1,"a":"z"}`},
		{"json without html escaping", "application/json", "<b>", `"<b>"`},
		{"json suffix", "application/problem+json; charset=utf-8", "x", `"x"`},
		{"yaml", "application/yaml", obj, "b: 1\na: z\n"},
		{"yaml suffix", "application/vnd.k8s+yaml", []any{1, 2}, "- 1\n- 2\n"},
		{"raw string", "text/plain", "hello", "hello"},
		{"scalar", "text/plain", 42, "42"},
		{"composite on text", "text/plain", []any{"a"}, `["a"]`},
		{"nil", "text/plain", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Serialize(tt.contentType, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestConcreteType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/json", concreteType("*/*"))
	assert.Equal(t, "application/json", concreteType("application/*"))
	assert.Equal(t, "text/plain", concreteType("text/*"))
	assert.Equal(t, "application/octet-stream", concreteType("image/*"))
	assert.Equal(t, "application/xml", concreteType("application/xml"))
}

func TestHeaderValue(t *testing.T) {
	t.Parallel()

	obj := ordered.New[any](1)
	obj.Set("k", 1)

	assert.Equal(t, "x", headerValue("x"))
	assert.Equal(t, "3", headerValue(int64(3)))
	assert.Equal(t, "a,b", headerValue([]any{"a", "b"}))
	assert.Equal(t, "k,1", headerValue(obj))
	assert.Equal(t, "true", headerValue(true))
}
