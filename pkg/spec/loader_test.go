package spec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: "1.0"
servers:
  - url: http://localhost:8080/v1
security:
  - apiKey: []
paths:
  /pets:
    get:
      operationId: listPets
      security: []
      parameters:
        - $ref: '#/components/parameters/Limit'
      responses:
        "200":
          description: ok
          headers:
            X-Rate-Limit:
              schema:
                type: integer
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
    post:
      operationId: createPet
      requestBody:
        $ref: '#/components/requestBodies/NewPet'
      responses:
        "201":
          $ref: '#/components/responses/Created'
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: string
      - name: X-Trace
        in: header
        schema:
          type: string
    get:
      operationId: showPet
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
      responses:
        default:
          description: pet
          content:
            application/json:
              examples:
                first:
                  value: {id: 1, name: Rex}
                second:
                  value: {id: 2}
components:
  parameters:
    Limit:
      name: limit
      in: query
      schema:
        type: integer
        maximum: 100
  requestBodies:
    NewPet:
      required: true
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/Pet'
  responses:
    Created:
      description: created
  securitySchemes:
    apiKey:
      type: apiKey
      in: header
      name: X-API-Key
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        name:
          type: string
          example: Rex
        id:
          type: integer
          format: int64
        tag:
          type: string
          nullable: true
        owner:
          $ref: '#/components/schemas/Pet'
`

func TestLoad_Petstore(t *testing.T) {
	t.Parallel()

	doc, err := Load([]byte(petstore))
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "Petstore", doc.Title)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "http://localhost:8080/v1", doc.Servers[0].URL)

	require.Len(t, doc.Operations, 3)
	keys := make([]string, 0, len(doc.Operations))
	for _, op := range doc.Operations {
		keys = append(keys, op.Key())
	}
	assert.Equal(t, []string{"GET /pets", "POST /pets", "GET /pets/{petId}"}, keys)

	t.Run("parameter refs are resolved", func(t *testing.T) {
		list := doc.FindOperation("listPets")
		require.NotNil(t, list)
		require.Len(t, list.Parameters, 1)
		p := list.Parameters[0]
		assert.Equal(t, "limit", p.Name)
		assert.Equal(t, InQuery, p.In)
		assert.Equal(t, "form", p.Style)
		assert.True(t, p.Explode)
		require.NotNil(t, p.Schema.Maximum)
		assert.Equal(t, 100.0, *p.Schema.Maximum)
	})

	t.Run("explicit empty security disables the default", func(t *testing.T) {
		assert.NotNil(t, doc.FindOperation("listPets").Security)
		assert.Empty(t, doc.FindOperation("listPets").Security)
		create := doc.FindOperation("createPet")
		require.Len(t, create.Security, 1)
		assert.Contains(t, create.Security[0], "apiKey")
	})

	t.Run("operation parameters override path item ones", func(t *testing.T) {
		show := doc.FindOperation("GET /pets/{petId}")
		require.NotNil(t, show)
		require.Len(t, show.Parameters, 2)
		assert.Equal(t, "X-Trace", show.Parameters[0].Name)
		assert.Equal(t, "petId", show.Parameters[1].Name)
		assert.Equal(t, []string{"integer"}, show.Parameters[1].Schema.Types)
		assert.True(t, show.Parameters[1].Required)
		assert.Equal(t, "simple", show.Parameters[0].Style)
		assert.False(t, show.Parameters[0].Explode)
	})

	t.Run("request body and responses", func(t *testing.T) {
		create := doc.FindOperation("createPet")
		require.NotNil(t, create.RequestBody)
		assert.True(t, create.RequestBody.Required)
		mt, ok := create.RequestBody.Content.Get("application/json")
		require.True(t, ok)
		assert.Equal(t, "#/components/schemas/Pet", mt.Schema.Ref)

		status, resp := create.SuccessResponse()
		assert.Equal(t, 201, status)
		assert.Equal(t, "created", resp.Description)
	})

	t.Run("media type examples keep order", func(t *testing.T) {
		status, resp := doc.FindOperation("showPet").SuccessResponse()
		assert.Equal(t, 200, status)
		mt, _ := resp.Content.Get("application/json")
		assert.Equal(t, []string{"first", "second"}, mt.Examples.Keys())
	})

	t.Run("schemas", func(t *testing.T) {
		pet, ok := doc.Components.Schemas.Get("Pet")
		require.True(t, ok)
		assert.Equal(t, []string{"name", "id", "tag", "owner"}, pet.Properties.Keys())
		assert.True(t, pet.IsRequired("id"))
		assert.False(t, pet.IsRequired("tag"))

		name, _ := pet.Properties.Get("name")
		assert.True(t, name.HasExample)
		assert.Equal(t, "Rex", name.Example)
		assert.Equal(t, "#/components/schemas/Pet/properties/name", name.Pointer)

		tag, _ := pet.Properties.Get("tag")
		assert.True(t, tag.Nullable)

		owner, _ := pet.Properties.Get("owner")
		resolved, err := doc.ResolveSchema(owner)
		require.NoError(t, err)
		assert.Same(t, pet, resolved)

		raw, ok := pet.Raw.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "object", raw["type"])
	})
}

func TestLoad_SchemaExamplesKeyword(t *testing.T) {
	t.Parallel()

	doc, err := Load([]byte(`
openapi: 3.1.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Mapped:
      type: string
      examples:
        b: {value: second-declared-first}
        a: {value: other}
    Listed:
      type: string
      examples: [x, y]
    Nulled:
      type: [string, "null"]
      example: null
    Bounded:
      type: number
      exclusiveMinimum: 5
      maximum: 10
`))
	require.NoError(t, err)

	mapped, _ := doc.Components.Schemas.Get("Mapped")
	assert.True(t, mapped.HasExamples)
	require.NotNil(t, mapped.ExamplesMap)
	assert.Equal(t, []string{"b", "a"}, mapped.ExamplesMap.Keys())

	listed, _ := doc.Components.Schemas.Get("Listed")
	assert.True(t, listed.HasExamples)
	assert.Nil(t, listed.ExamplesMap)
	assert.Equal(t, []any{"x", "y"}, listed.ExamplesRaw)

	nulled, _ := doc.Components.Schemas.Get("Nulled")
	assert.True(t, nulled.HasExample)
	assert.Nil(t, nulled.Example)
	assert.Equal(t, "string", nulled.Type())

	bounded, _ := doc.Components.Schemas.Get("Bounded")
	assert.True(t, bounded.ExclusiveMinimum)
	require.NotNil(t, bounded.Minimum)
	assert.Equal(t, 5.0, *bounded.Minimum)
	assert.True(t, doc.IsVersion31())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "empty",
			doc:     "",
			wantErr: ErrEmptyDocument,
		},
		{
			name:    "swagger 2",
			doc:     "swagger: '2.0'\ninfo: {title: t, version: '1'}\npaths: {}\n",
			wantErr: ErrNotOpenAPI3,
		},
		{
			name:    "missing parameter ref",
			doc:     "openapi: 3.0.0\ninfo: {title: t, version: '1'}\npaths:\n  /a:\n    get:\n      parameters:\n        - $ref: '#/components/parameters/Nope'\n      responses: {}\n",
			wantErr: ErrUnresolvedRef,
		},
		{
			name:    "unknown security scheme",
			doc:     "openapi: 3.0.0\ninfo: {title: t, version: '1'}\nsecurity:\n  - ghost: []\npaths: {}\n",
			wantErr: ErrUnresolvedRef,
		},
		{
			name:    "response ref cycle",
			doc:     "openapi: 3.0.0\ninfo: {title: t, version: '1'}\npaths:\n  /a:\n    get:\n      responses:\n        '200': {$ref: '#/components/responses/A'}\ncomponents:\n  responses:\n    A: {$ref: '#/components/responses/B'}\n    B: {$ref: '#/components/responses/A'}\n",
			wantErr: ErrUnresolvedRef,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_LoadErrorCarriesPointer(t *testing.T) {
	t.Parallel()

	_, err := Load([]byte(`
openapi: 3.0.0
info: {title: t, version: "1"}
paths:
  /a:
    get:
      parameters:
        - name: q
          in: body
      responses: {}
`))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "#/paths/~1a/get/parameters/0/in", le.Pointer)
	assert.Positive(t, le.Line)
}

func TestLoad_IncludeExclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []LoadOption
		want []string
	}{
		{name: "no filter", want: []string{"GET /pets", "POST /pets", "GET /pets/{petId}"}},
		{name: "include", opts: []LoadOption{WithInclude("/pets/*")}, want: []string{"GET /pets/{petId}"}},
		{name: "exclude", opts: []LoadOption{WithExclude("/pets/*")}, want: []string{"GET /pets", "POST /pets"}},
		{name: "both", opts: []LoadOption{WithInclude("/pets", "/pets/*"), WithExclude("/pets/*")}, want: []string{"GET /pets", "POST /pets"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := Load([]byte(petstore), tt.opts...)
			require.NoError(t, err)
			var got []string
			for _, op := range doc.Operations {
				got = append(got, op.Key())
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Load([]byte(petstore), WithInclude("/pets/[unclosed"))
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"openapi":"3.0.0","info":{"title":"j","version":"1"},"paths":{"/ping":{"get":{"responses":{"200":{"description":"ok"}}}}}}`), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, doc.Operations, 1)
	assert.Equal(t, "GET /ping", doc.Operations[0].Key())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestSuccessResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		responses  string
		wantStatus int
		wantDesc   string
	}{
		{name: "lowest 2xx", responses: `{"404": {description: nf}, "204": {description: b}, "201": {description: a}}`, wantStatus: 201, wantDesc: "a"},
		{name: "range", responses: `{"400": {description: bad}, "2XX": {description: r}}`, wantStatus: 200, wantDesc: "r"},
		{name: "default", responses: `{"500": {description: e}, default: {description: d}}`, wantStatus: 200, wantDesc: "d"},
		{name: "none", responses: `{"500": {description: e}}`, wantStatus: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := Load([]byte("openapi: 3.0.0\ninfo: {title: t, version: '1'}\npaths:\n  /x:\n    get:\n      responses: " + tt.responses + "\n"))
			require.NoError(t, err)
			status, resp := doc.Operations[0].SuccessResponse()
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantDesc == "" {
				assert.Nil(t, resp)
				return
			}
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantDesc, resp.Description)
		})
	}
}

func TestResolveSchema_SelfLoop(t *testing.T) {
	t.Parallel()

	doc, err := Load([]byte(`
openapi: 3.0.0
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    A: {$ref: '#/components/schemas/B'}
    B: {$ref: '#/components/schemas/A'}
`))
	require.NoError(t, err)
	a, _ := doc.Components.Schemas.Get("A")
	_, err = doc.ResolveSchema(a)
	assert.ErrorIs(t, err, ErrUnresolvedRef)

	_, err = doc.ResolveSchema(&Schema{Ref: "other.yaml#/Pet"})
	assert.ErrorIs(t, err, ErrUnresolvedRef)
}

func TestLint(t *testing.T) {
	t.Parallel()

	require.NoError(t, Lint(context.Background(), []byte(petstore)))

	err := Lint(context.Background(), []byte("openapi: 3.0.0\npaths: {}\n"))
	var le *LintError
	assert.True(t, errors.As(err, &le))
}
