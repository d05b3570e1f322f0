package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: "1.0"
paths:
  /ping:
    get:
      operationId: ping
      responses:
        "200":
          description: pong
          content:
            application/json:
              example: pong
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: pets
          headers:
            X-Total:
              schema: {type: integer, minimum: 1, maximum: 9}
          content:
            application/json:
              schema:
                type: array
                minItems: 2
                maxItems: 2
                items:
                  $ref: '#/components/schemas/Pet'
  /pets/{id}:
    get:
      operationId: getPet
      parameters:
        - name: id
          in: path
          required: true
          schema: {type: integer}
      responses:
        "200":
          description: pet
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
            text/plain:
              example: a pet
  /pets/{name}:
    get:
      operationId: getPetByName
      parameters:
        - name: name
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: pet
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id: {type: integer, minimum: 1, maximum: 100}
        name: {type: string, enum: [rex]}
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "specmock "))

	out, _, err = execute(t, context.Background(), "version", "--json")
	require.NoError(t, err)
	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.NotEmpty(t, v.Go)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	path := writeSpec(t, petstore)

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		out, stderr, err := execute(t, context.Background(), "validate", path)
		require.NoError(t, err)
		assert.Contains(t, out, "is valid: Petstore 1.0 (OpenAPI 3.0.3), 4 operations")
		assert.Contains(t, out, "listPets")
		assert.Contains(t, stderr, "GET /pets/{id} shadows GET /pets/{name}")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		out, _, err := execute(t, context.Background(), "validate", path, "--json", "--exclude", "/pets/*")
		require.NoError(t, err)

		var res ValidateOutput
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, "Petstore", res.Title)
		require.Len(t, res.Operations, 2)
		assert.Equal(t, OperationOutput{Method: "GET", Path: "/ping", OperationID: "ping"}, res.Operations[0])
		assert.Empty(t, res.Ambiguities)
	})

	t.Run("lint failure", func(t *testing.T) {
		t.Parallel()
		bad := writeSpec(t, `
openapi: 3.0.3
info: {title: bad, version: "1"}
paths:
  /x:
    get:
      responses:
        "200": {}
`)
		_, _, err := execute(t, context.Background(), "validate", bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "spec lint")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, context.Background(), "validate", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("no document", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, context.Background(), "validate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no OpenAPI document")
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	path := writeSpec(t, petstore)
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"example", []string{"-o", "ping"}, "\"pong\"\n"},
		{"by method and path", []string{"-o", "GET /ping"}, "\"pong\"\n"},
		{"accept", []string{"-o", "getPet", "--accept", "text/plain"}, "a pet\n"},
		{"select one", []string{"-o", "getPet", "--select", "$.name"}, "\"rex\"\n"},
		{"select many", []string{"-o", "listPets", "--select", "$[*].name"}, "[\"rex\",\"rex\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, _, err := execute(t, ctx, append([]string{"generate", path}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("seed is reproducible", func(t *testing.T) {
		t.Parallel()
		first, _, err := execute(t, ctx, "generate", path, "-o", "listPets", "--seed", "11")
		require.NoError(t, err)
		second, _, err := execute(t, ctx, "generate", path, "-o", "listPets", "--seed", "11")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("headers", func(t *testing.T) {
		t.Parallel()
		out, _, err := execute(t, ctx, "generate", path, "-o", "listPets", "-i")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "HTTP 200\nContent-Type: application/json\nX-Total: "))
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		out, _, err := execute(t, ctx, "generate", path, "-o", "ping", "--json")
		require.NoError(t, err)
		var res GenerateOutput
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, "GET /ping", res.Operation)
		assert.Equal(t, 200, res.Status)
		assert.Equal(t, `"pong"`, res.Body)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, ctx, "generate", path)
		require.Error(t, err)

		_, _, err = execute(t, ctx, "generate", path, "-o", "nope")
		require.ErrorContains(t, err, `operation "nope" not found`)

		_, _, err = execute(t, ctx, "generate", path, "-o", "getPet", "--accept", "text/plain", "--select", "$.id")
		require.ErrorContains(t, err, "needs a JSON response")

		_, _, err = execute(t, ctx, "generate", path, "-o", "getPet", "--select", "$.missing")
		require.ErrorContains(t, err, "matched nothing")

		_, _, err = execute(t, ctx, "generate", path, "-o", "ping", "--optionals-probability", "2")
		require.ErrorContains(t, err, "generator.optionalsProbability")
	})
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	path := writeSpec(t, petstore)
	cfgPath := filepath.Join(t.TempDir(), "specmock.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
spec:
  file: %s
  include: ["/ping"]
`, path)), 0o600))

	out, _, err := execute(t, context.Background(), "validate", "--config", cfgPath, "--json")
	require.NoError(t, err)

	var res ValidateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Operations, 1)
	assert.Equal(t, "/ping", res.Operations[0].Path)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServe(t *testing.T) {
	t.Parallel()

	path := writeSpec(t, petstore)
	port := freePort(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := execute(t, ctx, "serve", path,
			"--host", "127.0.0.1",
			"--port", fmt.Sprint(port),
			"--base-path", "/v1",
			"--log-level", "error",
		)
		done <- err
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/__specmock/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/v1/pets/abc")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "path", resp.Header.Get("X-Specmock-Validation-Step"))

	resp, err = http.Get(base + "/v1/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}
