package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specshape/specshape/provider/openapi"
)

const petstoreV3 = `openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
paths:
  /users/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema: {type: string}
    get:
      operationId: getUser
      tags: [users]
      parameters:
        - name: expand
          in: query
          schema: {type: string, nullable: true}
        - name: X-Trace
          in: header
          schema: {type: string}
      responses:
        "200":
          description: A user
          content:
            application/json:
              schema:
                type: object
                required: [id, name]
                properties:
                  id: {type: integer}
                  name: {type: string}
  /users:
    post:
      tags: [admin]
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name: {type: string}
      responses:
        "201":
          description: Created
`

const legacyV2 = `swagger: "2.0"
info:
  title: Legacy
  version: "1.0"
basePath: /v1
paths:
  /things:
    get:
      operationId: listThings
      produces: [application/json]
      responses:
        "200":
          description: ok
          schema:
            type: array
            items: {type: string}
`

func writeOpenAPI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadOpenAPI_File(t *testing.T) {
	t.Parallel()
	doc, err := LoadOpenAPI(context.Background(), writeOpenAPI(t, petstoreV3))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Info == nil || doc.Info.Title != "Petstore" {
		t.Fatalf("expected Petstore title, got %+v", doc.Info)
	}
	if doc.Paths["/users/{id}"] == nil {
		t.Fatalf("expected /users/{id} path")
	}
}

func TestLoadOpenAPI_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := LoadOpenAPI(context.Background(), "   ")
	var derr *DocumentError
	if !errors.As(err, &derr) || derr.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoadOpenAPI_FileURLBlocked(t *testing.T) {
	t.Parallel()
	_, err := LoadOpenAPI(context.Background(), "file:///etc/hosts")
	var derr *DocumentError
	if !errors.As(err, &derr) || derr.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoadOpenAPI_UnknownVersion(t *testing.T) {
	t.Parallel()
	path := writeOpenAPI(t, "info:\n  title: NoVersion\n")
	_, err := LoadOpenAPI(context.Background(), path)
	var derr *DocumentError
	if !errors.As(err, &derr) || derr.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
}

func TestLoadOpenAPI_SwaggerV2Converts(t *testing.T) {
	t.Parallel()
	doc, err := LoadOpenAPI(context.Background(), writeOpenAPI(t, legacyV2))
	if err != nil {
		t.Fatalf("load v2: %v", err)
	}
	item := doc.Paths["/things"]
	if item == nil || item.Get == nil {
		t.Fatalf("expected GET /things after conversion, got %+v", item)
	}
	if item.Get.OperationID != "listThings" {
		t.Fatalf("operationId = %q, want listThings", item.Get.OperationID)
	}
}

func TestFromOpenAPI_Endpoints(t *testing.T) {
	t.Parallel()
	doc, err := LoadOpenAPI(context.Background(), writeOpenAPI(t, petstoreV3))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	desc, err := FromOpenAPI(doc)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if got := desc.Metadata.ProviderID(); got != "openapi" {
		t.Fatalf("description provider = %q, want openapi", got)
	}

	ep := desc.Endpoints["getUser"]
	if ep == nil {
		t.Fatalf("expected endpoint getUser, have %v", desc.EndpointNames())
	}
	if ep.Params["id"] == nil {
		t.Fatalf("path-level parameter id should land in params")
	}
	if ep.Query["expand"] == nil {
		t.Fatalf("expected query entry expand")
	}
	if ep.Headers["X-Trace"] == nil {
		t.Fatalf("expected header entry X-Trace")
	}
	if ep.Responses["200"] == nil {
		t.Fatalf("expected responses entry 200")
	}
	if ep.Metadata != nil {
		t.Fatalf("imported endpoints must not carry metadata overrides, got %+v", ep.Metadata)
	}

	created := desc.Endpoints["postUsers"]
	if created == nil {
		t.Fatalf("operation without operationId should get a derived name, have %v", desc.EndpointNames())
	}
	if created.Body == nil || created.Body.Schema == nil {
		t.Fatalf("expected request body schema on postUsers")
	}
	if created.Responses["201"] == nil {
		t.Fatalf("expected responses entry 201")
	}
	if created.Responses["201"].Schema != nil {
		t.Fatalf("response without content must import a nil schema")
	}
}

func TestFromOpenAPI_SchemasProject(t *testing.T) {
	t.Parallel()
	doc, err := LoadOpenAPI(context.Background(), writeOpenAPI(t, petstoreV3))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	desc, err := FromOpenAPI(doc)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	prov := openapi.New()
	ep := desc.Endpoints["getUser"]

	in, err := prov.ProjectInput(ep.Params["id"].Schema)
	if err != nil {
		t.Fatalf("project id: %v", err)
	}
	if in.String() != "string" {
		t.Fatalf("id shape = %s, want string", in)
	}

	in, err = prov.ProjectInput(ep.Query["expand"].Schema)
	if err != nil {
		t.Fatalf("project expand: %v", err)
	}
	if in.String() != "string?" {
		t.Fatalf("expand shape = %s, want string?", in)
	}

	out, err := prov.ProjectOutput(ep.Responses["200"].Schema)
	if err != nil {
		t.Fatalf("project 200: %v", err)
	}
	if out.String() != "{id: int, name: string}" {
		t.Fatalf("200 shape = %s, want {id: int, name: string}", out)
	}
}

func TestFromOpenAPI_V2SchemasProject(t *testing.T) {
	t.Parallel()
	doc, err := LoadOpenAPI(context.Background(), writeOpenAPI(t, legacyV2))
	if err != nil {
		t.Fatalf("load v2: %v", err)
	}
	desc, err := FromOpenAPI(doc)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	ep := desc.Endpoints["listThings"]
	if ep == nil {
		t.Fatalf("expected endpoint listThings, have %v", desc.EndpointNames())
	}
	out, err := openapi.New().ProjectOutput(ep.Responses["200"].Schema)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if out.String() != "[]string" {
		t.Fatalf("200 shape = %s, want []string", out)
	}
}

func TestFromOpenAPI_TagFilters(t *testing.T) {
	t.Parallel()
	doc, err := LoadOpenAPI(context.Background(), writeOpenAPI(t, petstoreV3))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	only, err := FromOpenAPI(doc, WithIncludeTags([]string{"users"}))
	if err != nil {
		t.Fatalf("convert include: %v", err)
	}
	if len(only.Endpoints) != 1 || only.Endpoints["getUser"] == nil {
		t.Fatalf("include filter should keep getUser only, have %v", only.EndpointNames())
	}

	trimmed, err := FromOpenAPI(doc, WithExcludeTags([]string{"admin"}))
	if err != nil {
		t.Fatalf("convert exclude: %v", err)
	}
	if len(trimmed.Endpoints) != 1 || trimmed.Endpoints["getUser"] == nil {
		t.Fatalf("exclude filter should drop postUsers, have %v", trimmed.EndpointNames())
	}

	posts, err := FromOpenAPI(doc, WithMethods([]string{"post"}))
	if err != nil {
		t.Fatalf("convert methods: %v", err)
	}
	if len(posts.Endpoints) != 1 || posts.Endpoints["postUsers"] == nil {
		t.Fatalf("method filter should keep postUsers only, have %v", posts.EndpointNames())
	}
}

func TestFromOpenAPI_OperationParamsShadowPathParams(t *testing.T) {
	t.Parallel()
	content := `openapi: 3.0.3
info:
  title: Shadow
  version: 1.0.0
paths:
  /items/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema: {type: string}
    get:
      operationId: getItem
      parameters:
        - name: id
          in: path
          required: true
          schema: {type: integer}
      responses:
        "200":
          description: ok
`
	doc, err := LoadOpenAPI(context.Background(), writeOpenAPI(t, content))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	desc, err := FromOpenAPI(doc)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	in, err := openapi.New().ProjectInput(desc.Endpoints["getItem"].Params["id"].Schema)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if in.String() != "int" {
		t.Fatalf("operation-level parameter should win, got %s", in)
	}
}

func TestFromOpenAPI_NilDocument(t *testing.T) {
	t.Parallel()
	_, err := FromOpenAPI(nil)
	var derr *DocumentError
	if !errors.As(err, &derr) || derr.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestDeriveEndpointName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		method, path, want string
	}{
		{"GET", "/users/{id}", "getUsersId"},
		{"POST", "/users", "postUsers"},
		{"GET", "/user-profiles/{profile_id}/avatar", "getUserProfilesProfileIdAvatar"},
		{"DELETE", "/", "delete"},
	}
	for _, tc := range cases {
		if got := deriveEndpointName(tc.method, tc.path); got != tc.want {
			t.Errorf("deriveEndpointName(%s, %s) = %q, want %q", tc.method, tc.path, got, tc.want)
		}
	}
}
