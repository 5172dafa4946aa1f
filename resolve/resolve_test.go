package resolve_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specshape/specshape/api"
	"github.com/specshape/specshape/resolve"
)

func meta(id string) *api.Metadata {
	if id == "" {
		return nil
	}
	return &api.Metadata{SchemaType: id}
}

// description builds a one-endpoint tree where each level optionally pins a
// provider: descID on the description, epID on the endpoint, entryID on the
// single query entry "q" and on the body.
func description(descID, epID, entryID string) *api.Description {
	return &api.Description{
		Metadata: meta(descID),
		Endpoints: map[string]*api.Endpoint{
			"op": {
				Metadata: meta(epID),
				Query: map[string]*api.Parameter{
					"q": {Schema: "schema-q", Metadata: meta(entryID)},
				},
				Body: &api.BodyParameter{Schema: "schema-body", Metadata: meta(entryID)},
			},
		},
	}
}

func TestEntryCascadePrecedence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                  string
		descID, epID, entryID string
		want                  string
	}{
		{"entry wins over all", "pDesc", "pEp", "pEntry", "pEntry"},
		{"endpoint wins when entry silent", "pDesc", "pEp", "", "pEp"},
		{"description wins when endpoint silent", "pDesc", "", "", "pDesc"},
		{"default when everything silent", "", "", "", "pDefault"},
	}

	r := resolve.New(resolve.WithDefaultProvider("pDefault"))
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := description(tc.descID, tc.epID, tc.entryID)

			got, err := r.Entry(d, "op", api.EntryQuery, "q")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			// Body carries the same entry metadata and must resolve alike.
			gotBody, err := r.Entry(d, "op", api.EntryBody, "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, gotBody)
		})
	}
}

func TestEntryEmptyMetadataDoesNotShadow(t *testing.T) {
	t.Parallel()

	// Metadata present but with an empty SchemaType behaves like absent
	// metadata: the level stays silent instead of masking wider scopes.
	d := description("pDesc", "", "")
	d.Endpoints["op"].Metadata = &api.Metadata{}
	d.Endpoints["op"].Query["q"].Metadata = &api.Metadata{}

	r := resolve.New(resolve.WithDefaultProvider("pDefault"))
	got, err := r.Entry(d, "op", api.EntryQuery, "q")
	require.NoError(t, err)
	assert.Equal(t, "pDesc", got)
}

func TestEntryBodyAbsentFallsThrough(t *testing.T) {
	t.Parallel()

	d := description("pDesc", "pEp", "pEntry")
	d.Endpoints["op"].Body = nil

	r := resolve.New(resolve.WithDefaultProvider("pDefault"))
	got, err := r.Entry(d, "op", api.EntryBody, "")
	require.NoError(t, err, "an absent body is a valid location, not an unknown entry")
	assert.Equal(t, "pEp", got, "absent body resolves at endpoint scope")

	assert.NotErrorIs(t, err, resolve.ErrUnknownEntry)
}

func TestEntryGetUserScenario(t *testing.T) {
	t.Parallel()

	// Default p0, endpoint pins p1, params.id declares nothing: the id
	// parameter is governed by p1.
	d := &api.Description{
		Endpoints: map[string]*api.Endpoint{
			"getUser": {
				Metadata: &api.Metadata{SchemaType: "p1"},
				Params: map[string]*api.Parameter{
					"id": {Schema: "string"},
				},
			},
		},
	}

	r := resolve.New(resolve.WithDefaultProvider("p0"))
	got, err := r.Entry(d, "getUser", api.EntryParams, "id")
	require.NoError(t, err)
	assert.Equal(t, "p1", got)
}

func TestEntryUnknownEndpoint(t *testing.T) {
	t.Parallel()

	r := resolve.New(resolve.WithDefaultProvider("pDefault"))
	_, err := r.Entry(description("", "", ""), "nope", api.EntryParams, "id")
	require.Error(t, err)

	assert.ErrorIs(t, err, resolve.ErrUnknownEndpoint)
	var ue *resolve.UnknownEndpointError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "nope", ue.Endpoint)
}

func TestEntryUnknownEntry(t *testing.T) {
	t.Parallel()

	r := resolve.New(resolve.WithDefaultProvider("pDefault"))
	d := description("", "", "")

	for _, kind := range []api.EntryKind{api.EntryParams, api.EntryQuery, api.EntryHeaders, api.EntryCookies, api.EntryResponses} {
		_, err := r.Entry(d, "op", kind, "missing")
		require.Error(t, err, "kind %s", kind)

		assert.ErrorIs(t, err, resolve.ErrUnknownEntry)
		var ue *resolve.UnknownEntryError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "op", ue.Endpoint)
		assert.Equal(t, kind, ue.Kind)
		assert.Equal(t, "missing", ue.Entry)
	}
}

func TestEntryInvalidKind(t *testing.T) {
	t.Parallel()

	r := resolve.New(resolve.WithDefaultProvider("pDefault"))
	_, err := r.Entry(description("", "", ""), "op", "bodies", "x")
	assert.ErrorIs(t, err, resolve.ErrInvalidKind)
}

func TestNilDescription(t *testing.T) {
	t.Parallel()

	r := resolve.New()
	_, err := r.Entry(nil, "op", api.EntryParams, "id")
	assert.ErrorIs(t, err, resolve.ErrNilDescription)
	_, err = r.Endpoint(nil, "op")
	assert.ErrorIs(t, err, resolve.ErrNilDescription)
}

func TestEndpointScope(t *testing.T) {
	t.Parallel()

	r := resolve.New(resolve.WithDefaultProvider("pDefault"))

	got, err := r.Endpoint(description("pDesc", "pEp", "pEntry"), "op")
	require.NoError(t, err)
	assert.Equal(t, "pEp", got, "entry metadata plays no part at endpoint scope")

	got, err = r.Endpoint(description("pDesc", "", "pEntry"), "op")
	require.NoError(t, err)
	assert.Equal(t, "pDesc", got)

	got, err = r.Endpoint(description("", "", ""), "op")
	require.NoError(t, err)
	assert.Equal(t, "pDefault", got)

	_, err = r.Endpoint(description("", "", ""), "nope")
	assert.ErrorIs(t, err, resolve.ErrUnknownEndpoint)
}

func TestResolutionIsIdempotent(t *testing.T) {
	t.Parallel()

	d := description("pDesc", "pEp", "")
	r := resolve.New(resolve.WithDefaultProvider("pDefault"))

	first, err := r.Entry(d, "op", api.EntryQuery, "q")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Entry(d, "op", api.EntryQuery, "q")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEmptyDefaultYieldsEmptyID(t *testing.T) {
	t.Parallel()

	r := resolve.New()
	got, err := r.Entry(description("", "", ""), "op", api.EntryQuery, "q")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPackageLevelHelpers(t *testing.T) {
	t.Parallel()

	d := description("", "pEp", "")

	got, err := resolve.EffectiveProvider(d, "op", api.EntryQuery, "q", "pDefault")
	require.NoError(t, err)
	assert.Equal(t, "pEp", got)

	got, err = resolve.EndpointProvider(d, "op", "pDefault")
	require.NoError(t, err)
	assert.Equal(t, "pEp", got)

	d = description("", "", "")
	got, err = resolve.EffectiveProvider(d, "op", api.EntryQuery, "q", "pDefault")
	require.NoError(t, err)
	assert.Equal(t, "pDefault", got)
}

func TestResolverDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "p0", resolve.New(resolve.WithDefaultProvider("p0")).Default())
	assert.Empty(t, resolve.New().Default())
}
