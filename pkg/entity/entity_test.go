package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userTypeID = "gts.acme.crm.users.user.v1~"
	aliceID    = "gts.acme.crm.users.user.v1~acme.app1.people.alice.v1"
)

func newEntity(t *testing.T, content any) *Entity {
	t.Helper()
	return New(Params{Content: content, Config: DefaultConfig()})
}

func TestSchemaDetection(t *testing.T) {
	schema := newEntity(t, map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$id":     userTypeID,
		"type":    "object",
	})
	assert.True(t, schema.IsSchema)

	draft07 := newEntity(t, map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"$id":     userTypeID,
	})
	assert.True(t, draft07.IsSchema)

	// A GTS-flavored $schema marks an instance of that type.
	instance := newEntity(t, map[string]any{
		"$schema": userTypeID,
		"id":      aliceID,
	})
	assert.False(t, instance.IsSchema)

	assert.False(t, newEntity(t, map[string]any{"name": "alice"}).IsSchema)
	assert.False(t, newEntity(t, []any{"$schema"}).IsSchema)
}

func TestEntityIDFieldPriority(t *testing.T) {
	e := newEntity(t, map[string]any{
		"$id": userTypeID,
		"id":  "local-row-7",
	})
	require.NotNil(t, e.ID)
	assert.Equal(t, userTypeID, e.ID.String())
	assert.Equal(t, "$id", e.SelectedEntityField)
}

func TestEntityIDPrefersValidIdentifier(t *testing.T) {
	// "$id" holds a non-GTS value, so the probe skips ahead to the
	// first field that parses.
	e := newEntity(t, map[string]any{
		"$id": "urn:uuid:1234",
		"id":  aliceID,
	})
	require.NotNil(t, e.ID)
	assert.Equal(t, aliceID, e.ID.String())
	assert.Equal(t, "id", e.SelectedEntityField)
}

func TestEntityIDFallsBackToSchemaID(t *testing.T) {
	e := newEntity(t, map[string]any{
		"$schema": userTypeID,
		"name":    "anonymous",
	})
	require.NotNil(t, e.ID)
	assert.Equal(t, userTypeID, e.ID.String())
	assert.Equal(t, userTypeID, e.SchemaID)
}

func TestSchemaIDFromTypeChain(t *testing.T) {
	// No schema field present, the schema identifier is derived from
	// the instance identifier's type chain.
	e := newEntity(t, map[string]any{"id": aliceID})
	require.NotNil(t, e.ID)
	assert.Equal(t, aliceID, e.ID.String())
	assert.Equal(t, userTypeID, e.SchemaID)
}

func TestSchemaIDOfSchemaIsItself(t *testing.T) {
	e := newEntity(t, map[string]any{"$id": userTypeID})
	assert.Equal(t, userTypeID, e.SchemaID)
}

func TestAnonymousContentHasNoID(t *testing.T) {
	e := New(Params{
		Content: map[string]any{"name": "alice"},
		Config:  DefaultConfig(),
	})
	assert.Nil(t, e.ID)
}

func TestLabelDerivation(t *testing.T) {
	f := NewFile("/data/users.json", "users.json", map[string]any{"id": aliceID})
	seq := 2

	withSeq := New(Params{File: f, ListSequence: &seq, Content: map[string]any{"id": aliceID}, Config: DefaultConfig()})
	assert.Equal(t, "users.json#2", withSeq.Label)

	withFile := New(Params{File: f, Content: map[string]any{"id": aliceID}, Config: DefaultConfig()})
	assert.Equal(t, "users.json", withFile.Label)

	bare := newEntity(t, map[string]any{"id": aliceID})
	assert.Equal(t, aliceID, bare.Label)
}

func TestDescription(t *testing.T) {
	e := newEntity(t, map[string]any{
		"id":          aliceID,
		"description": "primary contact",
	})
	assert.Equal(t, "primary contact", e.Description)
}

func TestRefExtraction(t *testing.T) {
	friendID := "gts.acme.crm.users.user.v1~acme.app1.people.bob.v1"
	e := newEntity(t, map[string]any{
		"id":     aliceID,
		"friend": friendID,
		"groups": []any{friendID, "not-an-id"},
		"nested": map[string]any{"owner": aliceID},
	})

	byPath := map[string]string{}
	for _, r := range e.Refs {
		byPath[r.SourcePath] = r.ID
	}
	assert.Equal(t, aliceID, byPath["id"])
	assert.Equal(t, friendID, byPath["friend"])
	assert.Equal(t, friendID, byPath["groups[0]"])
	assert.Equal(t, aliceID, byPath["nested.owner"])
	assert.NotContains(t, byPath, "groups[1]")
}

func TestRefExtractionDeterministicOrder(t *testing.T) {
	content := map[string]any{
		"id":    aliceID,
		"alpha": userTypeID,
		"zeta":  userTypeID,
	}
	first := newEntity(t, content).Refs
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, newEntity(t, content).Refs)
	}
	// Paths come out in sorted key order.
	require.Len(t, first, 3)
	assert.Equal(t, "alpha", first[0].SourcePath)
	assert.Equal(t, "id", first[1].SourcePath)
	assert.Equal(t, "zeta", first[2].SourcePath)
}

func TestRefExtractionStripsURIPrefix(t *testing.T) {
	friendID := "gts.acme.crm.users.user.v1~acme.app1.people.bob.v1"
	e := newEntity(t, map[string]any{
		"id":     aliceID,
		"friend": "gts://" + friendID,
	})
	byPath := map[string]string{}
	for _, r := range e.Refs {
		byPath[r.SourcePath] = r.ID
	}
	assert.Equal(t, friendID, byPath["friend"])

	g := e.RefGraph()
	assert.Equal(t, friendID, g.Refs["friend"])
}

func TestRefDedupe(t *testing.T) {
	refs := dedupeRefs([]Ref{
		{ID: aliceID, SourcePath: "a"},
		{ID: aliceID, SourcePath: "a"},
		{ID: aliceID, SourcePath: "b"},
	})
	assert.Len(t, refs, 2)
}

func TestSchemaRefs(t *testing.T) {
	e := newEntity(t, map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$id":     userTypeID,
		"properties": map[string]any{
			"friend": map[string]any{"$ref": "#/$defs/friend"},
		},
		"$defs": map[string]any{
			"friend": map[string]any{"type": "string"},
		},
	})
	require.Len(t, e.SchemaRefs, 1)
	assert.Equal(t, "#/$defs/friend", e.SchemaRefs[0].ID)
	assert.Equal(t, "properties.friend.$ref", e.SchemaRefs[0].SourcePath)

	// Instances never collect $ref occurrences.
	inst := newEntity(t, map[string]any{
		"id":   aliceID,
		"link": map[string]any{"$ref": "#/x"},
	})
	assert.Empty(t, inst.SchemaRefs)
}

func TestRefGraph(t *testing.T) {
	friendID := "gts.acme.crm.users.user.v1~acme.app1.people.bob.v1"
	e := newEntity(t, map[string]any{
		"id":     aliceID,
		"friend": friendID,
	})
	g := e.RefGraph()
	assert.Equal(t, aliceID, g.ID)
	assert.Equal(t, userTypeID, g.SchemaID)
	assert.Equal(t, friendID, g.Refs["friend"])
}

func TestResolvePath(t *testing.T) {
	e := newEntity(t, map[string]any{
		"id":      aliceID,
		"profile": map[string]any{"email": "alice@example.com"},
	})
	res := e.ResolvePath("profile.email")
	require.True(t, res.Resolved)
	assert.Equal(t, "alice@example.com", res.Value)
	assert.Equal(t, aliceID, res.GtsID)

	miss := e.ResolvePath("profile.phone")
	assert.False(t, miss.Resolved)
	assert.NotEmpty(t, miss.Error)
}

func TestFileSequences(t *testing.T) {
	arr := NewFile("/data/batch.json", "batch.json", []any{
		map[string]any{"id": aliceID},
		map[string]any{"name": "b"},
	})
	assert.Equal(t, 2, arr.SequencesCount)
	assert.Equal(t, map[string]any{"name": "b"}, arr.SequenceContent[1])

	single := NewFile("/data/one.json", "one.json", map[string]any{"id": aliceID})
	assert.Equal(t, 1, single.SequencesCount)
}

type emptyResolver struct{}

func (emptyResolver) ResolveSchema(string) (map[string]any, bool) { return nil, false }

func TestCastValidation(t *testing.T) {
	resolver := emptyResolver{}
	schemaContent := map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$id":     userTypeID,
		"type":    "object",
	}
	schema := newEntity(t, schemaContent)
	instance := newEntity(t, map[string]any{"id": aliceID, "name": "alice"})
	anonymous := New(Params{Content: map[string]any{"name": "x"}})

	_, err := anonymous.Cast(schema, schema, resolver)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no GTS identifier")

	_, err = instance.Cast(instance, schema, resolver)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a schema")

	res, err := instance.Cast(schema, schema, resolver)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res.Error)
	assert.True(t, res.IsFullyCompatible)
}
