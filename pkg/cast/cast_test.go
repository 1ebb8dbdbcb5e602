package cast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draft7Schema(props map[string]any, required []any, extra map[string]any) map[string]any {
	s := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
	}
	if required != nil {
		s["required"] = required
	}
	for k, v := range extra {
		s[k] = v
	}
	return s
}

func TestInferDirection(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"up", "gts.acme.app.core.user.v1.0~acme.app.core.u1.v1.0", "gts.acme.app.core.user.v1.1~", DirectionUp},
		{"down", "gts.acme.app.core.user.v1.2~acme.app.core.u1.v1.2", "gts.acme.app.core.user.v1.1~", DirectionDown},
		{"none", "gts.acme.app.core.user.v1.1~acme.app.core.u1.v1.1", "gts.acme.app.core.user.v1.1~", DirectionNone},
		{"no minor", "gts.acme.app.core.user.v1~acme.app.core.u1.v1", "gts.acme.app.core.user.v1.1~", DirectionUnknown},
		{"unparseable", "nonsense", "gts.acme.app.core.user.v1.1~", DirectionUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferDirection(tt.from, tt.to))
		})
	}
}

func TestFlattenSchema(t *testing.T) {
	schema := map[string]any{
		"allOf": []any{
			map[string]any{
				"properties": map[string]any{"a": map[string]any{"type": "string"}},
				"required":   []any{"a"},
				"additionalProperties": true,
			},
			map[string]any{
				"properties": map[string]any{"b": map[string]any{"type": "integer"}},
				"required":   []any{"b"},
				"additionalProperties": false,
			},
		},
		"properties": map[string]any{"c": map[string]any{"type": "boolean"}},
		"required":   []any{"c"},
	}

	flat := flattenSchema(schema)
	props := flat["properties"].(map[string]any)
	assert.Len(t, props, 3)
	assert.ElementsMatch(t, []any{"a", "b", "c"}, flat["required"].([]any))
	assert.Equal(t, false, flat["additionalProperties"])
}

func TestCastFillsDefaults(t *testing.T) {
	fromSchema := draft7Schema(map[string]any{
		"name": map[string]any{"type": "string"},
	}, []any{"name"}, nil)
	toSchema := draft7Schema(map[string]any{
		"name":   map[string]any{"type": "string"},
		"status": map[string]any{"type": "string", "default": "active"},
	}, []any{"name", "status"}, nil)

	res := Cast(
		"gts.acme.app.core.user.v1.0~acme.app.core.u1.v1.0",
		"gts.acme.app.core.user.v1.1~",
		map[string]any{"name": "alice"},
		fromSchema, toSchema, nil,
	)

	require.Empty(t, res.Error)
	assert.Equal(t, DirectionUp, res.Direction)
	assert.True(t, res.IsFullyCompatible, res.IncompatibilityReasons)
	assert.Equal(t, []string{"status"}, res.AddedProperties)
	require.NotNil(t, res.CastedEntity)
	assert.Equal(t, "active", res.CastedEntity["status"])
	assert.Equal(t, "alice", res.CastedEntity["name"])
}

func TestCastMissingRequiredWithoutDefault(t *testing.T) {
	fromSchema := draft7Schema(map[string]any{
		"name": map[string]any{"type": "string"},
	}, []any{"name"}, nil)
	toSchema := draft7Schema(map[string]any{
		"name":  map[string]any{"type": "string"},
		"email": map[string]any{"type": "string"},
	}, []any{"name", "email"}, nil)

	res := Cast(
		"gts.acme.app.core.user.v1.0~acme.app.core.u1.v1.0",
		"gts.acme.app.core.user.v1.1~",
		map[string]any{"name": "alice"},
		fromSchema, toSchema, nil,
	)

	assert.False(t, res.IsFullyCompatible)
	assert.Contains(t, res.IncompatibilityReasons, "Missing required property 'email' and no default is defined")
}

func TestCastFullCompatibilityReflectsFinalValidation(t *testing.T) {
	fromSchema := draft7Schema(map[string]any{
		"name": map[string]any{"type": "string"},
	}, []any{"name"}, nil)
	// Draft-07 ignores keywords beside $ref, so final validation does
	// not enforce this required list even though the migration step
	// records the gap as a reason.
	toSchema := map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"$ref":     "#/definitions/base",
		"required": []any{"legacy_flag"},
		"definitions": map[string]any{
			"base": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
				},
			},
		},
	}

	res := Cast(
		"gts.acme.app.core.user.v1.0~acme.app.core.u1.v1.0",
		"gts.acme.app.core.user.v1.1~",
		map[string]any{"name": "alice"},
		fromSchema, toSchema, nil,
	)

	require.Empty(t, res.Error)
	assert.Contains(t, res.IncompatibilityReasons, "Missing required property 'legacy_flag' and no default is defined")
	assert.True(t, res.IsFullyCompatible)
}

func TestCastDropsExtraProperties(t *testing.T) {
	fromSchema := draft7Schema(map[string]any{
		"name":   map[string]any{"type": "string"},
		"legacy": map[string]any{"type": "string"},
	}, []any{"name"}, nil)
	toSchema := draft7Schema(map[string]any{
		"name": map[string]any{"type": "string"},
	}, []any{"name"}, map[string]any{"additionalProperties": false})

	res := Cast(
		"gts.acme.app.core.user.v1.1~acme.app.core.u1.v1.1",
		"gts.acme.app.core.user.v1.0~",
		map[string]any{"name": "alice", "legacy": "x"},
		fromSchema, toSchema, nil,
	)

	require.Empty(t, res.Error)
	assert.Equal(t, DirectionDown, res.Direction)
	assert.Equal(t, []string{"legacy"}, res.RemovedProperties)
	_, ok := res.CastedEntity["legacy"]
	assert.False(t, ok)
}

func TestCastRestampsGTSConsts(t *testing.T) {
	fromSchema := draft7Schema(map[string]any{
		"type": map[string]any{"type": "string", "const": "gts.acme.app.core.user.v1.0~"},
	}, []any{"type"}, nil)
	toSchema := draft7Schema(map[string]any{
		"type": map[string]any{"type": "string", "const": "gts.acme.app.core.user.v1.1~"},
	}, []any{"type"}, nil)

	res := Cast(
		"gts.acme.app.core.user.v1.0~acme.app.core.u1.v1.0",
		"gts.acme.app.core.user.v1.1~",
		map[string]any{"type": "gts.acme.app.core.user.v1.0~"},
		fromSchema, toSchema, nil,
	)

	require.Empty(t, res.Error)
	assert.True(t, res.IsFullyCompatible, res.IncompatibilityReasons)
	assert.Equal(t, "gts.acme.app.core.user.v1.1~", res.CastedEntity["type"])
	// Restamping is the point of version casting, not a reported change.
	assert.Empty(t, res.ChangedProperties)
}

func TestCastNestedObjectsAndArrays(t *testing.T) {
	toSchema := draft7Schema(map[string]any{
		"profile": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"bio": map[string]any{"type": "string", "default": ""},
			},
			"required": []any{"bio"},
		},
		"tags": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"label": map[string]any{"type": "string", "default": "none"},
				},
				"required": []any{"label"},
			},
		},
	}, nil, nil)

	res := Cast(
		"gts.acme.app.core.user.v1.0~acme.app.core.u1.v1.0",
		"gts.acme.app.core.user.v1.1~",
		map[string]any{
			"profile": map[string]any{},
			"tags":    []any{map[string]any{}, map[string]any{"label": "kept"}},
		},
		toSchema, toSchema, nil,
	)

	require.Empty(t, res.Error)
	assert.ElementsMatch(t, []string{"profile.bio", "tags[0].label"}, res.AddedProperties)
	profile := res.CastedEntity["profile"].(map[string]any)
	assert.Equal(t, "", profile["bio"])
	tags := res.CastedEntity["tags"].([]any)
	assert.Equal(t, "none", tags[0].(map[string]any)["label"])
	assert.Equal(t, "kept", tags[1].(map[string]any)["label"])
}

func TestCastNonObjectInstance(t *testing.T) {
	schema := draft7Schema(map[string]any{}, nil, nil)
	res := Cast(
		"gts.acme.app.core.user.v1.0~acme.app.core.u1.v1.0",
		"gts.acme.app.core.user.v1.1~",
		"not an object",
		schema, schema, nil,
	)
	assert.Equal(t, "Instance must be an object for casting", res.Error)
	assert.Nil(t, res.CastedEntity)
}

func TestCastDoesNotMutateInput(t *testing.T) {
	toSchema := draft7Schema(map[string]any{
		"name":   map[string]any{"type": "string"},
		"status": map[string]any{"type": "string", "default": "active"},
	}, []any{"name", "status"}, nil)

	instance := map[string]any{"name": "alice"}
	res := Cast(
		"gts.acme.app.core.user.v1.0~acme.app.core.u1.v1.0",
		"gts.acme.app.core.user.v1.1~",
		instance, toSchema, toSchema, nil,
	)

	require.Empty(t, res.Error)
	_, ok := instance["status"]
	assert.False(t, ok)
}
