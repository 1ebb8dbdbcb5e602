package entity

// Config controls which document fields are probed, in priority
// order, when deriving an entity's own identifier and its schema
// identifier.
type Config struct {
	EntityIDFields []string `json:"entity_id_fields" koanf:"entity_id_fields"`
	SchemaIDFields []string `json:"schema_id_fields" koanf:"schema_id_fields"`
}

// DefaultConfig returns the field probe order used when no explicit
// configuration is supplied.
func DefaultConfig() *Config {
	return &Config{
		EntityIDFields: []string{
			"$id",
			"gtsId",
			"gtsIid",
			"gtsOid",
			"gtsI",
			"gts_id",
			"gts_oid",
			"gts_iid",
			"id",
		},
		SchemaIDFields: []string{
			"$schema",
			"gtsTid",
			"gtsType",
			"gtsT",
			"gts_t",
			"gts_tid",
			"gts_type",
			"type",
			"schema",
		},
	}
}
