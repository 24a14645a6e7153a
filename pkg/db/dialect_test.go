package db

import (
	"testing"

	"github.com/smallbiznis/revbox/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDialectByType(t *testing.T) {
	cases := map[string]string{
		"":         "postgres",
		"postgres": "postgres",
		" MySQL ":  "mysql",
		"sqlite":   "sqlite",
	}
	for dbType, want := range cases {
		dialector, err := Dialect(config.DatabaseConfig{Type: dbType, Name: "revbox"})
		if assert.NoError(t, err, dbType) {
			assert.Equal(t, want, dialector.Name(), dbType)
		}
	}

	_, err := Dialect(config.DatabaseConfig{Type: "oracle"})
	assert.Error(t, err)
}
