package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kumbukumbu/core"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		db      core.DatabaseConfig
		wantSQL bool
		wantErr bool
	}{
		{name: "memory", db: core.DatabaseConfig{Engine: core.EngineMemory}},
		{name: "sqlite", db: core.DatabaseConfig{Engine: core.EngineSQLite, Name: filepath.Join(t.TempDir(), "school.db")}, wantSQL: true},
		{name: "unsupported", db: core.DatabaseConfig{Engine: "oracle"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(context.Background(), &core.Config{Database: tt.db})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer func() { assert.NoError(t, store.Close()) }()

			require.NotNil(t, store.Repo)
			assert.Equal(t, tt.wantSQL, store.DB != nil)
		})
	}
}
