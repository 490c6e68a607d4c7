package output_test

import (
	"path/filepath"
	"testing"
	"time"

	"supabase-clone/internal/output"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.UnixMilli(1735689600123)

func TestFileName(t *testing.T) {
	assert.Equal(t, "supabase_migration_both_1735689600123.sql", output.FileName("", "both", at))
	assert.Equal(t, "prod_schema_1735689600123.sql", output.FileName("prod", "schema", at))
}

func TestFileSink_Save(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := output.NewFileSink(fs, "out/migrations", "").WithClock(func() time.Time { return at })

	path, err := sink.Save("data", "-- Migration completed\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out/migrations", "supabase_migration_data_1735689600123.sql"), path)

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "-- Migration completed\n", string(content))
}

func TestFileSink_ReadOnly(t *testing.T) {
	sink := output.NewFileSink(afero.NewReadOnlyFs(afero.NewMemMapFs()), "out", "x")

	_, err := sink.Save("schema", "--")
	assert.Error(t, err)
}
