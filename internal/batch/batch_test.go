package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTasks(t *testing.T) {
	plan := Plan{
		From:       3,
		To:         5,
		Command:    "concordium-client",
		Args:       []string{"contract", "update", "--parameter-binary", "register_msg{index}.bin"},
		Stdin:      []string{"y"},
		OutputPath: "out-{index}.log",
		IDPrefix:   "register",
	}

	tasks, err := plan.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "register-3", tasks[0].ID)
	assert.Equal(t, 3, tasks[0].Index)
	assert.Equal(t, []string{"contract", "update", "--parameter-binary", "register_msg3.bin"}, tasks[0].Args)
	assert.Equal(t, "out-3.log", tasks[0].OutputPath)
	assert.Equal(t, []string{"y"}, tasks[0].Stdin)

	// Every index-dependent value comes from the same loop index.
	assert.Equal(t, "register_msg5.bin", tasks[2].Args[3])
	assert.Equal(t, 5, tasks[2].Index)
}

func TestPlanTasks_Defaults(t *testing.T) {
	tasks, err := Plan{From: 1, To: 1, Command: "true"}.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task-1", tasks[0].ID)
	assert.Nil(t, tasks[0].Args)
}

func TestPlanTasks_Invalid(t *testing.T) {
	_, err := Plan{From: 2, To: 1, Command: "true"}.Tasks()
	assert.Error(t, err)

	_, err = Plan{From: 1, To: 2}.Tasks()
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(ExampleManifest()), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Version)
	require.Len(t, f.Tasks, 2)

	tasks := f.Descriptors()
	require.Len(t, tasks, 2)
	assert.Equal(t, "register-1", tasks[0].ID)
	assert.Equal(t, "concordium-client", tasks[0].Command)
	assert.Equal(t, "submissions.log", tasks[0].OutputPath)
	assert.Equal(t, []string{"y"}, tasks[0].Stdin)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "batch.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(ManifestSchema()), 0644))

	t.Run("valid manifest passes schema", func(t *testing.T) {
		f := &File{
			Version:  1,
			Defaults: Defaults{Command: "true"},
			Tasks:    []Spec{{ID: "a"}, {ID: "b"}},
		}
		result := f.Validate(ValidationOptions{SchemaPath: schemaPath})
		assert.True(t, result.Valid, "errors: %v", result.Errors)
		assert.True(t, result.UsedSchema)
	})

	t.Run("missing schema degrades to warning", func(t *testing.T) {
		f := &File{Version: 1, Tasks: []Spec{{Command: "true"}}}
		result := f.Validate(ValidationOptions{SchemaPath: filepath.Join(dir, "absent.json")})
		assert.True(t, result.Valid)
		assert.False(t, result.UsedSchema)
		assert.NotEmpty(t, result.Warnings)
	})

	t.Run("empty task list fails", func(t *testing.T) {
		f := &File{Version: 1}
		result := f.Validate(ValidationOptions{})
		assert.False(t, result.Valid)
	})

	t.Run("duplicate ids fail", func(t *testing.T) {
		f := &File{
			Version:  1,
			Defaults: Defaults{Command: "true"},
			Tasks:    []Spec{{ID: "x"}, {ID: "x"}},
		}
		result := f.Validate(ValidationOptions{})
		assert.False(t, result.Valid)
	})

	t.Run("missing command fails", func(t *testing.T) {
		f := &File{Version: 1, Tasks: []Spec{{ID: "x"}}}
		result := f.Validate(ValidationOptions{})
		assert.False(t, result.Valid)
	})
}

func TestDescriptors_FillsIDs(t *testing.T) {
	f := &File{
		Version:  1,
		Defaults: Defaults{Command: "true", Dir: "/tmp"},
		Tasks:    []Spec{{}, {Command: "false", Dir: "/opt"}},
	}
	tasks := f.Descriptors()
	require.Len(t, tasks, 2)
	assert.Equal(t, "task-0", tasks[0].ID)
	assert.Equal(t, "true", tasks[0].Command)
	assert.Equal(t, "/tmp", tasks[0].Dir)
	assert.Equal(t, "false", tasks[1].Command)
	assert.Equal(t, "/opt", tasks[1].Dir)
}
