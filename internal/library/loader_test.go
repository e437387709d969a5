package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
)

const validLibrary = `
plans:
  - id: deploy
    name: Deploy a service
    domains: [ops]
    triggers: [deploy, release, ship]
    trigger_threshold: 2
    stale_after_turns: 8
    graph:
      start: begin
      nodes:
        - id: begin
          type: start
        - id: run_deploy
          type: task
          name: Run the deploy
          action: Execute the deploy script
          tool: shell
          tool_hint: ./deploy.sh
          max_retries: 2
          verify:
            type: output_contains
            value: deploy complete
        - id: worked
          type: decision
          description: Did the deploy land?
        - id: note
          type: checkpoint
        - id: finished
          type: exit
        - id: page_oncall
          type: escalate
          pace_level: urgent
          reason: deploy would not converge
      edges:
        - {from: begin, to: run_deploy}
        - {from: run_deploy, to: worked, condition: always}
        - {from: worked, to: note, condition: on_success}
        - {from: worked, to: page_oncall, condition: on_fail}
        - {from: note, to: finished}
  - id: minimal
    graph:
      start: s
      nodes:
        - id: s
          type: start
        - id: t
          type: task
          action: do the thing
        - id: e
          type: exit
      edges:
        - {from: s, to: t}
        - {from: t, to: e, condition: on_success}
`

func TestParse_ValidLibrary(t *testing.T) {
	lib, err := Parse([]byte(validLibrary))
	require.NoError(t, err)
	require.Equal(t, 2, lib.Len())

	t.Run("plans keep document order", func(t *testing.T) {
		plans := lib.Plans()
		assert.Equal(t, "deploy", plans[0].ID)
		assert.Equal(t, "minimal", plans[1].ID)
	})

	t.Run("declared fields survive decoding", func(t *testing.T) {
		deploy, ok := lib.Get("deploy")
		require.True(t, ok)
		assert.Equal(t, "Deploy a service", deploy.Name)
		assert.Equal(t, []string{"ops"}, deploy.Domains)
		assert.Equal(t, 2, deploy.TriggerThreshold)
		assert.Equal(t, 8, deploy.StaleAfterTurns)

		task := deploy.Graph.Node("run_deploy")
		require.NotNil(t, task)
		assert.Equal(t, domain.NodeTask, task.Type)
		assert.Equal(t, "shell", task.Tool)
		assert.Equal(t, 2, task.MaxRetries)
		require.NotNil(t, task.Verify)
		assert.Equal(t, domain.VerifyOutputContains, task.Verify.Type)
		assert.Equal(t, "deploy complete", task.Verify.Value)

		esc := deploy.Graph.Node("page_oncall")
		require.NotNil(t, esc)
		assert.Equal(t, "urgent", esc.PaceLevel)
		assert.Equal(t, 1, deploy.Graph.TaskCount())
	})

	t.Run("defaults fill omitted thresholds", func(t *testing.T) {
		minimal, ok := lib.Get("minimal")
		require.True(t, ok)
		assert.Equal(t, DefaultTriggerThreshold, minimal.TriggerThreshold)
		assert.Equal(t, DefaultStaleAfterTurns, minimal.StaleAfterTurns)
	})
}

func TestParse_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing graph",
			yaml: `
plans:
  - id: legacy
    triggers: [a, b]
`,
			wantErr: "graph is required",
		},
		{
			name: "duplicate plan id",
			yaml: `
plans:
  - id: twin
    graph: {start: s, nodes: [{id: s, type: start}], edges: []}
  - id: twin
    graph: {start: s, nodes: [{id: s, type: start}], edges: []}
`,
			wantErr: "duplicate id",
		},
		{
			name: "unknown node type",
			yaml: `
plans:
  - id: p
    graph:
      start: s
      nodes:
        - id: s
          type: teleport
      edges: []
`,
			wantErr: "unknown type",
		},
		{
			name: "field not valid for the node type",
			yaml: `
plans:
  - id: p
    graph:
      start: s
      nodes:
        - id: s
          type: exit
          max_retries: 3
      edges: []
`,
			wantErr: "invalid keys",
		},
		{
			name: "edge references undefined node",
			yaml: `
plans:
  - id: p
    graph:
      start: s
      nodes:
        - id: s
          type: start
      edges:
        - {from: s, to: ghost}
`,
			wantErr: "undefined node",
		},
		{
			name: "unknown edge condition",
			yaml: `
plans:
  - id: p
    graph:
      start: s
      nodes:
        - id: s
          type: start
        - id: t
          type: task
          action: x
      edges:
        - {from: s, to: t, condition: on_tuesday}
`,
			wantErr: "unknown condition",
		},
		{
			name: "unknown verify type",
			yaml: `
plans:
  - id: p
    graph:
      start: s
      nodes:
        - id: s
          type: start
        - id: t
          type: task
          action: x
          verify: {type: vibes_ok}
      edges:
        - {from: s, to: t}
`,
			wantErr: "unknown verify type",
		},
		{
			name: "start is not a defined node",
			yaml: `
plans:
  - id: p
    graph:
      start: nowhere
      nodes:
        - id: s
          type: start
      edges: []
`,
			wantErr: "not a defined node",
		},
		{
			name: "negative max_retries",
			yaml: `
plans:
  - id: p
    graph:
      start: s
      nodes:
        - id: s
          type: start
        - id: t
          type: task
          action: x
          max_retries: -1
      edges:
        - {from: s, to: t}
`,
			wantErr: "negative max_retries",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("reads a library file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, []byte(validLibrary), 0o644))

		lib, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, lib.Len())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
