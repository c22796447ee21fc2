package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quill/internal/core/config"
	"github.com/hay-kot/quill/internal/core/history"
	"github.com/hay-kot/quill/internal/printer"
	"github.com/hay-kot/quill/internal/store/memory"
)

type harness struct {
	flags  *Flags
	out    bytes.Buffer
	msgs   bytes.Buffer
	record *RecordCmd
	hist   *HistoryCmd
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.History.RetentionMax = 5

	conn := history.NewConnector(zerolog.Nop(), nil, func() history.Backend { return memory.New() })
	store := history.NewStore(conn, zerolog.Nop())
	repo := history.NewRepository(store, cfg.HistoryOptions(), zerolog.Nop())
	t.Cleanup(func() { _ = repo.Close() })

	h := &harness{
		flags: &Flags{Config: &cfg, Connector: conn, Store: store, Repository: repo},
	}

	h.record = NewRecordCmd(h.flags)
	h.hist = NewHistoryCmd(h.flags)
	h.hist.confirm = func(string) (bool, error) { return false, errors.New("unexpected prompt") }

	return h
}

// run builds a fresh root command per invocation so flag state never leaks
// between runs.
func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()

	app := &cli.Command{Name: "quill", Writer: &h.out}
	app = h.record.Register(app)
	app = h.hist.Register(app)
	app = NewPruneCmd(h.flags).Register(app)
	app = NewConfigValidateCmd(h.flags).Register(app)
	app = NewDoctorCmd(h.flags).Register(app)

	ctx := printer.NewContext(context.Background(), printer.New(&h.msgs))
	return app.Run(ctx, append([]string{"quill"}, args...))
}

func (h *harness) stored(t *testing.T) []string {
	t.Helper()
	// Wait for background prunes before reading the backend directly.
	require.NoError(t, h.flags.Repository.Close())

	records, err := h.flags.Store.GetRecent(context.Background(), 100)
	require.NoError(t, err)

	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Content)
	}
	return out
}

func TestRecord_Args(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "record", "hello", "world"))

	assert.Equal(t, []string{"hello world"}, h.stored(t))
	assert.Contains(t, h.msgs.String(), "Recorded 1 entry")
}

func TestRecord_Stdin(t *testing.T) {
	h := newHarness(t)
	h.record.stdin = strings.NewReader("one\n\n  \ntwo\nthree\n")

	require.NoError(t, h.run(t, "record"))

	assert.Equal(t, []string{"three", "two", "one"}, h.stored(t))
	assert.Contains(t, h.msgs.String(), "Recorded 3 entries")
}

func TestRecord_AppliesRetention(t *testing.T) {
	h := newHarness(t)

	h.record.stdin = strings.NewReader("a\nb\nc\nd\ne\nf\ng")

	require.NoError(t, h.run(t, "record"))

	assert.Equal(t, []string{"g", "f", "e", "d", "c"}, h.stored(t))
}

func TestRecord_NothingToRecord(t *testing.T) {
	h := newHarness(t)
	h.record.stdin = strings.NewReader("\n   \n")

	require.NoError(t, h.run(t, "record"))

	assert.Empty(t, h.stored(t))
	assert.Contains(t, h.msgs.String(), "Nothing to record")
}

func TestHistory_JSON(t *testing.T) {
	h := newHarness(t)
	h.record.stdin = strings.NewReader("first\nsecond\n")
	require.NoError(t, h.run(t, "record"))

	require.NoError(t, h.run(t, "history", "--json", "--limit", "1"))

	var entries []struct {
		Content   string `json:"content"`
		CreatedAt int64  `json:"created_at"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Content)
	assert.Positive(t, entries[0].CreatedAt)
}

func TestHistory_Table(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "record", "multi\nline"))

	require.NoError(t, h.run(t, "history"))

	assert.Contains(t, h.out.String(), "WHEN")
	assert.Contains(t, h.out.String(), "multi⏎line")
}

func TestHistory_TableTruncatesWideRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kept  string
	}{
		{name: "cjk", input: strings.Repeat("漢字", 50), kept: strings.Repeat("漢字", 10)},
		{name: "emoji", input: strings.Repeat("🙂", 80), kept: strings.Repeat("🙂", 20)},
		{name: "mixed", input: "résumé " + strings.Repeat("ü", 100), kept: "résumé " + strings.Repeat("ü", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.run(t, "record", tt.input))

			require.NoError(t, h.run(t, "history"))

			out := h.out.String()
			assert.True(t, utf8.ValidString(out), "table output must stay valid UTF-8")
			assert.Contains(t, out, tt.kept)
			assert.Contains(t, out, "...")
			assert.NotContains(t, out, tt.input)

			for _, line := range strings.Split(out, "\n") {
				if strings.Contains(line, "...") {
					content := line[strings.Index(line, tt.kept):]
					assert.LessOrEqual(t, ansi.StringWidth(content), maxContentWidth)
				}
			}
		})
	}
}

func TestHistory_EmptyList(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "history"))

	assert.Contains(t, h.msgs.String(), "No input history")
}

func TestHistory_ClearWithYes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "record", "secret"))

	_, err := h.flags.Repository.GetCachedRecent(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.run(t, "history", "--clear", "--yes"))

	recent, err := h.flags.Repository.GetCachedRecent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recent, "cache is dropped with the rows")
	assert.Empty(t, h.stored(t))
}

func TestHistory_ClearDeclined(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "record", "keep me"))

	asked := ""
	h.hist.confirm = func(title string) (bool, error) {
		asked = title
		return false, nil
	}

	require.NoError(t, h.run(t, "history", "--clear"))

	assert.NotEmpty(t, asked)
	assert.Equal(t, []string{"keep me"}, h.stored(t))
	assert.Contains(t, h.msgs.String(), "Aborted")
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
		msg  string
	}{
		{
			name: "explicit max",
			args: []string{"prune", "--max", "2"},
			want: []string{"c", "b"},
			msg:  "Pruned 1 entry",
		},
		{
			name: "within configured limit",
			args: []string{"prune"},
			want: []string{"c", "b", "a"},
			msg:  "within the limit of 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.record.stdin = strings.NewReader("a\nb\nc\n")
			require.NoError(t, h.run(t, "record"))

			require.NoError(t, h.run(t, tt.args...))

			assert.Equal(t, tt.want, h.stored(t))
			assert.Contains(t, h.msgs.String(), tt.msg)
		})
	}
}

func TestTui_PlaceholderFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "config value", args: []string{"quill"}, want: "Write something..."},
		{name: "flag overrides", args: []string{"quill", "--placeholder", "Ask away"}, want: "Ask away"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tuiCmd := NewTuiCmd(h.flags)

			var got config.ComposerConfig
			app := &cli.Command{
				Name:  "quill",
				Flags: tuiCmd.Flags(),
				Action: func(context.Context, *cli.Command) error {
					got = tuiCmd.composerConfig()
					return nil
				},
			}

			require.NoError(t, app.Run(context.Background(), tt.args))
			assert.Equal(t, tt.want, got.Placeholder)
			assert.Equal(t, h.flags.Config.Composer.CharLimit, got.CharLimit)
		})
	}
}

func TestConfigValidate_JSONBySection(t *testing.T) {
	h := newHarness(t)
	h.flags.Config.History.Backend = config.BackendMemory

	require.NoError(t, h.run(t, "config", "validate", "--format", "json"))

	var out struct {
		Valid    bool             `json:"valid"`
		Sections []config.Section `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
	assert.True(t, out.Valid)
	require.Len(t, out.Sections, 3)

	hist := out.Sections[1]
	assert.Equal(t, config.SectionHistory, hist.Name)
	assert.Contains(t, hist.Values, config.Setting{Key: "retention_max", Value: "5"})
	_, warned := hist.WarningFor("backend")
	assert.True(t, warned)
}

func TestConfigValidate_Text(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "config", "validate"))

	out := h.msgs.String()
	assert.Contains(t, out, "history")
	assert.Contains(t, out, "retention_max: 5")
	assert.Contains(t, out, "Configuration is valid")
}

func TestDoctor(t *testing.T) {
	ctx := context.Background()

	type doctorJSON struct {
		Healthy bool `json:"healthy"`
		Fixable int  `json:"fixable"`
		Checks  []struct {
			Name  string `json:"name"`
			Facts []struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			} `json:"facts"`
		} `json:"checks"`
	}

	facts := func(t *testing.T, out doctorJSON) map[string]string {
		t.Helper()
		require.Len(t, out.Checks, 2)
		got := map[string]string{}
		for _, f := range out.Checks[1].Facts {
			got[f.Key] = f.Value
		}
		return got
	}

	t.Run("reports backend state and overflow", func(t *testing.T) {
		h := newHarness(t)
		h.flags.Memory = true
		for i := range 8 {
			require.NoError(t, h.flags.Store.AddHistory(ctx, fmt.Sprintf("entry-%d", i)))
		}

		require.NoError(t, h.run(t, "doctor", "--format", "json"))

		var out doctorJSON
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
		assert.True(t, out.Healthy)
		assert.Equal(t, 1, out.Fixable)

		got := facts(t, out)
		assert.Equal(t, "unavailable", got["state"])
		assert.Equal(t, "8", got["entries"])
		assert.Equal(t, "5", got["retention_max"])
	})

	t.Run("fix prunes to retention", func(t *testing.T) {
		h := newHarness(t)
		h.flags.Memory = true
		for i := range 8 {
			require.NoError(t, h.flags.Store.AddHistory(ctx, fmt.Sprintf("entry-%d", i)))
		}

		require.NoError(t, h.run(t, "doctor", "--fix"))

		assert.Contains(t, h.msgs.String(), "pruned 3 entries")
		assert.Contains(t, h.msgs.String(), "state: unavailable")
		assert.Len(t, h.stored(t), 5)
	})
}
