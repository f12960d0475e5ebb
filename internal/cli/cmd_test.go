package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/FunnelCraft/internal/auth"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/services"
	"github.com/Corphon/FunnelCraft/internal/storage"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

var answers = []string{
	"Overwhelm from juggling too many clients",
	"Block one hour for deep work tomorrow",
	"Checklist",
	"The Calm Calendar Checklist",
	"1. Audit your week\n2. Batch similar tasks\n- Protect your mornings",
	"Solo coaches with full practices",
	"A calm, predictable week with room to grow",
	"12-week Calm Business Coaching",
	"I don't have time to change my systems",
}

// testApp wires an App over a temp-dir file store.
func testApp(t *testing.T) *App {
	t.Helper()
	store, err := storage.NewFileRecordStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	locks := services.NewLockManager()
	t.Cleanup(locks.Close)

	tokens, err := auth.NewTokenConfig("cli-secret", time.Hour)
	require.NoError(t, err)

	accounts := services.NewAccountService(store, locks)
	metrics := utils.NewFunnelMetrics(utils.NewMetricsCollector())
	return &App{
		Accounts:   accounts,
		Blueprints: services.NewBlueprintService(accounts, nil, services.NewTaskService(), metrics, time.Second),
		Tokens:     tokens,
	}
}

// executeCmd runs a cobra command and captures its output.
func executeCmd(t *testing.T, app *App, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeAnswers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func answersDoc(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"author_name": "Dana", "answers": answers})
	require.NoError(t, err)
	return string(data)
}

func TestQuestionsCmd(t *testing.T) {
	out, err := executeCmd(t, testApp(t), "", "questions")
	require.NoError(t, err)
	assert.Contains(t, out, "9.")
	assert.Contains(t, out, "[problem]")
}

func TestCraftCmd_FromAnswersFile(t *testing.T) {
	app := testApp(t)
	path := writeAnswers(t, answersDoc(t))
	outPath := filepath.Join(t.TempDir(), "blueprint.md")

	out, err := executeCmd(t, app, "", "craft", "--account", "acct1", "--answers-file", path, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved for account acct1")

	doc, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Hi, I'm Dana")

	stored, err := app.Blueprints.Load(context.Background(), "acct1")
	require.NoError(t, err)
	assert.Equal(t, string(doc), stored)
}

func TestCraftCmd_BareList(t *testing.T) {
	app := testApp(t)
	data, err := json.Marshal(answers)
	require.NoError(t, err)

	out, err := executeCmd(t, app, "", "craft", "--account", "acct1", "--answers-file", writeAnswers(t, string(data)))
	require.NoError(t, err)
	assert.Contains(t, out, "The Calm Calendar Checklist")
}

func TestCraftCmd_InteractiveUsesPrompt(t *testing.T) {
	app := testApp(t)
	app.IsInteractive = func() bool { return true }
	app.AskAnswers = func(author *string) ([]string, error) {
		*author = "Robin"
		return answers, nil
	}

	out, err := executeCmd(t, app, "", "craft", "--account", "acct1")
	require.NoError(t, err)
	assert.Contains(t, out, "Hi, I'm Robin")
}

func TestCraftCmd_NonInteractiveNeedsFile(t *testing.T) {
	_, err := executeCmd(t, testApp(t), "", "craft", "--account", "acct1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--answers-file")
}

func TestCraftCmd_RejectsShortAnswers(t *testing.T) {
	path := writeAnswers(t, "- one\n- two\n")
	_, err := executeCmd(t, testApp(t), "", "craft", "--account", "acct1", "--answers-file", path)
	assert.Error(t, err)
}

func TestParseAndExportCmd(t *testing.T) {
	app := testApp(t)
	path := writeAnswers(t, answersDoc(t))
	_, err := executeCmd(t, app, "", "craft", "--account", "acct1", "--answers-file", path)
	require.NoError(t, err)

	out, err := executeCmd(t, app, "", "parse", "--account", "acct1")
	require.NoError(t, err)
	var content models.EditableContent
	require.NoError(t, json.Unmarshal([]byte(out), &content))
	assert.Equal(t, "The Calm Calendar Checklist", content.LeadMagnet.Title)

	doc, err := app.Blueprints.Load(context.Background(), "acct1")
	require.NoError(t, err)
	out, err = executeCmd(t, app, doc, "export", "-", "--section", "emails")
	require.NoError(t, err)
	assert.Contains(t, out, "Immediately")

	_, err = executeCmd(t, app, doc, "export", "-", "--section", "bogus")
	assert.Error(t, err)

	_, err = executeCmd(t, app, "", "parse")
	assert.Error(t, err)
}

func TestProgressCmd(t *testing.T) {
	app := testApp(t)
	_, err := app.Accounts.SetFlag(context.Background(), "acct1", models.FlagProfileComplete, true)
	require.NoError(t, err)

	out, err := executeCmd(t, app, "", "progress", "--account", "acct1")
	require.NoError(t, err)
	assert.Contains(t, out, "setup")
	assert.Contains(t, out, "profile_complete")
	assert.Contains(t, out, "overall")
}

func TestTokenCmd(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "", "token", "--account", "acct1")
	require.NoError(t, err)

	tok, err := auth.ParseToken(strings.TrimSpace(out), app.Tokens)
	require.NoError(t, err)
	assert.Equal(t, "acct1", tok.AccountID)
}
