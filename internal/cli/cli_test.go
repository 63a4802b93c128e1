package cli

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/joacominatel/devintest/internal/app"
	"github.com/joacominatel/devintest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

const testINI = `[Database]
EndPoint = localhost
DatabaseName = postgres
User = admin
Password = hunter2
`

// sessions hands out one scripted sqlmock session per Open call.
type sessions struct {
	t      *testing.T
	setups []func(sqlmock.Sqlmock)
	mocks  []sqlmock.Sqlmock
}

func (s *sessions) Open(_ context.Context, desc config.Descriptor) (*sql.DB, error) {
	assert.Equal(s.t, "admin@localhost/postgres", desc.DisplayString())
	if len(s.mocks) >= len(s.setups) {
		return nil, fmt.Errorf("unexpected session %d", len(s.mocks)+1)
	}
	db, mock, err := sqlmock.New()
	require.NoError(s.t, err)
	s.setups[len(s.mocks)](mock)
	s.mocks = append(s.mocks, mock)
	return db, nil
}

func (s *sessions) assertDone() {
	s.t.Helper()
	assert.Len(s.t, s.mocks, len(s.setups), "sessions opened")
	for i, m := range s.mocks {
		assert.NoError(s.t, m.ExpectationsWereMet(), "session %d", i+1)
	}
}

func write(pattern string, affected int64) func(sqlmock.Sqlmock) {
	return func(m sqlmock.Sqlmock) {
		m.ExpectBegin()
		m.ExpectExec(pattern).WillReturnResult(sqlmock.NewResult(0, affected))
		m.ExpectCommit()
		m.ExpectClose()
	}
}

func read(pattern string, rows *sqlmock.Rows) func(sqlmock.Sqlmock) {
	return func(m sqlmock.Sqlmock) {
		m.ExpectBegin()
		m.ExpectQuery(pattern).WillReturnRows(rows)
		m.ExpectRollback()
		m.ExpectClose()
	}
}

func ping(m sqlmock.Sqlmock) {
	m.ExpectClose()
}

type fixture struct {
	dir      string
	ini      string
	settings string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		ini:      filepath.Join(dir, "setting.ini"),
		settings: filepath.Join(dir, "settings.yaml"),
	}
	require.NoError(t, os.WriteFile(f.ini, []byte(testINI), 0o600))
	require.NoError(t, os.WriteFile(f.settings, []byte("log_level: warn\n"), 0o600))
	return f
}

// run executes the root command and returns stdout and the error.
func (f fixture) run(t *testing.T, p *sessions, in string, args ...string) (string, error) {
	t.Helper()

	var opts []Option
	if p != nil {
		opts = append(opts, WithProvider(p))
	}
	root := NewRootCmd(opts...)

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetIn(strings.NewReader(in))
	root.SetArgs(append([]string{"--settings", f.settings, "--descriptor", f.ini}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "devintest v"+Version)
}

func TestPrimeCommand(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"prime", "17", "677043", "2", "1"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "17 is prime\n677043 is not prime\n2 is prime\n1 is not prime\n", buf.String())
}

func TestPrimeCommand_InvalidNumber(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"prime", "seven"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"seven"`)
}

func TestRunCommand_FullScenario(t *testing.T) {
	f := newFixture(t)
	p := &sessions{t: t, setups: []func(sqlmock.Sqlmock){
		ping,
		write(`CREATE TABLE IF NOT EXISTS devin_test`, 0),
		write(`INSERT INTO devin_test`, 1),
		write(`INSERT INTO devin_test`, 0),
		write(`INSERT INTO devin_test`, 1),
		write(`INSERT INTO devin_test`, 1),
		write(`UPDATE devin_test`, 1),
		write(`DELETE FROM devin_test`, 1),
	}}

	out, err := f.run(t, p, "", "run")
	require.NoError(t, err)
	p.assertDone()

	assert.Contains(t, out, "Connection test")
	assert.Contains(t, out, "inserted 1,3,4, skipped 2")
	assert.Contains(t, out, "Update row id=2")
	assert.Contains(t, out, "Delete row id=3")
	assert.NotContains(t, out, "hunter2")
}

func TestRunCommand_StopsOnFailure(t *testing.T) {
	f := newFixture(t)
	p := &sessions{t: t, setups: []func(sqlmock.Sqlmock){
		ping,
		func(m sqlmock.Sqlmock) {
			m.ExpectBegin()
			m.ExpectExec(`CREATE TABLE`).WillReturnError(fmt.Errorf("permission denied"))
			m.ExpectRollback()
			m.ExpectClose()
		},
	}}

	out, err := f.run(t, p, "", "run")
	require.Error(t, err)
	p.assertDone()

	var qe *app.ErrQuery
	assert.ErrorAs(t, err, &qe)
	assert.Contains(t, err.Error(), "create")
	assert.NotContains(t, out, "Insert seed rows")
}

func TestUpdateCommand_StrictZeroRows(t *testing.T) {
	f := newFixture(t)
	p := &sessions{t: t, setups: []func(sqlmock.Sqlmock){
		write(`UPDATE devin_test`, 0),
	}}

	_, err := f.run(t, p, "", "--strict", "update", "--id", "9", "--data", "x")
	p.assertDone()
	assert.ErrorIs(t, err, app.ErrNoRowsAffected)
}

func TestUpdateCommand_LenientZeroRows(t *testing.T) {
	f := newFixture(t)
	p := &sessions{t: t, setups: []func(sqlmock.Sqlmock){
		write(`UPDATE devin_test`, 0),
	}}

	out, err := f.run(t, p, "", "update", "--id", "9", "--data", "x")
	require.NoError(t, err)
	p.assertDone()
	assert.Equal(t, "0 row(s) updated\n", out)
}

func TestListCommand(t *testing.T) {
	f := newFixture(t)
	rows := sqlmock.NewRows([]string{"id", "name", "data"}).
		AddRow(int64(1), "test1", "sample1").
		AddRow(int64(2), "test2", "sample22")
	p := &sessions{t: t, setups: []func(sqlmock.Sqlmock){
		read(`FROM devin_test\s+ORDER BY id`, rows),
	}}

	out, err := f.run(t, p, "", "list")
	require.NoError(t, err)
	p.assertDone()

	assert.Contains(t, out, "sample22")
	assert.Contains(t, out, "test1")
	assert.Contains(t, out, "(2 rows)")
}

func TestGetCommand_NotFound(t *testing.T) {
	f := newFixture(t)
	p := &sessions{t: t, setups: []func(sqlmock.Sqlmock){
		read(`FROM devin_test\s+WHERE id = \$1`, sqlmock.NewRows([]string{"id", "name", "data"})),
	}}

	out, err := f.run(t, p, "", "get", "--id", "3")
	p.assertDone()
	assert.ErrorIs(t, err, app.ErrNotFound)
	assert.Contains(t, out, "id=3 not found")
}

func TestExecCommand_Write(t *testing.T) {
	f := newFixture(t)
	p := &sessions{t: t, setups: []func(sqlmock.Sqlmock){
		func(m sqlmock.Sqlmock) {
			m.ExpectBegin()
			m.ExpectExec(`DELETE FROM devin_test WHERE name = \$1`).
				WithArgs("test4").
				WillReturnResult(sqlmock.NewResult(0, 1))
			m.ExpectCommit()
			m.ExpectClose()
		},
	}}

	out, err := f.run(t, p, "", "exec", "DELETE FROM devin_test WHERE name = $1", "test4")
	require.NoError(t, err)
	p.assertDone()
	assert.Contains(t, out, "1 row(s) affected")
}

func TestMissingDescriptorIsConfigError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.ini))

	_, err := f.run(t, &sessions{t: t}, "", "list")
	var ce *app.ErrConfig
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "not found")
}

func TestConfigShow_MasksPassword(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, nil, "", "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "localhost")
	assert.Contains(t, out, "*******")
	assert.NotContains(t, out, "hunter2")
}

func TestSettingsInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "settings.yaml")

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"--settings", path, "--strict", "--port", "6543", "settings", "init"})
	require.NoError(t, root.Execute())

	s, err := config.LoadSettings(path, nil)
	require.NoError(t, err)
	assert.True(t, s.Strict)
	assert.Equal(t, 6543, s.Port)

	root = NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"--settings", path, "settings", "init"})
	err = root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}

func TestSettingsInit_DefaultPathIsNotOverwritten(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := config.DefaultSettingsPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	existing := []byte("port: 7777\nstrict: true\n")
	require.NoError(t, os.WriteFile(path, existing, 0o600))

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"settings", "init"})
	err = root.Execute()

	var ce *app.ErrConfig
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "--force")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing, got)

	root = NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"settings", "init", "--force"})
	require.NoError(t, root.Execute())

	s, err := config.LoadSettings("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, s.Port)
	assert.False(t, s.Strict)
}

func TestPasswordSet(t *testing.T) {
	keyring.MockInit()
	f := newFixture(t)

	out, err := f.run(t, nil, "s3cret-pw\n", "password", "set")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@localhost")

	pw, err := keyring.Get(config.KeyringService, "admin@localhost")
	require.NoError(t, err)
	assert.Equal(t, "s3cret-pw", pw)
}

func TestKeyringPasswordIsUsed(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(config.KeyringService, "admin@localhost", "from-keyring"))
	f := newFixture(t)

	out, err := f.run(t, nil, "", "--keyring", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, strings.Repeat("*", len("from-keyring")))
}
