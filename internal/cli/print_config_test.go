package cli_test

import (
	"path/filepath"
	"testing"

	"github.com/calvinalkan/habitsync/internal/cli"
)

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "note_dir="+filepath.Join(c.Dir, ".task", "notes"))
	cli.AssertContains(t, stdout, "data_dir="+filepath.Join(c.Dir, ".task"))
	cli.AssertContains(t, stdout, "note_prefix=[tasknote]")
	cli.AssertContains(t, stdout, "request_interval=1s")
	cli.AssertContains(t, stdout, "mode=standalone")
	cli.AssertContains(t, stdout, "(defaults only)")
}

func Test_Print_Config_Project_File_With_Comments_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(`{
		// notes live with the project
		"note_dir": "notes",
		"request_interval": "250ms",
	}`)

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "note_dir="+filepath.Join(c.Dir, "notes"))
	cli.AssertContains(t, stdout, "request_interval=250ms")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, ".habitsync.json"))
}

func Test_Print_Config_Masks_Api_Key_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.Env["HABITICA_USER_ID"] = "user-env"
	c.Env["HABITICA_API_KEY"] = "secret-abcd"

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "user_id=user-env")
	cli.AssertContains(t, stdout, "api_key=*******abcd")
	cli.AssertNotContains(t, stdout, "secret-abcd")
	cli.AssertContains(t, stdout, "credentials=env")
}

func Test_Print_Config_Data_Dir_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("--data-dir", "state", "print-config")

	cli.AssertContains(t, stdout, "data_dir="+filepath.Join(c.Dir, "state"))
}

func Test_Print_Config_Sync_Mode_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.Env["HABITSYNC_RUNNING"] = "1"

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "mode=sync")
}
