package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubDandi mimics download, organize and upload closely enough for a full run.
const stubDandi = `#!/bin/sh
case "$1" in
download)
	mkdir -p "$6/${2#DANDI:}" && touch "$6/${2#DANDI:}/dandiset.yaml"
	;;
organize)
	dir="$5"
	mkdir -p "$dir/sub-1"
	i=1
	for f in "$dir"/*.nwb; do
		[ -e "$f" ] || continue
		mv "$f" "$dir/sub-1/sub-1_00$i.nwb"
		i=$((i+1))
	done
	;;
upload)
	touch "$PWD/uploaded"
	;;
esac
`

type cliTestEnv struct {
	baseDir    string
	configPath string
	inputRoot  string
	results    string
	scratch    string
	binDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:   base,
		inputRoot: filepath.Join(base, "data"),
		results:   filepath.Join(base, "results"),
		scratch:   filepath.Join(base, "scratch"),
		binDir:    filepath.Join(base, "bin"),
	}
	homeDir := filepath.Join(base, "home")
	for _, dir := range []string{homeDir, env.inputRoot, env.binDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("DANDI_API_KEY", "")

	writeExecutable(t, filepath.Join(env.binDir, "dandi"), stubDandi)
	writeExecutable(t, filepath.Join(env.binDir, "python3"), "#!/bin/sh\nexit 0\n")
	t.Setenv("PATH", env.binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	env.configPath = filepath.Join(base, "dandiprep.toml")
	content := fmt.Sprintf(`[paths]
input_root = %q
results_root = %q
scratch_root = %q

[logging]
level = "debug"
`, env.inputRoot, env.results, env.scratch)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func writeExecutable(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\nfull output:\n%s", needle, haystack)
	}
}
