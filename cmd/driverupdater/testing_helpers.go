package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/driverkit/internal/install"
	"github.com/joshuapare/driverkit/internal/testutil"
)

// resetFlags restores global flag values between command runs.
func resetFlags() {
	verbose, quiet, jsonOut = false, false, false
	logFile = ""
	definitionPath, repoPath, imagePath = "", "", ""
	backup, skipElevation = true, false
}

// runCommand executes the root command with args and captures stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	rootCmd.SetArgs(args)
	return captureOutput(t, rootCmd.Execute)
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return buf.String(), fnErr
}

// decodeJSON parses command output as a JSON object.
func decodeJSON(t *testing.T, output string) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput: %s", err, output)
	}
	return result
}

// testImage lays out an offline image with .reg hives and one installed
// driver store package.
func testImage(t *testing.T, system string) string {
	t.Helper()
	root := testutil.NewImage(t, system, "")
	testutil.AddPackage(t, root, "qcwlan.inf_arm64_89abcdef01234567")
	return root
}

// testRepo lays out a driver repository and its definition file.
func testRepo(t *testing.T) (repo, def string) {
	t.Helper()
	repo = t.TempDir()
	testutil.WriteFile(t, filepath.Join(repo, "components", "qcwlan", "qcwlan.inf"), "")
	testutil.WriteFile(t, filepath.Join(repo, "apps", "camera.appx"), "")
	def = filepath.Join(t.TempDir(), "device.toml")
	testutil.WriteFile(t, def, "drivers = [\"components/qcwlan\"]\napps = [\"apps\"]\n")
	return repo, def
}

// useFakes swaps the servicer and elevation check for the test's duration.
func useFakes(t *testing.T, s install.Servicer) {
	t.Helper()
	prevServicer, prevCheck := newServicer, checkElevation
	newServicer = func(string) install.Servicer { return s }
	checkElevation = func() error { return nil }
	t.Cleanup(func() {
		newServicer, checkElevation = prevServicer, prevCheck
		resetFlags()
	})
}
