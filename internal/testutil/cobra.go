// Package testutil holds helpers shared by command tests.
package testutil

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// Execute runs c with args and returns what was written to os.Stdout during
// the run, which includes the JSON log lines.
func Execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w

	captured := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		captured <- buf.String()
	}()

	c.SetArgs(args)
	err = c.Execute()

	_ = w.Close()
	os.Stdout = stdout
	out := <-captured
	_ = r.Close()

	return strings.TrimSpace(out), err
}
