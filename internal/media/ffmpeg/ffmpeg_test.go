package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func captureCommands(t *testing.T, succeed bool) *[][]string {
	t.Helper()
	var captured [][]string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append(captured, append([]string{name}, args...))
		if succeed {
			return exec.CommandContext(ctx, "true")
		}
		return exec.CommandContext(ctx, "false")
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestConvertArgs(t *testing.T) {
	captured := captureCommands(t, true)
	cli := NewCLI(WithBinary("/usr/bin/ffmpeg"), WithBitrate("192k"))

	dir := t.TempDir()
	output := filepath.Join(dir, "out", "key.mp3")
	if err := cli.Convert(context.Background(), filepath.Join(dir, "in.wav"), output); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if len(*captured) != 1 {
		t.Fatalf("expected one command, got %d", len(*captured))
	}
	args := strings.Join((*captured)[0], " ")
	for _, want := range []string{"/usr/bin/ffmpeg", "-acodec mp3", "-ab 192k", output} {
		if !strings.Contains(args, want) {
			t.Fatalf("command %q missing %q", args, want)
		}
	}
	// The output directory is created up front.
	if _, err := os.Stat(filepath.Dir(output)); err != nil {
		t.Fatalf("output directory not created: %v", err)
	}
}

func TestConvertRequiresPaths(t *testing.T) {
	cli := NewCLI()
	if err := cli.Convert(context.Background(), "", "/tmp/out.mp3"); err == nil {
		t.Fatal("expected error for empty input")
	}
	if err := cli.Convert(context.Background(), "/tmp/in.wav", ""); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestTagFailureLeavesDestination(t *testing.T) {
	captureCommands(t, false)
	cli := NewCLI()

	dir := t.TempDir()
	dest := filepath.Join(dir, "key.mp3")
	if err := os.WriteFile(dest, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := cli.Tag(context.Background(), filepath.Join(dir, "tmp.mp3"), dest, "Jordan Smith 2", "Juvenile Ladies Short Program")
	if err == nil {
		t.Fatal("expected tag failure")
	}
	data, readErr := os.ReadFile(dest)
	if readErr != nil || string(data) != "previous" {
		t.Fatalf("destination should be untouched: %q err=%v", data, readErr)
	}
	if _, statErr := os.Stat(dest + ".tagging.mp3"); !os.IsNotExist(statErr) {
		t.Fatal("staging file should be cleaned up")
	}
}

func TestTagMetadataArgs(t *testing.T) {
	captured := captureCommands(t, true)
	cli := NewCLI()

	dir := t.TempDir()
	staging := filepath.Join(dir, "key.mp3.tagging.mp3")
	if err := os.WriteFile(staging, []byte("tagged"), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "key.mp3")
	if err := cli.Tag(context.Background(), filepath.Join(dir, "tmp.mp3"), dest, "Jordan Smith", "Juvenile Ladies Short Program"); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	args := strings.Join((*captured)[0], " ")
	if !strings.Contains(args, "title=Jordan Smith") || !strings.Contains(args, "album=Juvenile Ladies Short Program") {
		t.Fatalf("metadata args missing: %q", args)
	}
	if data, err := os.ReadFile(dest); err != nil || string(data) != "tagged" {
		t.Fatalf("staging not promoted: %q err=%v", data, err)
	}
}
