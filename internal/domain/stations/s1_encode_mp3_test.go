package stations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeRunner struct {
	output []byte
	err    error
	skip   bool // pretend ffmpeg exited 0 but wrote nothing

	gotName string
	gotArgs []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	f.gotName = name
	f.gotArgs = args

	if f.err != nil {
		return commandResult{ExitCode: 1, Stderr: "conversion failed"}, f.err
	}
	if !f.skip {
		outPath := args[len(args)-1]
		if err := os.WriteFile(outPath, f.output, 0644); err != nil {
			return commandResult{}, err
		}
	}
	return commandResult{}, nil
}

func tempWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speech.wav")
	if err := os.WriteFile(path, []byte("wav"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestEncodeProducesMonoMP3At16k(t *testing.T) {
	runner := &fakeRunner{output: []byte("mp3-data")}
	s := &S1EncodeMP3{ffmpegPath: "ffmpeg", runner: runner, stat: os.Stat}

	input := tempWAV(t)

	out, size, err := s.Encode(context.Background(), input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasSuffix(out, "_converted.mp3") {
		t.Fatalf("unexpected output path %q", out)
	}
	if size != int64(len(runner.output)) {
		t.Fatalf("got size %d, want %d", size, len(runner.output))
	}

	if runner.gotName != "ffmpeg" {
		t.Fatalf("ran %q, want ffmpeg", runner.gotName)
	}
	for _, pair := range [][2]string{
		{"-i", input},
		{"-ac", "1"},
		{"-ar", "16000"},
		{"-f", "mp3"},
	} {
		if !hasArgPair(runner.gotArgs, pair[0], pair[1]) {
			t.Errorf("args missing %s %s: %v", pair[0], pair[1], runner.gotArgs)
		}
	}
}

func TestEncodeInputMissing(t *testing.T) {
	s := &S1EncodeMP3{ffmpegPath: "ffmpeg", runner: &fakeRunner{}, stat: os.Stat}

	_, _, err := s.Encode(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestEncodeRunnerFailure(t *testing.T) {
	runErr := errors.New("exit status 1")
	s := &S1EncodeMP3{ffmpegPath: "ffmpeg", runner: &fakeRunner{err: runErr}, stat: os.Stat}

	_, _, err := s.Encode(context.Background(), tempWAV(t))
	if !errors.Is(err, runErr) {
		t.Fatalf("got %v, want wrapped runner error", err)
	}
}

func TestEncodeOutputMissing(t *testing.T) {
	s := &S1EncodeMP3{ffmpegPath: "ffmpeg", runner: &fakeRunner{skip: true}, stat: os.Stat}

	_, _, err := s.Encode(context.Background(), tempWAV(t))
	if err == nil {
		t.Fatal("expected error when ffmpeg produced no output")
	}
}
