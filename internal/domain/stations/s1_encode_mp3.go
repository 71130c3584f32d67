package stations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func trim(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// S1EncodeMP3 converts any input audio into what the platform accepts:
// mp3, 16 kHz, mono.
type S1EncodeMP3 struct {
	ffmpegPath string
	runner     commandRunner
	stat       func(name string) (os.FileInfo, error)
}

func NewS1EncodeMP3(ffmpegPath string) *S1EncodeMP3 {
	return &S1EncodeMP3{
		ffmpegPath: ffmpegPath,
		runner:     execRunner{},
		stat:       os.Stat,
	}
}

func (s *S1EncodeMP3) Encode(ctx context.Context, inputPath string) (string, int64, error) {
	log.Printf("[S1][START] input=%s", filepath.Base(inputPath))

	if _, err := s.stat(inputPath); err != nil {
		return "", 0, fmt.Errorf("[S1] input not found: %w", err)
	}

	outPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "_converted.mp3"

	res, err := s.runner.Run(ctx, s.ffmpegPath, buildFFmpegArgs(inputPath, outPath)...)
	if err != nil {
		if res.Stderr != "" {
			log.Printf("[S1][STDERR] %s", trim(res.Stderr, 280))
		}
		return "", 0, fmt.Errorf("[S1] ffmpeg convert (exit=%d): %w", res.ExitCode, err)
	}

	info, err := s.stat(outPath)
	if err != nil {
		return "", 0, fmt.Errorf("[S1] ffmpeg finished but output missing: %w", err)
	}

	log.Printf("[S1][OK] out=%s bytes=%d", filepath.Base(outPath), info.Size())
	return outPath, info.Size(), nil
}

func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-b:a", "16k",
		"-f", "mp3",
		outPath,
	}
}
