package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "image/jpeg"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "page.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir()) // без чужого .env
	t.Setenv("ANALYSIS_ENGINE", "gpt")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANALYSIS_STRICT", "false")
	t.Setenv("ANALYSIS_PROMPT_FILE", "")
}

func TestValidate(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	out, err := run(t, "validate", writePNG(t, dir, 20, 10))
	if err != nil {
		t.Fatalf("validate png: %v", err)
	}
	var res struct {
		Valid bool   `json:"valid"`
		MIME  string `json:"mimeType"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("bad json %q: %v", out, err)
	}
	if !res.Valid || res.MIME != "image/png" {
		t.Errorf("result = %+v", res)
	}

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("just text"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "validate", txt)
	if err == nil {
		t.Fatal("text file must be rejected")
	}
	if !strings.Contains(out, "IMAGE_INVALID_FORMAT") {
		t.Errorf("output = %s", out)
	}
}

func TestCompress_ToFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.jpg")

	if _, err := run(t, "compress", writePNG(t, dir, 400, 200), "-o", dst, "--max-width", "100", "--max-height", "100"); err != nil {
		t.Fatalf("compress: %v", err)
	}
	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" || cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("output = %s %dx%d, want jpeg 100x50", format, cfg.Width, cfg.Height)
	}
}

func TestCompress_MaxPixels(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, "compress", writePNG(t, t.TempDir(), 400, 200), "--max-pixels", "1000"); err == nil {
		t.Error("image over --max-pixels must be rejected")
	}
}

func TestCompress_Stdout(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, "compress", writePNG(t, t.TempDir(), 30, 30), "--format", "png")
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !strings.HasPrefix(out, "data:image/png;base64,") {
		t.Errorf("stdout = %.40s", out)
	}
}

func TestAnalyze_MockWithoutKey(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, "analyze", writePNG(t, t.TempDir(), 50, 50))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var res struct {
		Success  bool `json:"success"`
		Metadata struct {
			AIModel string `json:"aiModel"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !res.Success || res.Metadata.AIModel != "mock-data" {
		t.Errorf("result = %+v", res)
	}
}

func TestAnalyze_StrictWithoutKey(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, "analyze", "--strict", writePNG(t, t.TempDir(), 50, 50)); err == nil {
		t.Error("strict mode without key must fail")
	}
}

func TestArgs(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, "validate"); err == nil {
		t.Error("missing file argument must fail")
	}
	if _, err := run(t, "analyze", "--engine", "claude", "x.png"); err == nil {
		t.Error("unknown engine must fail")
	}
}
