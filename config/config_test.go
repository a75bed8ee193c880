package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/pxdoc"
	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/store"
)

func TestDefaults(t *testing.T) {
	c, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Store.Path != "pxdoc.db" || c.Store.Codec != "json" || c.Store.CacheBytes != store.DefaultCacheBytes {
		t.Errorf("store defaults = %+v", c.Store)
	}
	if c.Editor.HistoryLimit != pxdoc.DefaultHistoryLimit || c.Editor.MaxDimension != canvas.MaxDimension {
		t.Errorf("editor defaults = %+v", c.Editor)
	}
	if c.Export.Scaler != "catmull-rom" || c.Export.Thumbnail != 256 {
		t.Errorf("export defaults = %+v", c.Export)
	}
	if l, err := c.Level(); err != nil || l != slog.LevelInfo {
		t.Errorf("Level() = %v, %v", l, err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pxdoc.yaml")
	data := `
store:
  path: /tmp/art.db
  codec: yaml
log:
  level: debug
  format: json
editor:
  history_limit: -1
  load_workers: 8
export:
  scaler: nearest
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Store.Path != "/tmp/art.db" || c.Store.Codec != "yaml" {
		t.Errorf("store = %+v", c.Store)
	}
	if l, _ := c.Level(); l != slog.LevelDebug || c.Log.Format != "json" {
		t.Errorf("log = %+v", c.Log)
	}
	if c.Editor.HistoryLimit != -1 || c.Editor.LoadWorkers != 8 || c.Editor.MaxDimension != canvas.MaxDimension {
		t.Errorf("editor = %+v", c.Editor)
	}
	if c.Export.Scaler != "nearest" || c.Export.Thumbnail != 256 {
		t.Errorf("export = %+v", c.Export)
	}
	if n := len(c.EditorOptions()); n != 3 {
		t.Errorf("EditorOptions() has %d options", n)
	}
	if n := len(c.StoreOptions()); n != 4 {
		t.Errorf("StoreOptions() has %d options", n)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "store: [", "parse"},
		{"codec", "store: {codec: cbor}", "store.codec"},
		{"level", "log: {level: loud}", "log.level"},
		{"format", "log: {format: xml}", "log.format"},
		{"dimension", "editor: {max_dimension: 100000}", "max_dimension"},
		{"scaler", "export: {scaler: lanczos}", "export.scaler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
