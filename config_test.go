package hxfaces

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    func(*Config)
		wantErr bool
	}{
		{
			name: "empty uses defaults",
			yaml: "",
			want: func(*Config) {},
		},
		{
			name: "overrides",
			yaml: "separator: \"_\"\nmaxEventLoops: 3\nstateSaving: server\npartialStateSaving: false\nprojectStage: Development\nserverStatePath: /tmp/views.db\n",
			want: func(c *Config) {
				c.Separator = "_"
				c.MaxEventLoops = 3
				c.StateSaving = StateSavingServer
				c.PartialStateSaving = false
				c.ProjectStage = Development
				c.ServerStatePath = "/tmp/views.db"
			},
		},
		{name: "long separator", yaml: "separator: \"::\"\n", wantErr: true},
		{name: "zero event loops", yaml: "maxEventLoops: 0\n", wantErr: true},
		{name: "unknown state saving", yaml: "stateSaving: cookie\n", wantErr: true},
		{name: "unknown stage", yaml: "projectStage: Staging\n", wantErr: true},
		{name: "malformed", yaml: "separator: [\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig([]byte(tt.yaml))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseConfig() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			want := DefaultConfig()
			tt.want(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hxfaces.yaml")
	if err := os.WriteFile(path, []byte("viewPrefix: /app/\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ViewPrefix != "/app/" {
		t.Errorf("ViewPrefix = %q, want /app/", cfg.ViewPrefix)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig of a missing file succeeded")
	}
}

func TestNewApplicationRejectsInvalidOptions(t *testing.T) {
	if _, err := NewApplication(WithSeparator("")); err == nil {
		t.Error("empty separator accepted")
	}
	if _, err := NewApplication(WithMaxEventLoops(-1)); err == nil {
		t.Error("negative event loops accepted")
	}
}
