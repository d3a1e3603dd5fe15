package commsutil

import "testing"

func TestBuildCompilingSubject(t *testing.T) {
	tests := []struct {
		name      string
		className string
		want      string
	}{
		{"simple", "my.app.Widget", "class.compiling.my_app_Widget"},
		{"nested namespace", "qx.ui.core.Widget", "class.compiling.qx_ui_core_Widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCompilingSubject(tt.className)
			if got != tt.want {
				t.Errorf("BuildCompilingSubject(%q) = %q, want %q", tt.className, got, tt.want)
			}
		})
	}
}

func TestBuildCompiledSubject(t *testing.T) {
	got := BuildCompiledSubject("my.app.Widget")
	want := "class.compiled.my_app_Widget"
	if got != want {
		t.Errorf("BuildCompiledSubject() = %q, want %q", got, want)
	}
}

func TestBuildClassQuerySubject(t *testing.T) {
	got := BuildClassQuerySubject("my.app")
	want := "class.query.my_app.v1"
	if got != want {
		t.Errorf("BuildClassQuerySubject() = %q, want %q", got, want)
	}
}
