package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_DISABLED", "true")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BusinessName != "Your Business" {
		t.Fatalf("unexpected business name: %s", cfg.BusinessName)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	if cfg.DialTimeout != 60*time.Second {
		t.Fatalf("unexpected dial timeout: %s", cfg.DialTimeout)
	}
	if cfg.OutboundAgentName != "outbound-caller" || cfg.APIToken != "" {
		t.Fatalf("unexpected agent name or token: %q %q", cfg.OutboundAgentName, cfg.APIToken)
	}
	if cfg.MeetingDuration != 60 || cfg.MeetingLength() != time.Hour {
		t.Fatalf("unexpected meeting duration: %d", cfg.MeetingDuration)
	}
	days := cfg.Weekdays()
	if len(days) != 5 || days[0] != time.Monday || days[4] != time.Friday {
		t.Fatalf("unexpected weekdays: %v", days)
	}
	if cfg.Location().String() != "America/New_York" {
		t.Fatalf("unexpected location: %s", cfg.Location())
	}
	if cfg.TelephonyEnabled() {
		t.Fatalf("telephony should be disabled without credentials")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BUSINESS_NAME", "John Doe Legal")
	t.Setenv("BUSINESS_DAYS", "Monday, wed,SAT")
	t.Setenv("DIAL_TIMEOUT", "45s")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("DATABASE_URL", "file:recall.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BusinessName != "John Doe Legal" {
		t.Fatalf("unexpected business name: %s", cfg.BusinessName)
	}
	if got := strings.Join(cfg.BusinessDays, ","); got != "mon,wed,sat" {
		t.Fatalf("unexpected days: %s", got)
	}
	if cfg.DialTimeout != 45*time.Second {
		t.Fatalf("unexpected dial timeout: %s", cfg.DialTimeout)
	}
	if cfg.HTTPPort != 9090 {
		t.Fatalf("unexpected port: %d", cfg.HTTPPort)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("expected sqlite driver default, got %s", cfg.DatabaseDriver)
	}
}

func TestLoadConfigFile(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "recall.yaml")
	contents := "business_name: File Co\nbusiness_start_hour: 8\ncalendar_backend: none\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BusinessName != "File Co" || cfg.BusinessStart != 8 || cfg.CalendarBackend != "none" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown backend", map[string]string{"DATA_BACKEND": "oracle"}, "unknown DATA_BACKEND"},
		{"postgres without url", map[string]string{"DATA_BACKEND": "postgres"}, "DATABASE_URL is required"},
		{"supabase without key", map[string]string{"DATA_BACKEND": "supabase", "SUPABASE_URL": "https://x.supabase.co"}, "SUPABASE_SK"},
		{"bad calendar", map[string]string{"CALENDAR_BACKEND": "outlook"}, "unknown CALENDAR_BACKEND"},
		{"inverted hours", map[string]string{"BUSINESS_START_HOUR": "18", "BUSINESS_END_HOUR": "9"}, "invalid business hours"},
		{"bad weekday", map[string]string{"BUSINESS_DAYS": "mon,funday"}, "unknown weekday"},
		{"bad zone", map[string]string{"BUSINESS_TIMEZONE": "Mars/Olympus"}, "unknown BUSINESS_TIMEZONE"},
		{"zero duration", map[string]string{"DEFAULT_MEETING_DURATION": "0"}, "must be positive"},
		{"missing llm key", map[string]string{"LLM_DISABLED": "false", "ANTHROPIC_API_KEY": ""}, "ANTHROPIC_API_KEY"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
