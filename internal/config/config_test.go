package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DailyLimit != 20 {
		t.Errorf("expected default daily limit 20, got %d", cfg.DailyLimit)
	}
	if cfg.DialogWindow != 5 {
		t.Errorf("expected default dialog window 5, got %d", cfg.DialogWindow)
	}
	if cfg.GPTTemperature != 0.5 {
		t.Errorf("expected default temperature 0.5, got %f", cfg.GPTTemperature)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DAILY_LIMIT", "3")
	t.Setenv("DIALOG_SAVE", "2")
	t.Setenv("GPT_PRICE_IN", "0.00000015")
	t.Setenv("UNLIMITED_USERS", "100, 200 ,")

	cfg := Load()

	if cfg.DailyLimit != 3 {
		t.Errorf("expected daily limit 3, got %d", cfg.DailyLimit)
	}
	if cfg.DialogWindow != 2 {
		t.Errorf("expected dialog window 2, got %d", cfg.DialogWindow)
	}
	if cfg.GPTPriceIn != 0.00000015 {
		t.Errorf("unexpected price in: %v", cfg.GPTPriceIn)
	}
	if len(cfg.UnlimitedUsers) != 2 || cfg.UnlimitedUsers[0] != "100" || cfg.UnlimitedUsers[1] != "200" {
		t.Errorf("unexpected unlimited users: %v", cfg.UnlimitedUsers)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("DAILY_LIMIT", "not-a-number")
	t.Setenv("GPT_TEMPERATURE", "warm")

	cfg := Load()

	if cfg.DailyLimit != 20 {
		t.Errorf("expected fallback daily limit 20, got %d", cfg.DailyLimit)
	}
	if cfg.GPTTemperature != 0.5 {
		t.Errorf("expected fallback temperature 0.5, got %f", cfg.GPTTemperature)
	}
}
