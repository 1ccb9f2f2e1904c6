package main

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
)

func TestTablesToClear(t *testing.T) {
	all := []string{"pipeline_steps", "narration_segments", "scenes", "runs", "thoughts"}
	if got := tablesToClear(false); !reflect.DeepEqual(got, all) {
		t.Errorf("tablesToClear(false) = %v, want %v", got, all)
	}
	if got := tablesToClear(true); !reflect.DeepEqual(got, all[:4]) {
		t.Errorf("tablesToClear(true) = %v, want %v", got, all[:4])
	}
}

func TestResetCommand_Guards(t *testing.T) {
	orig := loadConfig
	defer func() { loadConfig = orig }()

	tests := []struct {
		name    string
		args    []string
		env     string
		wantErr error
	}{
		{"requires confirmation", nil, "development", errNotConfirmed},
		{"refuses production", []string{"--yes"}, "production", errProduction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loadCalled := false
			loadConfig = func() (*config.Config, error) {
				loadCalled = true
				return &config.Config{App: config.AppConfig{Env: tt.env}}, nil
			}

			cmd := newRootCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == errNotConfirmed && loadCalled {
				t.Error("config should not be loaded before confirmation")
			}
		})
	}
}
