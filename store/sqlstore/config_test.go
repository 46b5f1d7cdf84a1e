package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  TableConfig
		wantErr bool
	}{
		{"default", DefaultTableConfig(), false},
		{"custom", TableConfig{HistoryTable: "app_history_2", LockTable: "AppLock"}, false},
		{"empty history", TableConfig{LockTable: "lock"}, true},
		{"empty lock", TableConfig{HistoryTable: "history"}, true},
		{"sql injection", TableConfig{HistoryTable: "history; DROP TABLE users", LockTable: "lock"}, true},
		{"schema qualified", TableConfig{HistoryTable: "public.history", LockTable: "lock"}, true},
		{"leading underscore", TableConfig{HistoryTable: "_history", LockTable: "lock"}, true},
		{"same table", TableConfig{HistoryTable: "history", LockTable: "history"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
