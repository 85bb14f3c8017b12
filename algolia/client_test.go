package algolia

import (
	"context"
	"strings"
	"testing"
)

func TestClientEmptyBatches(t *testing.T) {
	client := NewClient(StaticSecrets("", ""))
	ctx := context.Background()

	if err := client.BatchSaveObjects(ctx, "books", nil); err != nil {
		t.Errorf("Expected empty save batch to be a no-op, got %v", err)
	}
	if err := client.BatchDeleteObjects(ctx, "books", nil); err != nil {
		t.Errorf("Expected empty delete batch to be a no-op, got %v", err)
	}
}

func TestClientInvalidSecrets(t *testing.T) {
	tests := []struct {
		name    string
		secrets Secrets
		wantErr string
	}{
		{"missing app id", Secrets{WriteApiKey: "key"}, "AppID is empty"},
		{"missing key", Secrets{AppID: "app"}, "WriteApiKey is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(StaticSecrets(tt.secrets.AppID, tt.secrets.WriteApiKey))
			ctx := context.Background()

			calls := map[string]func() error{
				"save": func() error {
					return client.SaveObject(ctx, "books", map[string]interface{}{"objectID": "b1"})
				},
				"delete": func() error {
					return client.DeleteObject(ctx, "books", "b1")
				},
				"search": func() error {
					_, err := client.Search(ctx, "books", "things")
					return err
				},
			}

			for name, call := range calls {
				err := call()
				if err == nil {
					t.Fatalf("%s: expected error, got nil", name)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("%s: expected error to contain %q, got %q", name, tt.wantErr, err.Error())
				}
			}
		})
	}
}
