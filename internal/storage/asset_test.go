package storage

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestAssetValidate(t *testing.T) {
	tests := map[string]struct {
		asset  Asset[*mockStoreSpec]
		expErr string
	}{
		"valid": {
			asset: Asset[*mockStoreSpec]{Version: 1, Identifier: "item-1", Spec: &mockStoreSpec{}},
		},
		"missing version": {
			asset:  Asset[*mockStoreSpec]{Identifier: "item-1", Spec: &mockStoreSpec{}},
			expErr: "version must be set",
		},
		"missing id": {
			asset:  Asset[*mockStoreSpec]{Version: 1, Spec: &mockStoreSpec{}},
			expErr: "id must be set",
		},
		"id with invalid characters": {
			asset:  Asset[*mockStoreSpec]{Version: 1, Identifier: "item one", Spec: &mockStoreSpec{}},
			expErr: "id must be alphanumeric",
		},
		"invalid spec": {
			asset:  Asset[*mockStoreSpec]{Version: 1, Identifier: "item-1", Spec: &mockStoreSpec{invalid: true}},
			expErr: "invalid spec",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.expErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}
