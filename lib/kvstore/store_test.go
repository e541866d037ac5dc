// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kvstore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func TestMemoryGetMissing(t *testing.T) {
	store := NewMemory()
	value := "default"
	found, err := store.Get("taiga_auth_token", &value)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("Get reported a missing key as present")
	}
	if value != "default" {
		t.Errorf("value = %q, want untouched default", value)
	}
}

func TestMemoryApplyAndDelete(t *testing.T) {
	store := NewMemory()
	err := store.Apply(map[string]any{
		"taiga_auth_token": "token-1",
		"taiga_user_info":  profile{ID: 3, Username: "marie"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var user profile
	if found, err := store.Get("taiga_user_info", &user); err != nil || !found {
		t.Fatalf("Get user: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(profile{ID: 3, Username: "marie"}, user); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}

	if err := Update(store, "taiga_auth_token", nil); err != nil {
		t.Fatalf("Update(nil): %v", err)
	}
	if diff := cmp.Diff([]string{"taiga_user_info"}, store.Keys()); diff != "" {
		t.Errorf("keys after delete (-want +got):\n%s", diff)
	}
}

func TestMemoryApplyEncodingFailureLeavesStoreUnchanged(t *testing.T) {
	store := NewMemory()
	if err := Update(store, "taiga_scope", 7); err != nil {
		t.Fatal(err)
	}
	err := store.Apply(map[string]any{
		"taiga_scope": 9,
		"broken":      make(chan int),
	})
	if err == nil {
		t.Fatal("Apply accepted an unencodable value")
	}
	var scope int64
	if _, err := store.Get("taiga_scope", &scope); err != nil {
		t.Fatal(err)
	}
	if scope != 7 {
		t.Errorf("scope = %d after failed Apply, want 7", scope)
	}
}
