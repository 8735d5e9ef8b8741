package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name:       "nil error",
			err:        nil,
			constraint: "users_username_key",
			want:       false,
		},
		{
			name:       "postgres duplicate key",
			err:        errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`),
			constraint: "users_username_key",
			want:       true,
		},
		{
			name:       "postgres duplicate key without constraint hint",
			err:        errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`),
			constraint: "",
			want:       true,
		},
		{
			name:       "sqlite unique constraint",
			err:        errors.New("UNIQUE constraint failed: stock_items.name"),
			constraint: "stock_items_name_key",
			want:       true,
		},
		{
			name:       "unrelated error",
			err:        errors.New("connection refused"),
			constraint: "pc_assets_ok_number_key",
			want:       false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v, %q) = %v, want %v", tc.err, tc.constraint, got, tc.want)
			}
		})
	}
}
