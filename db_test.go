package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueConstraintError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username" (SQLSTATE 23505)`), true},
		{"partial index violation", errors.New(`ERROR: duplicate key value violates unique constraint "idx_deletion_request_pending" (SQLSTATE 23505)`), true},
		{"already exists", errors.New("relation already exists"), true},
		{"unrelated failure", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isUniqueConstraintError(tc.err))
		})
	}
}
