// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"postgres://u:p@db:5432/bizdesk", "pgx5://u:p@db:5432/bizdesk"},
		{"postgresql://u:p@db/bizdesk?sslmode=disable", "pgx5://u:p@db/bizdesk?sslmode=disable"},
		{"pgx5://u:p@db/bizdesk", "pgx5://u:p@db/bizdesk"},
		{"host=db dbname=bizdesk", "host=db dbname=bizdesk"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, pgx5DSN(tt.input))
		})
	}
}
