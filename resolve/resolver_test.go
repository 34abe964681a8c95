// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normal", "plaza independencia, montevideo", "plaza independencia, montevideo"},
		{"case and padding", "  Plaza Independencia, Montevideo ", "plaza independencia, montevideo"},
		{"collapsed whitespace", "Plaza \t Independencia,\n Montevideo", "plaza independencia, montevideo"},
		{"accents folded", "Avenida Italia esquina Bolívar", "avenida italia esquina bolivar"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddress(tt.in))
		})
	}
}
