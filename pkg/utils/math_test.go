package utils

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// ============================================================
// Тесты RoundToLotSize
// ============================================================

func TestRoundToLotSize(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lotSize  float64
		expected float64
	}{
		// Базовые кейсы
		{"exact match", 0.123, 0.001, 0.123},
		{"round down", 0.123456, 0.001, 0.123},
		{"round down 2", 1.999, 0.01, 1.99},
		{"whole numbers", 100.5, 1.0, 100.0},

		// Граничные случаи
		{"zero value", 0, 0.001, 0},
		{"zero lotSize", 0.123, 0, 0.123},
		{"negative lotSize", 0.123, -0.001, 0.123},

		// Расчёт объёма ордера: balance * leverage / price
		{"order sizing exact", 0.1, 0.00001, 0.1},
		{"order sizing truncate", 0.098765, 0.001, 0.098},
		{"dust below step", 0.0004, 0.001, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToLotSize(tt.value, tt.lotSize)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToLotSize(%v, %v) = %v, want %v",
					tt.value, tt.lotSize, result, tt.expected)
			}
		})
	}
}

// ============================================================
// Тесты RoundToDecimals
// ============================================================

func TestRoundToDecimals(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		expected float64
	}{
		{"no change needed", 0.1, 5, 0.1},
		{"truncates down", 0.123456789, 5, 0.12345},
		{"never rounds up", 0.99999999, 4, 0.9999},
		{"zero decimals", 52500.7, 0, 52500},
		{"negative decimals passthrough", 1.5, -1, 1.5},
		{"zero value", 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToDecimals(tt.value, tt.decimals)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToDecimals(%v, %d) = %v, want %v",
					tt.value, tt.decimals, result, tt.expected)
			}
		})
	}
}

// ============================================================
// Тесты RoundToSignificant
// ============================================================

func TestRoundToSignificant(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		figures  int
		expected float64
	}{
		{"five figures large price", 50012.34, 5, 50012},
		{"five figures small price", 0.0123456, 5, 0.012346},
		{"rounds to nearest", 12469.056, 5, 12469},
		{"fewer digits than figures", 42, 5, 42},
		{"zero value", 0, 5, 0},
		{"zero figures passthrough", 123.456, 0, 123.456},
		{"negative value", -50012.34, 5, -50012},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToSignificant(tt.value, tt.figures)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToSignificant(%v, %d) = %v, want %v",
					tt.value, tt.figures, result, tt.expected)
			}
		})
	}
}
