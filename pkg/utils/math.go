package utils

import (
	"math"
)

// math.go - математические утилиты для расчёта ордеров
//
// Назначение:
// Вспомогательные функции для приведения объёма и цены ордера
// к ограничениям биржи. Все функции чистые, без побочных эффектов.
//
// Функции:
// - RoundToLotSize: округление объёма вниз до шага биржи
// - RoundToDecimals: округление вниз до заданного числа знаков
// - RoundToSignificant: округление цены до значащих цифр

// RoundToLotSize округляет значение ВНИЗ до ближайшего кратного lotSize.
//
// Используется для округления объёма ордера до минимального шага биржи.
// Округление вниз гарантирует, что мы не превысим доступные средства.
//
// Примеры:
//   - RoundToLotSize(0.123456, 0.001) = 0.123
//   - RoundToLotSize(1.999, 0.01) = 1.99
func RoundToLotSize(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Floor(value/lotSize) * lotSize
}

// RoundToDecimals округляет значение ВНИЗ до decimals знаков после запятой.
//
// Эквивалент RoundToLotSize(value, 10^-decimals), но без накопления
// ошибки плавающей точки на очень мелких шагах.
func RoundToDecimals(value float64, decimals int) float64 {
	if decimals < 0 {
		return value
	}
	pow := math.Pow10(decimals)
	return math.Floor(value*pow) / pow
}

// RoundToSignificant округляет значение до figures значащих цифр.
//
// Биржа принимает цены с ограниченным числом значащих цифр
// (у Hyperliquid - 5 для перпетуалов), иначе ордер отклоняется.
//
// Примеры:
//   - RoundToSignificant(50012.34, 5) = 50012
//   - RoundToSignificant(0.0123456, 5) = 0.012346
func RoundToSignificant(value float64, figures int) float64 {
	if value == 0 || figures <= 0 {
		return value
	}
	magnitude := math.Ceil(math.Log10(math.Abs(value)))
	pow := math.Pow10(figures - int(magnitude))
	return math.Round(value*pow) / pow
}
