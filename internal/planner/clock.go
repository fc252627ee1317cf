package planner

import (
	"fmt"
	"strconv"
	"strings"
)

// El planner trabaja con horas "HH:MM" en aritmética modular de 24h:
// no hay fechas, un deadline de 01:00 tras salir a las 23:00 es válido.

const minutesPerDay = 24 * 60

// parseClock convierte "HH:MM" a minutos desde medianoche
func parseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("hora inválida %q, se espera HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hora inválida %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("minutos inválidos en %q", s)
	}
	return h*60 + m, nil
}

// formatClock convierte minutos desde medianoche a "HH:MM", módulo 24h
func formatClock(min int) string {
	min = ((min % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// clockDiff devuelve los minutos de a hasta b hacia adelante (0..1439)
func clockDiff(aMin, bMin int) int {
	d := (bMin - aMin) % minutesPerDay
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

// clockHour extrae la hora de un instante en minutos
func clockHour(min int) int {
	min = ((min % minutesPerDay) + minutesPerDay) % minutesPerDay
	return min / 60
}
