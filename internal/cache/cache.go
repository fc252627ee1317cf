// ============================================================================
// CACHE SERVICE - IN-MEMORY CACHING CON TTL
// ============================================================================
// Implementación de caché thread-safe con expiración automática y keys
// tipadas. Optimizado para las consultas repetidas de una misma sesión de
// planificación (tráfico por coordenada, operadores por estado, paradas
// inferidas por corredor).
//
// El reloj es inyectable para poder testear expiración sin sleeps.
//
// Uso:
//   c := cache.New[cache.TrafficPointKey, traffic.Sample](6*time.Hour, 10*time.Minute)
//   c.Set(cache.PointKey(9.93, 76.26), sample)
//   if s, found := c.Get(cache.PointKey(9.93, 76.26)); found { ... }
// ============================================================================

package cache

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Item representa un elemento en caché con timestamp de expiración
type Item[V any] struct {
	Value      V
	Expiration int64 // Unix nanos; 0 = sin expiración
}

// Cache es un almacén thread-safe key-value con TTL y key tipada
type Cache[K comparable, V any] struct {
	items             map[K]Item[V]
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	stopCleanup       chan bool
	now               func() time.Time
}

// New crea una instancia de caché con TTL por defecto.
// cleanupInterval ejecuta limpieza periódica de items expirados.
func New[K comparable, V any](defaultExpiration, cleanupInterval time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		items:             make(map[K]Item[V]),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		stopCleanup:       make(chan bool),
		now:               time.Now,
	}

	go c.startCleanupTimer()

	return c
}

// SetClock reemplaza el reloj interno (solo para tests).
func (c *Cache[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Set almacena un valor con la expiración por defecto
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultExpiration)
}

// SetWithTTL almacena un valor con una duración de expiración específica
func (c *Cache[K, V]) SetWithTTL(key K, value V, duration time.Duration) {
	var expiration int64

	c.mu.Lock()
	if duration > 0 {
		expiration = c.now().Add(duration).UnixNano()
	}
	c.items[key] = Item[V]{
		Value:      value,
		Expiration: expiration,
	}
	c.mu.Unlock()
}

// Get recupera un valor del caché.
// Retorna (valor, true) si existe y no ha expirado.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, found, expired := c.GetWithExpiry(key)
	if !found || expired {
		var zero V
		return zero, false
	}
	return v, true
}

// GetWithExpiry recupera un valor distinguiendo "no existe" de "expiró".
// Una lectura expirada elimina el item; el caller debe refrescar la fuente.
func (c *Cache[K, V]) GetWithExpiry(key K) (V, bool, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	nowNs := c.now().UnixNano()
	c.mu.RUnlock()

	var zero V
	if !found {
		return zero, false, false
	}

	if item.Expiration > 0 && nowNs > item.Expiration {
		c.Delete(key)
		return zero, true, true
	}

	return item.Value, true, false
}

// Delete elimina una key del caché
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear limpia completamente el caché
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.items = make(map[K]Item[V])
	c.mu.Unlock()
}

// Count retorna el número de items en caché (incluye expirados)
func (c *Cache[K, V]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats retorna estadísticas del caché
type Stats struct {
	TotalItems   int
	ExpiredItems int
	ValidItems   int
}

// GetStats retorna estadísticas actuales del caché
func (c *Cache[K, V]) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalItems: len(c.items)}

	nowNs := c.now().UnixNano()
	for _, item := range c.items {
		if item.Expiration > 0 && nowNs > item.Expiration {
			stats.ExpiredItems++
		} else {
			stats.ValidItems++
		}
	}

	return stats
}

// startCleanupTimer ejecuta limpieza periódica de items expirados
func (c *Cache[K, V]) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

// deleteExpired elimina todos los items expirados
func (c *Cache[K, V]) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	nowNs := c.now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && nowNs > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Stop detiene la limpieza automática
func (c *Cache[K, V]) Stop() {
	c.stopCleanup <- true
}

// ============================================================================
// KEYS TIPADAS - BUSINESS KEYS NATURALES POR CONCERN
// ============================================================================
// Cada caché usa una key struct en vez de strings formateados, para que
// el compilador detecte mezclas de keys entre cachés.

// OperatorKey identifica un operador por estado y modo de transporte
type OperatorKey struct {
	State string
	Mode  string
}

// TrafficPointKey identifica una muestra de tráfico por coordenada
// redondeada a 2 decimales (~1.1 km), suficiente para agrupar consultas
// cercanas dentro de una sesión.
type TrafficPointKey struct {
	Lat2dp int
	Lon2dp int
}

// PointKey construye una TrafficPointKey desde coordenadas crudas
func PointKey(lat, lon float64) TrafficPointKey {
	return TrafficPointKey{
		Lat2dp: int(math.Round(lat * 100)),
		Lon2dp: int(math.Round(lon * 100)),
	}
}

// RouteHourKey agrupa estimaciones de tráfico por ruta y hora del día
type RouteHourKey struct {
	Origin string
	Dest   string
	Hour   int
}

// StopInferenceKey agrupa paradas inferidas por corredor y día
type StopInferenceKey struct {
	OriginHash string
	DestHash   string
	DayBucket  string
}

// HashCoord genera el hash de coordenada usado en StopInferenceKey
func HashCoord(lat, lon float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lon)
}

// HotelCityKey identifica resultados de hoteles por ciudad normalizada
type HotelCityKey struct {
	City string
}
