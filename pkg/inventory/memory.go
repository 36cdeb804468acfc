package inventory

import (
	"context"
	"fmt"
	"sync"
)

// MemoryChecker is an in-memory availability table for development and tests.
type MemoryChecker struct {
	mu    sync.RWMutex
	stock map[string]int64
}

func NewMemoryChecker() *MemoryChecker {
	return &MemoryChecker{stock: make(map[string]int64)}
}

// Set records the available quantity for a product/warehouse pair.
func (c *MemoryChecker) Set(productID int64, warehouseID string, quantity int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stock[memoryKey(productID, warehouseID)] = quantity
}

func (c *MemoryChecker) Available(_ context.Context, productID int64, warehouseID string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.stock[memoryKey(productID, warehouseID)], nil
}

func memoryKey(productID int64, warehouseID string) string {
	return fmt.Sprintf("%d:%s", productID, warehouseID)
}
