package reorder

import (
	"fmt"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/common"
)

// FreeOrders returns {1..capacity} minus the orders in use, ascending.
// The entity with id excludeID (the one being edited) does not hold its slot.
func FreeOrders(capacity int, items []models.Entity, excludeID string) []int {
	used := make(map[int]bool, len(items))
	for _, e := range items {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		used[e.Order] = true
	}

	free := make([]int, 0, capacity)
	for n := 1; n <= capacity; n++ {
		if !used[n] {
			free = append(free, n)
		}
	}
	return free
}

// Allocate returns the lowest free order, or ErrCapacityExceeded.
func Allocate(capacity int, items []models.Entity) (int, error) {
	free := FreeOrders(capacity, items, "")
	if len(free) == 0 {
		return 0, fmt.Errorf("%w: all %d slots are in use", common.ErrCapacityExceeded, capacity)
	}
	return free[0], nil
}

// CheckCapacity fails with ErrCapacityExceeded when n items already fill
// capacity. A capacity of 0 means unbounded.
func CheckCapacity(capacity, n int) error {
	if capacity > 0 && n >= capacity {
		return fmt.Errorf("%w: limit of %d reached", common.ErrCapacityExceeded, capacity)
	}
	return nil
}
