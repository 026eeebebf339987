//go:build !race

package taskauth

// passwordHashCost keeps hashing deliberately slow. Raise it as hardware
// catches up.
func passwordHashCost() int {
	return 14
}
