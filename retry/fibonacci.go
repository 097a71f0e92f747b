package retry

import (
	"time"
)

// Fibonacci returns successive Fibonacci numbers starting from 1
func Fibonacci() func() int {
	a, b := 0, 1
	return func() int {
		a, b = b, a+b
		return a
	}
}

// Backoff returns a function that sleeps a growing number of units on
// every call, following the Fibonacci sequence. Used between retries of a
// contended write.
func Backoff(unit time.Duration) func() {
	fib := Fibonacci()
	return func() {
		time.Sleep(time.Duration(fib()) * unit)
	}
}
