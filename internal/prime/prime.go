// Package prime checks integers for primality by trial division.
package prime

// IsPrime reports whether n is prime. Even numbers other than 2 are rejected
// up front; odd candidates are divided by odd i while i*i <= n.
func IsPrime(n int64) bool {
	switch {
	case n < 2:
		return false
	case n == 2:
		return true
	case n%2 == 0:
		return false
	}
	return noOddDivisor(n)
}

func noOddDivisor(n int64) bool {
	for i := int64(3); i <= n/i; i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}
